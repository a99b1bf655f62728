// Package active scores unlabeled questions for labeling value. Questions
// the generator is unsure about, or that look unlike anything in the
// corpus, surface first.
package active

import (
	"math"
	"sort"

	"github.com/dwmorris/sqlpilot/internal/lexicon"
	"github.com/dwmorris/sqlpilot/internal/predict"
	"github.com/dwmorris/sqlpilot/internal/rank"
	"github.com/dwmorris/sqlpilot/internal/types"
)

const (
	uncertaintyWeight = 0.6
	noveltyWeight     = 0.4

	marginWeight  = 0.6
	entropyWeight = 0.4

	fuzzyNoveltyCeiling  = 0.75
	cosineNoveltyCeiling = 0.55

	entropyTop = 5
)

// Suggestion is a question annotated with its labeling priority.
type Suggestion struct {
	Question    string  `json:"question"`
	Uncertainty float64 `json:"uncertainty"`
	Novel       bool    `json:"novel"`
	Priority    float64 `json:"priority"`
}

// Uncertainty measures how unsure a candidate list is: a blend of the
// score margin between the top two candidates and the entropy of the
// top-five score distribution. Zero or one candidate is maximally certain
// on margin.
func Uncertainty(cands []types.Candidate) float64 {
	if len(cands) == 0 {
		return 0
	}

	margin := 1.0
	if len(cands) > 1 {
		margin = cands[0].Score - cands[1].Score
	}

	marginTerm := 1 - math.Min(1, margin)

	top := cands
	if len(top) > entropyTop {
		top = top[:entropyTop]
	}

	var sum float64

	for _, c := range top {
		if c.Score > 0 {
			sum += c.Score
		}
	}

	var entropy float64

	if sum > 0 && len(top) > 1 {
		for _, c := range top {
			if c.Score <= 0 {
				continue
			}

			p := c.Score / sum
			entropy -= p * math.Log(p)
		}

		entropy /= math.Log(float64(len(top)))
	}

	return marginWeight*marginTerm + entropyWeight*entropy
}

// IsNovel reports whether the question resembles nothing in the corpus:
// its best fuzzy similarity and best TF-IDF cosine against the corpus
// questions must both fall under their ceilings.
func IsNovel(analyzer *lexicon.Analyzer, question string, corpusQuestions []string) bool {
	bestFuzzy := 0.0

	for _, q := range corpusQuestions {
		if s := predict.Similarity(question, q); s > bestFuzzy {
			bestFuzzy = s
		}
	}

	if bestFuzzy >= fuzzyNoveltyCeiling {
		return false
	}

	vec := rank.NewVectorizer(analyzer, corpusQuestions)

	return vec.MaxCosine(question) < cosineNoveltyCeiling
}

// Priority blends uncertainty with novelty.
func Priority(uncertainty float64, novel bool) float64 {
	n := 0.0
	if novel {
		n = 1.0
	}

	return uncertaintyWeight*uncertainty + noveltyWeight*n
}

// Suggest scores each question and returns suggestions sorted by priority
// descending, ties broken by question ascending.
func Suggest(analyzer *lexicon.Analyzer, corpusQuestions []string, questions []string, candidatesFor func(string) []types.Candidate) []Suggestion {
	out := make([]Suggestion, 0, len(questions))

	for _, q := range questions {
		u := Uncertainty(candidatesFor(q))
		novel := IsNovel(analyzer, q, corpusQuestions)

		out = append(out, Suggestion{
			Question:    q,
			Uncertainty: u,
			Novel:       novel,
			Priority:    Priority(u, novel),
		})
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Priority != out[b].Priority {
			return out[a].Priority > out[b].Priority
		}

		return out[a].Question < out[b].Question
	})

	return out
}
