// Package rank retrieves corpus entries similar to the question and turns
// them into scored candidates. Retrieval is lexical TF-IDF over the corpus
// questions, widened with cheap paraphrases of the input.
package rank

import (
	"fmt"
	"math"
	"strings"

	"github.com/dwmorris/sqlpilot/internal/corpus"
	"github.com/dwmorris/sqlpilot/internal/lexicon"
	"github.com/dwmorris/sqlpilot/internal/predict"
	"github.com/dwmorris/sqlpilot/internal/types"
)

const (
	baseScore     = 0.78
	rankStep      = 0.04
	freqBoostCap  = 0.08
	freqBoostUnit = 0.03
	agreeBonus    = 0.05
	agreePenalty  = 0.04
)

// Ranker scores retrieved corpus entries for a question.
type Ranker struct {
	analyzer      *lexicon.Analyzer
	topK          int
	paraphraseCap int
}

// NewRanker creates a ranker retrieving at most topK entries, widening the
// query with at most paraphraseCap paraphrases.
func NewRanker(analyzer *lexicon.Analyzer, topK, paraphraseCap int) *Ranker {
	return &Ranker{analyzer: analyzer, topK: topK, paraphraseCap: paraphraseCap}
}

// Rank retrieves the entries most similar to the question and scores them.
// The schema resolution, when it succeeded, nudges entries that mention the
// resolved table up and the rest down.
func (r *Ranker) Rank(entries []corpus.Entry, question string, res predict.Resolution) []types.Candidate {
	if len(entries) == 0 {
		return nil
	}

	docs := make([]string, len(entries))
	for i, e := range entries {
		docs[i] = e.Q
	}

	vec := NewVectorizer(r.analyzer, docs)

	queries := append([]string{question}, Paraphrases(question, r.paraphraseCap)...)

	sims := make([]float64, len(entries))

	for _, q := range queries {
		qv := vec.Transform(q)

		for i := range entries {
			if s := Cosine(qv, vec.Doc(i)); s > sims[i] {
				sims[i] = s
			}
		}
	}

	var out []types.Candidate

	for rankPos, i := range topIndices(sims, r.topK) {
		if sims[i] <= 0 {
			break
		}

		entry := entries[i]

		score := baseScore - rankStep*float64(rankPos)
		score += math.Min(freqBoostCap, freqBoostUnit*math.Log(1+float64(entry.Count)))

		if res.Resolved() {
			if strings.Contains(strings.ToLower(entry.SQL), res.Table) {
				score += agreeBonus
			} else {
				score -= agreePenalty
			}
		}

		out = append(out, types.Candidate{
			SQL:       entry.SQL,
			Score:     score,
			Rationale: fmt.Sprintf("Retriever: similar to %q", entry.Q),
		})
	}

	return out
}
