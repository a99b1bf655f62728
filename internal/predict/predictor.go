// Package predict resolves question tokens to (table, column) targets using
// fuzzy lexical similarity plus a learned co-occurrence signal.
package predict

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/dwmorris/sqlpilot/internal/lexicon"
	"github.com/dwmorris/sqlpilot/internal/pmi"
	"github.com/dwmorris/sqlpilot/internal/schema"
)

// Scoring weights. Column matches outweigh table matches; an exact table
// mention overrides fuzzy ambiguity.
const (
	tableWeight   = 0.35
	columnWeight  = 0.8
	hardHintBonus = 0.4
	pmiWeight     = 0.2
)

// Resolution is the best-scoring target for a token set. Column is empty
// for a table-only resolution; Score zero means nothing resolved.
type Resolution struct {
	Table  string
	Column string
	Score  float64
}

// Resolved reports whether a table was found.
func (r Resolution) Resolved() bool {
	return r.Table != ""
}

// Filter is a predicted equality filter.
type Filter struct {
	Table  string
	Column string
	Value  string
}

// Predictor scores schema targets against question tokens.
type Predictor struct {
	analyzer *lexicon.Analyzer
}

// New creates a predictor over the given analyzer.
func New(analyzer *lexicon.Analyzer) *Predictor {
	return &Predictor{analyzer: analyzer}
}

// Similarity is a normalized Levenshtein ratio in [0, 1].
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}

	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}

	if longest == 0 {
		return 0.0
	}

	dist := fuzzy.LevenshteinDistance(a, b)
	if dist > longest {
		dist = longest
	}

	return 1.0 - float64(dist)/float64(longest)
}

// ScoreTableColumn predicts the best (table, column) for the token set.
// Iteration follows schema declaration order so equal scores resolve
// identically across runs. A nil PMI model disables the co-occurrence term.
func (p *Predictor) ScoreTableColumn(m *schema.Model, tokens []string, pmiModel pmi.Model) Resolution {
	hardHint := ""

	for _, t := range m.TableNames {
		singular := lexicon.Singular(t)
		for _, tok := range tokens {
			if tok == t || tok == singular {
				hardHint = t
				break
			}
		}

		if hardHint != "" {
			break
		}
	}

	best := Resolution{}

	for _, t := range m.TableNames {
		info := m.Tables[t]

		tableSurfaces := append([]string{t}, info.Surfaces...)

		tableScore := 0.0

		for _, tok := range tokens {
			tableScore += tableWeight * bestSimilarity(p.analyzer.Synonyms(tok), tableSurfaces)
		}

		if t == hardHint {
			tableScore += hardHintBonus
		}

		for _, c := range info.Columns {
			colInfo := m.Columns[schema.ColumnKey(t, c)]

			colScore := tableScore

			for _, tok := range tokens {
				colScore += columnWeight * bestSimilarity(p.analyzer.Synonyms(tok), colInfo.Surfaces)

				if pmiModel != nil {
					colScore += pmiWeight * pmiModel.Score(tok, t, c)
				}
			}

			if colScore > best.Score {
				best = Resolution{Table: t, Column: c, Score: colScore}
			}
		}

		if tableScore > best.Score {
			best = Resolution{Table: t, Score: tableScore}
		}
	}

	return best
}

// bestSimilarity is the highest similarity across all variant/surface
// pairs.
func bestSimilarity(variants, surfaces []string) float64 {
	best := 0.0

	for _, v := range variants {
		for _, s := range surfaces {
			if sim := Similarity(v, s); sim > best {
				best = sim
			}
		}
	}

	return best
}

// PredictFilters matches entity spans and keyword tokens against the
// value index built during schema learning, returning equality-filter
// candidates with entity matches first, de-duplicated.
func (p *Predictor) PredictFilters(m *schema.Model, question string) []Filter {
	var (
		out  []Filter
		seen = map[Filter]struct{}{}
	)

	add := func(refs []schema.ColumnRef, value string) {
		if len(refs) == 0 {
			return
		}

		f := Filter{Table: refs[0].Table, Column: refs[0].Column, Value: value}
		if _, dup := seen[f]; !dup {
			seen[f] = struct{}{}

			out = append(out, f)
		}
	}

	for _, span := range lexicon.Entities(question) {
		value := strings.ToLower(strings.TrimSpace(span))
		add(m.LookupValue(value), value)
	}

	for _, tok := range p.analyzer.Tokens(question) {
		add(m.LookupValue(tok), tok)
	}

	return out
}

// PredictNumbers extracts the first generic number (a candidate LIMIT
// magnitude) and the first year mentioned in the question.
func PredictNumbers(question string) (k int, year int) {
	nums, years := lexicon.NumbersAndYears(question)

	if len(nums) > 0 {
		k = nums[0]
	}

	if len(years) > 0 {
		year = years[0]
	}

	return k, year
}
