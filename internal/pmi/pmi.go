// Package pmi builds a pointwise-mutual-information model over
// (question token, column key) co-occurrences mined from question/query
// pairs.
package pmi

import (
	"math"
	"regexp"
	"strings"

	"github.com/dwmorris/sqlpilot/internal/lexicon"
)

// Pair is one question/query observation.
type Pair struct {
	Question string
	SQL      string
}

// Model maps "token||colkey" to a PMI value; colkey is "table.col" or a
// bare column name.
type Model map[string]float64

var (
	qualifiedColRE = regexp.MustCompile(`(?i)\b([a-z_]\w*)\.([a-z_]\w*)\b`)
	distinctColRE  = regexp.MustCompile(`(?i)\bselect\s+distinct\s+([a-z_]\w*)`)
)

// ColumnsFromSQL extracts column keys referenced by a query: qualified
// "table.col" pairs plus the column of a leading SELECT DISTINCT.
func ColumnsFromSQL(sql string) []string {
	var (
		out  []string
		seen = map[string]struct{}{}
	)

	add := func(key string) {
		key = strings.ToLower(key)
		if _, dup := seen[key]; !dup {
			seen[key] = struct{}{}

			out = append(out, key)
		}
	}

	for _, match := range qualifiedColRE.FindAllStringSubmatch(sql, -1) {
		add(match[1] + "." + match[2])
	}

	for _, match := range distinctColRE.FindAllStringSubmatch(sql, -1) {
		add(match[1])
	}

	return out
}

// Build computes add-1-smoothed PMI over token/column co-occurrences.
// Tokens or columns seen fewer than minDF times are dropped.
func Build(corpus []Pair, minDF int) Model {
	type pairKey struct{ tok, col string }

	var (
		tokenDF = map[string]int{}
		colDF   = map[string]int{}
		pairDF  = map[pairKey]int{}
		n       = 0
	)

	for _, item := range corpus {
		toks := uniqueStrings(lexicon.RawTokens(item.Question))
		cols := ColumnsFromSQL(item.SQL)

		if len(toks) == 0 || len(cols) == 0 {
			continue
		}

		n++

		for _, t := range toks {
			tokenDF[t]++
		}

		for _, c := range cols {
			colDF[c]++
		}

		for _, t := range toks {
			for _, c := range cols {
				pairDF[pairKey{t, c}]++
			}
		}
	}

	model := Model{}
	if n == 0 {
		return model
	}

	for key, nPair := range pairDF {
		if tokenDF[key.tok] < minDF || colDF[key.col] < minDF {
			continue
		}

		pTok := float64(tokenDF[key.tok]+1) / float64(n+1)
		pCol := float64(colDF[key.col]+1) / float64(n+1)
		pBoth := float64(nPair+1) / float64(n+1)

		model[key.tok+"||"+key.col] = math.Log(pBoth / (pTok * pCol))
	}

	return model
}

// Score looks up PMI(token, "table.column"), backing off to
// PMI(token, "column").
func (m Model) Score(token, table, column string) float64 {
	token = strings.ToLower(token)

	if v, ok := m[token+"||"+table+"."+column]; ok {
		return v
	}

	return m[token+"||"+column]
}

func uniqueStrings(xs []string) []string {
	seen := map[string]struct{}{}

	var out []string

	for _, x := range xs {
		if _, dup := seen[x]; !dup {
			seen[x] = struct{}{}

			out = append(out, x)
		}
	}

	return out
}
