// Package rules recognizes a fixed battery of question intents and
// synthesizes direct SQL candidates for the ones whose table and column
// targets resolve. A rule that cannot resolve simply declines; absence of
// a candidate is the signal, not an error.
package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dwmorris/sqlpilot/internal/join"
	"github.com/dwmorris/sqlpilot/internal/lexicon"
	"github.com/dwmorris/sqlpilot/internal/pmi"
	"github.com/dwmorris/sqlpilot/internal/predict"
	"github.com/dwmorris/sqlpilot/internal/schema"
	"github.com/dwmorris/sqlpilot/internal/sqlgen"
	"github.com/dwmorris/sqlpilot/internal/types"
)

// Fixed rule scores. The unique/distinct intent outranks the rest because
// it is the most specific, least ambiguous pattern.
const (
	scoreUnique        = 0.96
	scoreCountDistinct = 0.95
	scoreCountRows     = 0.94
	scoreTopKJoin      = 0.93
	scoreTopKBy        = 0.90
	scoreYearFilter    = 0.89
	scoreShowList      = 0.88
)

var (
	reCountRows     = regexp.MustCompile(`(?i)\bhow many (rows|records|entries) in ([a-z0-9_ ]+)\b`)
	reCountDistinct = regexp.MustCompile(`(?i)\bhow many ([a-z0-9_ ]+?) in ([a-z0-9_ ]+)\b`)
	reUnique        = regexp.MustCompile(`(?i)\b(unique|distinct) ([a-z0-9_ ]+?) in ([a-z0-9_ ]+)\b`)
	reTopKBy        = regexp.MustCompile(`(?i)\btop\s+(\d+)\s+([a-z0-9_ ]+?)\s+in\s+([a-z0-9_ ]+?)\s+by\s+([a-z0-9_ ]+)\b`)
	reTopKHighest   = regexp.MustCompile(`(?i)\btop\s+(\d+)\s+([a-z0-9_ ]+?)\s+with\s+(?:the\s+)?(?:highest|most|largest)\s+([a-z0-9_ ]+)\b`)
	reYearMention   = regexp.MustCompile(`(?i)\b([a-z0-9_]+)\s+in\s+((?:19|20)\d{2})\b`)
	reShowList      = regexp.MustCompile(`(?i)\b(show|list)\b`)
)

var countIntentTokens = map[string]struct{}{
	"count": {}, "counts": {}, "number": {},
}

// Extractor synthesizes rule-based candidates.
type Extractor struct {
	analyzer  *lexicon.Analyzer
	predictor *predict.Predictor
}

// New creates an extractor sharing the pipeline's analyzer and predictor.
func New(analyzer *lexicon.Analyzer, predictor *predict.Predictor) *Extractor {
	return &Extractor{analyzer: analyzer, predictor: predictor}
}

// Extract runs every intent pattern against the question and returns the
// candidates whose resolution succeeded.
func (e *Extractor) Extract(m *schema.Model, g *join.Graph, question string, pmiModel pmi.Model) []types.Candidate {
	if m.Empty() {
		return nil
	}

	var out []types.Candidate

	countedRows := false

	if m2 := reCountRows.FindStringSubmatch(question); m2 != nil {
		if c, ok := e.countRows(m, m2[2], pmiModel); ok {
			out = append(out, c)

			countedRows = true
		}
	}

	if !countedRows {
		if m2 := reCountDistinct.FindStringSubmatch(question); m2 != nil {
			if c, ok := e.countDistinct(m, m2[1], m2[2], pmiModel); ok {
				out = append(out, c)
			}
		}
	}

	if m2 := reUnique.FindStringSubmatch(question); m2 != nil {
		if c, ok := e.uniqueValues(m, m2[2], m2[3], pmiModel); ok {
			out = append(out, c)
		}
	}

	if m2 := reTopKBy.FindStringSubmatch(question); m2 != nil {
		if c, ok := e.topKBy(m, m2[1], m2[2], m2[3], m2[4], pmiModel); ok {
			out = append(out, c)
		}
	}

	if m2 := reTopKHighest.FindStringSubmatch(question); m2 != nil {
		if c, ok := e.topKJoin(m, g, m2[1], m2[2], m2[3], pmiModel); ok {
			out = append(out, c)
		}
	}

	if m2 := reYearMention.FindStringSubmatch(question); m2 != nil {
		if c, ok := e.yearFilter(m, m2[1], m2[2], pmiModel); ok {
			out = append(out, c)
		}
	}

	if reShowList.MatchString(question) {
		if c, ok := e.showList(m, question, pmiModel); ok {
			out = append(out, c)
		}
	}

	return out
}

func (e *Extractor) countRows(m *schema.Model, tablePhrase string, pmiModel pmi.Model) (types.Candidate, bool) {
	res := e.predictor.ScoreTableColumn(m, e.analyzer.Tokens(tablePhrase), pmiModel)
	if !res.Resolved() {
		return types.Candidate{}, false
	}

	stmt := sqlgen.Statement{
		Select: []string{"COUNT(*) AS row_count"},
		From:   res.Table,
	}

	return types.Candidate{
		SQL:       stmt.SQL(),
		Score:     scoreCountRows,
		Rationale: "Rule: count rows in table",
	}, true
}

func (e *Extractor) countDistinct(m *schema.Model, colPhrase, tablePhrase string, pmiModel pmi.Model) (types.Candidate, bool) {
	tokens := append(e.analyzer.Tokens(colPhrase), e.analyzer.Tokens(tablePhrase)...)

	res := e.predictor.ScoreTableColumn(m, tokens, pmiModel)
	if !res.Resolved() || res.Column == "" {
		return types.Candidate{}, false
	}

	col := categoricalPreference(m, res.Table, res.Column)

	stmt := sqlgen.Statement{
		Select: []string{fmt.Sprintf("COUNT(DISTINCT %s) AS distinct_%s_count", col, col)},
		From:   res.Table,
	}

	return types.Candidate{
		SQL:       stmt.SQL(),
		Score:     scoreCountDistinct,
		Rationale: "Rule: count distinct column in table",
	}, true
}

func (e *Extractor) uniqueValues(m *schema.Model, colPhrase, tablePhrase string, pmiModel pmi.Model) (types.Candidate, bool) {
	tokens := append(e.analyzer.Tokens(colPhrase), e.analyzer.Tokens(tablePhrase)...)

	res := e.predictor.ScoreTableColumn(m, tokens, pmiModel)
	if !res.Resolved() || res.Column == "" {
		return types.Candidate{}, false
	}

	col := categoricalPreference(m, res.Table, res.Column)

	stmt := sqlgen.Statement{
		Distinct: true,
		Select:   []string{col},
		From:     res.Table,
		OrderBy:  []string{col},
	}

	return types.Candidate{
		SQL:       stmt.SQL(),
		Score:     scoreUnique,
		Rationale: "Rule: unique/distinct values",
	}, true
}

func (e *Extractor) topKBy(m *schema.Model, k, groupPhrase, tablePhrase, metricPhrase string, pmiModel pmi.Model) (types.Candidate, bool) {
	groupRes := e.predictor.ScoreTableColumn(m,
		append(e.analyzer.Tokens(groupPhrase), e.analyzer.Tokens(tablePhrase)...), pmiModel)
	metricRes := e.predictor.ScoreTableColumn(m,
		append(e.analyzer.Tokens(metricPhrase), e.analyzer.Tokens(tablePhrase)...), pmiModel)

	if !groupRes.Resolved() || !metricRes.Resolved() ||
		groupRes.Table != metricRes.Table ||
		groupRes.Column == "" || metricRes.Column == "" {
		return types.Candidate{}, false
	}

	limit := atoiOr(k, 10)

	stmt := sqlgen.Statement{
		Select:  []string{groupRes.Column, fmt.Sprintf("SUM(%s) AS s", metricRes.Column)},
		From:    groupRes.Table,
		GroupBy: []string{groupRes.Column},
		OrderBy: []string{"s DESC"},
		Limit:   limit,
	}

	return types.Candidate{
		SQL:       stmt.SQL(),
		Score:     scoreTopKBy,
		Rationale: "Rule: top-K by aggregate",
	}, true
}

// topKJoin handles the cross-table intent "top K <entity> with highest
// <metric>": resolve the entity table, resolve the metric as either a
// lexical count or a SUM over a resolved numeric column, find a join path
// in either direction, and aggregate across the join grouped by the
// entity's primary key.
func (e *Extractor) topKJoin(m *schema.Model, g *join.Graph, k, entityPhrase, metricPhrase string, pmiModel pmi.Model) (types.Candidate, bool) {
	entityRes := e.predictor.ScoreTableColumn(m, e.analyzer.Tokens(entityPhrase), pmiModel)
	if !entityRes.Resolved() {
		return types.Candidate{}, false
	}

	entity := entityRes.Table

	metricTokens := e.analyzer.Tokens(metricPhrase)

	countIntent := false

	var resolveTokens []string

	for _, tok := range metricTokens {
		if _, ok := countIntentTokens[tok]; ok {
			countIntent = true
		} else {
			resolveTokens = append(resolveTokens, tok)
		}
	}

	if !countIntent {
		resolveTokens = metricTokens
	}

	metricRes := e.predictor.ScoreTableColumn(m, resolveTokens, pmiModel)
	if !metricRes.Resolved() || metricRes.Table == entity {
		return types.Candidate{}, false
	}

	metricTable := metricRes.Table

	if !countIntent {
		key := schema.ColumnKey(metricTable, metricRes.Column)
		if metricRes.Column == "" || !m.Columns[key].IsNumeric {
			return types.Candidate{}, false
		}
	}

	path, ok := g.FindPath(metricTable, entity)
	if !ok {
		path, ok = g.FindPath(entity, metricTable)
	}

	if !ok || len(path) == 0 {
		return types.Candidate{}, false
	}

	pk := join.PrimaryKey(m, entity)
	if pk == "" {
		return types.Candidate{}, false
	}

	groupCols := []string{entity + "." + pk}
	if label := labelColumn(m, entity); label != "" && label != pk {
		groupCols = append(groupCols, entity+"."+label)
	}

	var metricExpr, metricAlias string

	if countIntent {
		metricAlias = lexicon.Singular(metricTable) + "_count"
		metricExpr = "COUNT(*) AS " + metricAlias
	} else {
		metricAlias = "s"
		metricExpr = fmt.Sprintf("SUM(%s.%s) AS s", metricTable, metricRes.Column)
	}

	stmt := sqlgen.Statement{
		Select:  append(append([]string{}, groupCols...), metricExpr),
		From:    path[0].SrcTable,
		GroupBy: groupCols,
		OrderBy: []string{metricAlias + " DESC"},
		Limit:   atoiOr(k, 10),
	}

	for _, edge := range path {
		stmt.Joins = append(stmt.Joins, sqlgen.Join{
			Table: edge.DstTable,
			On:    fmt.Sprintf("%s.%s = %s.%s", edge.SrcTable, edge.SrcCol, edge.DstTable, edge.DstPK),
		})
	}

	return types.Candidate{
		SQL:       stmt.SQL(),
		Score:     scoreTopKJoin,
		Rationale: "Rule: top-K via join",
	}, true
}

func (e *Extractor) yearFilter(m *schema.Model, tablePhrase, year string, pmiModel pmi.Model) (types.Candidate, bool) {
	res := e.predictor.ScoreTableColumn(m, e.analyzer.Tokens(tablePhrase), pmiModel)
	if !res.Resolved() {
		return types.Candidate{}, false
	}

	dateCol := firstDateColumn(m, res.Table)
	if dateCol == "" {
		return types.Candidate{}, false
	}

	stmt := sqlgen.Statement{
		From:  res.Table,
		Where: []string{fmt.Sprintf("substr(%s,1,4) = '%s'", dateCol, year)},
	}

	return types.Candidate{
		SQL:       stmt.SQL(),
		Score:     scoreYearFilter,
		Rationale: "Rule: year filter",
	}, true
}

func (e *Extractor) showList(m *schema.Model, question string, pmiModel pmi.Model) (types.Candidate, bool) {
	res := e.predictor.ScoreTableColumn(m, e.analyzer.Tokens(question), pmiModel)
	if !res.Resolved() {
		return types.Candidate{}, false
	}

	var where []string

	for _, f := range e.predictor.PredictFilters(m, question) {
		if f.Table == res.Table {
			where = append(where, fmt.Sprintf("LOWER(%s) = '%s'", f.Column, f.Value))
		}
	}

	if _, year := predict.PredictNumbers(question); year != 0 {
		if dateCol := firstDateColumn(m, res.Table); dateCol != "" {
			where = append(where, fmt.Sprintf("substr(%s,1,4) = '%d'", dateCol, year))
		}
	}

	stmt := sqlgen.Statement{
		From:  res.Table,
		Where: where,
	}

	return types.Candidate{
		SQL:       stmt.SQL(),
		Score:     scoreShowList,
		Rationale: "Rule: show/list with inferred filters",
	}, true
}

// categoricalPreference steers identifier-like resolutions toward a
// categorical column: among non-identifier columns prefer the one with the
// fewest distinct sampled values.
func categoricalPreference(m *schema.Model, table, col string) string {
	if !identifierLike(col) {
		return col
	}

	info := m.Tables[table]

	best := ""
	bestN := int(^uint(0) >> 1)

	for _, c := range info.Columns {
		if identifierLike(c) {
			continue
		}

		n := len(info.Samples[c])
		if n > 0 && n < bestN {
			best = c
			bestN = n
		}
	}

	if best == "" {
		return col
	}

	return best
}

// labelColumn picks a human-readable companion column for a grouped
// primary key.
func labelColumn(m *schema.Model, table string) string {
	info := m.Tables[table]

	preferred := []string{lexicon.Singular(table) + "_name", "name", "org_name", "username", "title", "label"}

	for _, want := range preferred {
		for _, c := range info.Columns {
			if c == want {
				return c
			}
		}
	}

	for _, c := range info.Columns {
		if strings.HasSuffix(c, "name") {
			return c
		}
	}

	return ""
}

func identifierLike(col string) bool {
	lower := strings.ToLower(col)
	return strings.HasSuffix(lower, "id") || strings.HasSuffix(lower, "number")
}

func firstDateColumn(m *schema.Model, table string) string {
	for _, c := range m.Tables[table].Columns {
		if m.Columns[schema.ColumnKey(table, c)].IsDate {
			return c
		}
	}

	return ""
}

func atoiOr(s string, fallback int) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return fallback
		}

		n = n*10 + int(r-'0')
	}

	if n <= 0 {
		return fallback
	}

	return n
}
