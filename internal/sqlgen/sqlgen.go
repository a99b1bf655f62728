// Package sqlgen builds SQL from small structured fragments so invariants
// like "at most one LIMIT clause" hold by construction rather than by
// string search.
package sqlgen

import (
	"fmt"
	"regexp"
	"strings"
)

// Join is one JOIN clause fragment.
type Join struct {
	Table string
	On    string
}

// Statement is a structured SELECT under assembly. Limit zero means no
// LIMIT clause; the renderer emits at most one.
type Statement struct {
	Distinct bool
	Select   []string
	From     string
	Joins    []Join
	Where    []string
	GroupBy  []string
	OrderBy  []string
	Limit    int
}

// SQL renders the statement.
func (s *Statement) SQL() string {
	var b strings.Builder

	b.WriteString("SELECT ")

	if s.Distinct {
		b.WriteString("DISTINCT ")
	}

	if len(s.Select) == 0 {
		b.WriteString("*")
	} else {
		b.WriteString(strings.Join(s.Select, ", "))
	}

	b.WriteString(" FROM ")
	b.WriteString(s.From)

	for _, j := range s.Joins {
		b.WriteString(" JOIN ")
		b.WriteString(j.Table)
		b.WriteString(" ON ")
		b.WriteString(j.On)
	}

	if len(s.Where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(s.Where, " AND "))
	}

	if len(s.GroupBy) > 0 {
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(s.GroupBy, ", "))
	}

	if len(s.OrderBy) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(s.OrderBy, ", "))
	}

	if s.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", s.Limit)
	}

	return b.String()
}

var limitRE = regexp.MustCompile(`(?i)\blimit\s+\d+\b`)

// HasLimit reports whether the query already contains a LIMIT clause
// (case-insensitive).
func HasLimit(sql string) bool {
	return limitRE.MatchString(sql)
}

var aggregateFns = []string{"count(", "sum(", "avg("}

// EnsureLimit appends LIMIT n unless the query already has one or is an
// aggregate, where a row cap is pointless.
func EnsureLimit(sql string, n int) string {
	s := strings.TrimSuffix(strings.TrimSpace(sql), ";")
	lower := strings.ToLower(s)

	if HasLimit(lower) || strings.HasSuffix(lower, " limit") {
		return s
	}

	for _, fn := range aggregateFns {
		if strings.Contains(lower, fn) {
			return s
		}
	}

	return fmt.Sprintf("%s LIMIT %d", s, n)
}

var whitespaceRE = regexp.MustCompile(`\s+`)

// Normalize collapses whitespace, the deduplication key for candidates and
// corpus entries.
func Normalize(sql string) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(sql, " "))
}
