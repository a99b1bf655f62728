// Package corpus holds the durable question-to-query record: static seed
// templates, schema-derived templates, the user-taught corpus with
// frequency counts, and induced generalized patterns.
package corpus

import (
	"fmt"
	"strings"

	"github.com/dwmorris/sqlpilot/internal/schema"
	"github.com/dwmorris/sqlpilot/internal/sqlgen"
)

// Entry is one question-to-query mapping. Count is how many times feedback
// reaffirmed the pair; zero for template entries.
type Entry struct {
	Q     string `json:"q"`
	SQL   string `json:"sql"`
	Count int    `json:"count,omitempty"`
}

// Pattern is a generalized entry with literal years and limit magnitudes
// replaced by placeholders.
type Pattern struct {
	QPat   string `json:"q_pat"`
	SQLPat string `json:"sql_pat"`
}

// SynonymEntry accumulates evidence that a question token maps to schema
// columns. A token becomes a usable alias only once Count reaches the
// promotion threshold.
type SynonymEntry struct {
	MapsTo map[string]int `json:"maps_to"`
	Count  int            `json:"count"`
}

// StaticTemplates seed the retrieval corpus before any schema or feedback
// is available.
var StaticTemplates = []Entry{
	{Q: "how many policies are active", SQL: "SELECT COUNT(*) AS active_policies FROM policies WHERE status='ACTIVE'"},
	{Q: "list top 10 organizations by total credit limit", SQL: "SELECT o.org_name, SUM(p.credit_limit) AS total_limit FROM organizations o JOIN policies p ON p.org_id=o.org_id GROUP BY o.org_name ORDER BY total_limit DESC LIMIT 10"},
	{Q: "show claims for policy", SQL: "SELECT c.claim_number, c.created_at, c.amount, c.status FROM claims c JOIN policies p ON p.policy_id=c.policy_id ORDER BY c.created_at DESC LIMIT 200"},
	{Q: "which policies expired in 2024", SQL: "SELECT policy_number, expiry_date, status FROM policies WHERE substr(expiry_date,1,4) = '2024' ORDER BY expiry_date DESC"},
	{Q: "find organizations in city", SQL: "SELECT org_code, org_name, city, country_code FROM organizations ORDER BY org_name LIMIT 100"},
}

// SchemaDerived materializes one row-count template per table and
// cardinality/aggregation templates per column, deterministically from the
// model. The value-filter templates teach the retriever the vocabulary of
// sampled data.
func SchemaDerived(m *schema.Model) []Entry {
	var items []Entry

	for _, t := range m.TableNames {
		info := m.Tables[t]

		items = append(items, Entry{
			Q:   fmt.Sprintf("how many rows in %s", t),
			SQL: fmt.Sprintf("SELECT COUNT(*) AS row_count FROM %s", t),
		})

		for _, c := range info.Columns {
			colInfo := m.Columns[schema.ColumnKey(t, c)]

			items = append(items,
				Entry{
					Q:   fmt.Sprintf("unique %s in %s", c, t),
					SQL: fmt.Sprintf("SELECT DISTINCT %s FROM %s ORDER BY %s LIMIT 200", c, t, c),
				},
				Entry{
					Q:   fmt.Sprintf("how many %s in %s", c, t),
					SQL: fmt.Sprintf("SELECT COUNT(DISTINCT %s) AS distinct_%s_count FROM %s", c, c, t),
				},
				Entry{
					Q:   fmt.Sprintf("count by %s in %s", c, t),
					SQL: fmt.Sprintf("SELECT %s, COUNT(*) AS n FROM %s GROUP BY %s ORDER BY n DESC LIMIT 200", c, t, c),
				},
			)

			if colInfo.IsNumeric {
				items = append(items,
					Entry{
						Q:   fmt.Sprintf("sum %s in %s", c, t),
						SQL: fmt.Sprintf("SELECT SUM(%s) AS sum_%s FROM %s", c, c, t),
					},
					Entry{
						Q:   fmt.Sprintf("average %s in %s", c, t),
						SQL: fmt.Sprintf("SELECT AVG(%s) AS avg_%s FROM %s", c, c, t),
					},
				)

				if other := firstOtherColumn(info.Columns, c); other != "" {
					items = append(items, Entry{
						Q:   fmt.Sprintf("top 10 %s in %s by %s", other, t, c),
						SQL: fmt.Sprintf("SELECT %s, SUM(%s) AS s FROM %s GROUP BY %s ORDER BY s DESC LIMIT 10", other, c, t, other),
					})
				}
			}

			if colInfo.IsDate {
				for _, year := range []string{"2024", "2025"} {
					items = append(items, Entry{
						Q:   fmt.Sprintf("%s in %s", t, year),
						SQL: fmt.Sprintf("SELECT * FROM %s WHERE substr(%s,1,4)='%s' LIMIT 200", t, c, year),
					})
				}
			}

			for _, v := range sampleHead(info.Samples[c], 5) {
				if len(v) < 2 || len(v) > 40 || colInfo.IsNumeric {
					continue
				}

				items = append(items, Entry{
					Q:   fmt.Sprintf("show %s where %s = %s", t, c, v),
					SQL: fmt.Sprintf("SELECT * FROM %s WHERE LOWER(%s) = '%s' LIMIT 200", t, c, v),
				})
			}
		}
	}

	for i := range items {
		items[i].Q = sqlgen.Normalize(items[i].Q)
		items[i].SQL = sqlgen.Normalize(items[i].SQL)
	}

	return items
}

func firstOtherColumn(cols []string, c string) string {
	for _, other := range cols {
		if other != c {
			return other
		}
	}

	return ""
}

func sampleHead(values []string, n int) []string {
	if len(values) > n {
		values = values[:n]
	}

	var out []string

	for _, v := range values {
		out = append(out, strings.ToLower(sqlgen.Normalize(v)))
	}

	return out
}
