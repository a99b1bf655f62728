// Package executor runs candidate SQL against the live database and
// renders every outcome, including failure, as a tabular result. Candidate
// SQL is speculative, so an execution error is data, not a fault.
package executor

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dwmorris/sqlpilot/internal/sqlgen"
)

// Result is a fully materialized query result.
type Result struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// IsError reports whether the result is the error sentinel.
func (r *Result) IsError() bool {
	return len(r.Columns) == 2 && r.Columns[0] == "error" && r.Columns[1] == "sql"
}

// Run executes the query with a row cap appended when the query carries
// none. Failures come back as a single-row error table.
func Run(ctx context.Context, db *sql.DB, query string, rowLimit int) *Result {
	capped := sqlgen.EnsureLimit(query, rowLimit)

	rows, err := db.QueryContext(ctx, capped)
	if err != nil {
		return errResult(err, capped)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return errResult(err, capped)
	}

	result := &Result{Columns: cols}

	values := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))

	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return errResult(err, capped)
		}

		row := make([]string, len(cols))
		for i, v := range values {
			row[i] = renderValue(v)
		}

		result.Rows = append(result.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return errResult(err, capped)
	}

	return result
}

func errResult(err error, query string) *Result {
	return &Result{
		Columns: []string{"error", "sql"},
		Rows:    [][]string{{err.Error(), query}},
	}
}

func renderValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	default:
		return fmt.Sprintf("%v", x)
	}
}
