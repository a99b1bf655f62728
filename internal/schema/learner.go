package schema

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/dwmorris/sqlpilot/internal/errors"
	"github.com/dwmorris/sqlpilot/internal/lexicon"
	"github.com/dwmorris/sqlpilot/internal/logging"
)

// DefaultSampleLimit bounds the per-column value sample.
const DefaultSampleLimit = 40

var isoDateRE = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

var numericStems = []string{"amount", "count", "total", "sum", "limit", "price", "cost", "qty", "quantity", "num", "size", "balance"}

var dateSuffixes = []string{"_date", "_at", "date"}

// Learner introspects a live database into a Model.
type Learner struct {
	db          *sql.DB
	dialect     Dialect
	sampleLimit int
	logger      *logging.Logger
}

// NewLearner creates a learner for the given handle and driver name.
func NewLearner(db *sql.DB, driver string, sampleLimit int) (*Learner, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}

	if sampleLimit <= 0 {
		sampleLimit = DefaultSampleLimit
	}

	return &Learner{
		db:          db,
		dialect:     dialect,
		sampleLimit: sampleLimit,
		logger:      logging.GetLogger(),
	}, nil
}

// Learn builds the schema model: tables in deterministic order, columns in
// declaration order, most-frequent sampled values, surface forms, and
// numeric/date hints. A column whose sampling query fails yields an empty
// sample rather than aborting introspection.
func (l *Learner) Learn(ctx context.Context) (*Model, error) {
	tables, err := l.dialect.Tables(ctx, l.db)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeSchema, "table enumeration failed")
	}

	model := NewModel()

	for _, table := range tables {
		cols, err := l.dialect.TableColumns(ctx, l.db, table)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrTypeSchema, "column enumeration failed for %s", table)
		}

		info := TableInfo{
			Columns:  cols,
			Surfaces: lexicon.SurfaceForms(table),
			Samples:  map[string][]string{},
		}

		for _, col := range cols {
			values, numericSample := l.sampleColumn(ctx, table, col)
			info.Samples[col] = values

			for _, v := range values {
				key := strings.ToLower(strings.TrimSpace(v))
				if key != "" && !numericSample {
					model.IndexValue(key, table, col)
				}
			}

			model.Columns[ColumnKey(table, col)] = ColumnInfo{
				Surfaces:  columnSurfaces(col),
				IsNumeric: numericSample || hasNumericName(col),
				IsDate:    hasDateSample(values) || hasDateName(col),
			}
		}

		model.TableNames = append(model.TableNames, table)
		model.Tables[table] = info
	}

	l.logger.Debugf("learned schema: %d tables, %d columns", len(model.TableNames), len(model.Columns))

	return model, nil
}

// sampleColumn fetches up to sampleLimit most-frequent non-null values,
// ties broken by value for determinism. The second result reports whether
// the driver returned numeric values.
func (l *Learner) sampleColumn(ctx context.Context, table, col string) ([]string, bool) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s IS NOT NULL GROUP BY %s ORDER BY COUNT(*) DESC, %s LIMIT %d",
		col, table, col, col, col, l.sampleLimit)

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		l.logger.WithError(err).Debugf("sampling failed for %s.%s", table, col)
		return nil, false
	}
	defer rows.Close()

	var (
		values  []string
		numeric bool
	)

	for rows.Next() {
		var raw interface{}
		if err := rows.Scan(&raw); err != nil {
			return values, numeric
		}

		switch v := raw.(type) {
		case int64:
			numeric = true

			values = append(values, fmt.Sprintf("%d", v))
		case float64:
			numeric = true

			values = append(values, fmt.Sprintf("%g", v))
		case []byte:
			values = append(values, string(v))
		case string:
			values = append(values, v)
		case bool:
			values = append(values, fmt.Sprintf("%t", v))
		default:
			if raw != nil {
				values = append(values, fmt.Sprintf("%v", raw))
			}
		}
	}

	return values, numeric
}

func columnSurfaces(col string) []string {
	seen := map[string]struct{}{col: {}}
	for _, s := range lexicon.SurfaceForms(col) {
		seen[s] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}

	sort.Strings(out)

	return out
}

func hasNumericName(col string) bool {
	lower := strings.ToLower(col)
	for _, stem := range numericStems {
		if strings.Contains(lower, stem) {
			return true
		}
	}

	return false
}

func hasDateName(col string) bool {
	lower := strings.ToLower(col)
	for _, suffix := range dateSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}

	return false
}

func hasDateSample(values []string) bool {
	limit := len(values)
	if limit > 10 {
		limit = 10
	}

	for _, v := range values[:limit] {
		if isoDateRE.MatchString(v) {
			return true
		}
	}

	return false
}
