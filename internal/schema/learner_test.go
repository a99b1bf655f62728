package schema

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open("sqlite3", ":memory:")
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE claims (
		claim_id INTEGER PRIMARY KEY,
		policy_id INTEGER NOT NULL,
		claim_number TEXT,
		created_at TEXT,
		amount REAL,
		status TEXT
	)`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO claims VALUES
		(1, 10, 'CLM-1', '2024-01-15', 120.5, 'OPEN'),
		(2, 10, 'CLM-2', '2024-02-20', 90.0, 'OPEN'),
		(3, 11, 'CLM-3', '2025-03-05', 300.0, 'PAID')`)
	require.NoError(t, err)

	return db
}

func TestLearn(t *testing.T) {
	db := testDB(t)

	learner, err := NewLearner(db, "sqlite3", 0)
	require.NoError(t, err)

	model, err := learner.Learn(context.Background())
	require.NoError(t, err)

	require.Equal(t, []string{"claims"}, model.TableNames)
	assert.Equal(t, []string{"claim_id", "policy_id", "claim_number", "created_at", "amount", "status"},
		model.Tables["claims"].Columns)

	amount := model.Columns[ColumnKey("claims", "amount")]
	assert.True(t, amount.IsNumeric)
	assert.False(t, amount.IsDate)

	created := model.Columns[ColumnKey("claims", "created_at")]
	assert.True(t, created.IsDate)

	status := model.Columns[ColumnKey("claims", "status")]
	assert.False(t, status.IsNumeric)
	assert.Contains(t, model.Tables["claims"].Samples["status"], "OPEN")
}

func TestLearnValueIndex(t *testing.T) {
	db := testDB(t)

	learner, err := NewLearner(db, "sqlite3", 0)
	require.NoError(t, err)

	model, err := learner.Learn(context.Background())
	require.NoError(t, err)

	refs := model.LookupValue("open")
	require.NotEmpty(t, refs)
	assert.Equal(t, ColumnRef{Table: "claims", Column: "status"}, refs[0])

	// Numeric samples are not value-indexed.
	assert.Empty(t, model.LookupValue("120.5"))
}

func TestSampleOrderedByFrequency(t *testing.T) {
	db := testDB(t)

	learner, err := NewLearner(db, "sqlite3", 0)
	require.NoError(t, err)

	model, err := learner.Learn(context.Background())
	require.NoError(t, err)

	// OPEN appears twice, PAID once.
	assert.Equal(t, []string{"OPEN", "PAID"}, model.Tables["claims"].Samples["status"])
}

func TestDialectFor(t *testing.T) {
	for _, driver := range []string{"sqlite3", "duckdb"} {
		_, err := DialectFor(driver)
		assert.NoError(t, err, driver)
	}

	_, err := DialectFor("postgres")
	assert.Error(t, err)
}

func TestModelEmpty(t *testing.T) {
	m := NewModel()
	assert.True(t, m.Empty())

	m.TableNames = append(m.TableNames, "claims")
	assert.False(t, m.Empty())
}
