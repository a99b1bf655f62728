package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwmorris/sqlpilot/internal/corpus"
	"github.com/dwmorris/sqlpilot/internal/feedback"
)

type fixture struct {
	pipeline *Pipeline
	store    *corpus.Store
	log      *feedback.Log
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()

	store := corpus.NewStore(
		filepath.Join(dir, "user_corpus.jsonl"),
		filepath.Join(dir, "synonyms.json"),
		filepath.Join(dir, "patterns.jsonl"),
	)

	feedbackPath := filepath.Join(dir, "feedback.jsonl")

	return &fixture{
		pipeline: NewPipeline(feedbackPath, filepath.Join(dir, "ingest.offset"), store),
		store:    store,
		log:      feedback.NewLog(feedbackPath),
	}
}

func TestIngestNoLog(t *testing.T) {
	fx := newFixture(t)

	result, err := fx.pipeline.Ingest()
	require.NoError(t, err)
	assert.Equal(t, Result{}, result)
}

func TestIngestSingleAccepted(t *testing.T) {
	fx := newFixture(t)

	require.NoError(t, fx.log.Append(feedback.Record{
		Question:     "how many rows in claims",
		GeneratedSQL: "SELECT COUNT(*) AS row_count FROM claims",
		Correct:      true,
	}))

	result, err := fx.pipeline.Ingest()
	require.NoError(t, err)
	assert.Equal(t, Result{Added: 1, Total: 1}, result)

	entries, err := fx.store.LoadUserCorpus()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "how many rows in claims", entries[0].Q)
	assert.Equal(t, 1, entries[0].Count)
}

func TestIngestRepeatIsNoop(t *testing.T) {
	fx := newFixture(t)

	require.NoError(t, fx.log.Append(feedback.Record{
		Question:     "open claims",
		GeneratedSQL: "SELECT * FROM claims WHERE status = 'OPEN'",
		Correct:      true,
	}))

	first, err := fx.pipeline.Ingest()
	require.NoError(t, err)
	assert.Equal(t, Result{Added: 1, Total: 1}, first)

	second, err := fx.pipeline.Ingest()
	require.NoError(t, err)
	assert.Equal(t, Result{Added: 0, Total: 1}, second)
}

func TestIngestCorrectedPreferred(t *testing.T) {
	fx := newFixture(t)

	require.NoError(t, fx.log.Append(feedback.Record{
		Question:     "open claims",
		GeneratedSQL: "SELECT * FROM claims",
		Correct:      false,
		CorrectedSQL: "SELECT * FROM claims WHERE status = 'OPEN'",
	}))

	_, err := fx.pipeline.Ingest()
	require.NoError(t, err)

	entries, err := fx.store.LoadUserCorpus()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "SELECT * FROM claims WHERE status = 'OPEN'", entries[0].SQL)
}

func TestIngestRejectedSkipped(t *testing.T) {
	fx := newFixture(t)

	require.NoError(t, fx.log.Append(feedback.Record{
		Question:     "open claims",
		GeneratedSQL: "SELECT * FROM claims",
		Correct:      false,
	}))

	result, err := fx.pipeline.Ingest()
	require.NoError(t, err)
	assert.Equal(t, 0, result.Added)
	assert.Equal(t, 0, result.Total)
}

func TestIngestReinforcesDuplicates(t *testing.T) {
	fx := newFixture(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, fx.log.Append(feedback.Record{
			Question:     "Open Claims",
			GeneratedSQL: "SELECT * FROM claims WHERE status = 'OPEN'",
			Correct:      true,
		}))
	}

	result, err := fx.pipeline.Ingest()
	require.NoError(t, err)
	assert.Equal(t, Result{Added: 3, Total: 1}, result)

	entries, err := fx.store.LoadUserCorpus()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "open claims", entries[0].Q)
	assert.Equal(t, 3, entries[0].Count)
}

func TestIngestIncremental(t *testing.T) {
	fx := newFixture(t)

	require.NoError(t, fx.log.Append(feedback.Record{
		Question: "q one", GeneratedSQL: "SELECT 1 FROM claims", Correct: true,
	}))

	result, err := fx.pipeline.Ingest()
	require.NoError(t, err)
	assert.Equal(t, Result{Added: 1, Total: 1}, result)

	require.NoError(t, fx.log.Append(feedback.Record{
		Question: "q two", GeneratedSQL: "SELECT 2 FROM claims", Correct: true,
	}))

	result, err = fx.pipeline.Ingest()
	require.NoError(t, err)
	assert.Equal(t, Result{Added: 1, Total: 2}, result)
}

func TestIngestLeavesPartialTrailingLine(t *testing.T) {
	fx := newFixture(t)

	require.NoError(t, fx.log.Append(feedback.Record{
		Question: "complete", GeneratedSQL: "SELECT 1 FROM claims", Correct: true,
	}))

	// Simulate a writer caught mid-append: no trailing newline.
	f, err := os.OpenFile(fx.log.Path(), os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)

	_, err = f.WriteString(`{"question":"partial","generated_sql":"SELECT 2 FROM cl`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	result, err := fx.pipeline.Ingest()
	require.NoError(t, err)
	assert.Equal(t, Result{Added: 1, Total: 1}, result)

	// Completing the line makes the record visible to the next pass.
	f, err = os.OpenFile(fx.log.Path(), os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)

	_, err = f.WriteString("aims\",\"correct\":true}\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	result, err = fx.pipeline.Ingest()
	require.NoError(t, err)
	assert.Equal(t, Result{Added: 1, Total: 2}, result)
}

func TestIngestSkipsMalformedLines(t *testing.T) {
	fx := newFixture(t)

	require.NoError(t, os.WriteFile(fx.log.Path(), []byte(
		"not json\n{\"question\":\"ok\",\"generated_sql\":\"SELECT 1 FROM claims\",\"correct\":true}\n"), 0o644))

	result, err := fx.pipeline.Ingest()
	require.NoError(t, err)
	assert.Equal(t, Result{Added: 1, Total: 1}, result)
}

func TestIngestMinesSynonyms(t *testing.T) {
	fx := newFixture(t)

	require.NoError(t, fx.log.Append(feedback.Record{
		Question:     "exposure per policy",
		GeneratedSQL: "SELECT policies.credit_limit FROM policies",
		Correct:      true,
	}))

	_, err := fx.pipeline.Ingest()
	require.NoError(t, err)

	syn, err := fx.store.LoadSynonyms()
	require.NoError(t, err)

	entry, ok := syn["exposure"]
	require.True(t, ok)
	assert.Equal(t, 1, entry.Count)
	assert.Equal(t, 1, entry.MapsTo["policies.credit_limit"])
}

func TestIngestInducesPatterns(t *testing.T) {
	fx := newFixture(t)

	require.NoError(t, fx.log.Append(feedback.Record{
		Question:     "top 10 claims in 2024",
		GeneratedSQL: "SELECT * FROM claims WHERE substr(created_at,1,4)='2024' LIMIT 10",
		Correct:      true,
	}))

	_, err := fx.pipeline.Ingest()
	require.NoError(t, err)

	patterns, err := fx.store.LoadPatterns()
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, "top {K} claims in {YEAR}", patterns[0].QPat)
	assert.Contains(t, patterns[0].SQLPat, "{YEAR}")
	assert.Contains(t, patterns[0].SQLPat, "LIMIT {K}")
}

func TestInduce(t *testing.T) {
	p := Induce("first 5 policies from 2023", "SELECT * FROM policies WHERE substr(inception_date,1,4)='2023' LIMIT 5")

	assert.Equal(t, "first {K} policies from {YEAR}", p.QPat)
	assert.Equal(t, "SELECT * FROM policies WHERE substr(inception_date,1,4)='{YEAR}' LIMIT {K}", p.SQLPat)
}

func TestIngestCorruptCheckpoint(t *testing.T) {
	fx := newFixture(t)

	require.NoError(t, os.WriteFile(fx.pipeline.checkpointPath, []byte("garbage"), 0o644))

	_, err := fx.pipeline.Ingest()
	assert.Error(t, err)
}
