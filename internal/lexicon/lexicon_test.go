package lexicon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokens(t *testing.T) {
	a := NewAnalyzer()

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "stop words removed",
			input:    "show me the claims in 2024",
			expected: []string{"claims", "2024"},
		},
		{
			name:     "single characters removed",
			input:    "a b claims",
			expected: []string{"claims"},
		},
		{
			name:     "underscores kept",
			input:    "credit_limit by org",
			expected: []string{"credit_limit", "org"},
		},
		{
			name:     "empty input",
			input:    "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, a.Tokens(tt.input))
		})
	}
}

func TestSynonyms(t *testing.T) {
	a := NewAnalyzer()

	syn := a.Synonyms("policy")
	assert.Contains(t, syn, "policy")
	assert.Contains(t, syn, "policies")
	assert.Contains(t, syn, "contract")

	// Plural toggle applies even without a curated entry.
	syn = a.Synonyms("widgets")
	assert.Contains(t, syn, "widget")
}

func TestSynonymsLearned(t *testing.T) {
	a := NewAnalyzer()
	a.SetLearnedSynonyms(map[string][]string{"exposure": {"credit_limit"}})

	assert.Contains(t, a.Synonyms("exposure"), "credit_limit")

	a.SetLearnedSynonyms(nil)
	assert.NotContains(t, a.Synonyms("exposure"), "credit_limit")
}

func TestSingular(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"policies", "policy"},
		{"statuses", "status"},
		{"claims", "claim"},
		{"status", "status"},
		{"gas", "gas"}, // too short to strip
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Singular(tt.input), "input %q", tt.input)
	}
}

func TestSurfaceForms(t *testing.T) {
	forms := SurfaceForms("credit_limit")
	assert.Contains(t, forms, "credit limit")

	forms = SurfaceForms("organizations")
	assert.Contains(t, forms, "organizations")
	assert.Contains(t, forms, "organization")
}

func TestNumbersAndYears(t *testing.T) {
	nums, years := NumbersAndYears("top 10 claims in 2024")
	assert.Equal(t, []int{10}, nums)
	assert.Equal(t, []int{2024}, years)

	nums, years = NumbersAndYears("no digits here")
	assert.Empty(t, nums)
	assert.Empty(t, years)

	// 4-digit numbers outside the year window stay generic.
	nums, years = NumbersAndYears("first 5000 rows")
	assert.Equal(t, []int{5000}, nums)
	assert.Empty(t, years)
}

func TestEntities(t *testing.T) {
	assert.Equal(t, []string{"Acme Insurance"}, Entities("show policies for Acme Insurance"))

	// A lone sentence-initial capital is sentence case, not a value.
	assert.Empty(t, Entities("Show policies"))

	// A multi-word span at the start is still a value.
	assert.Equal(t, []string{"Acme Insurance"}, Entities("Acme Insurance policies"))
}

func TestNormalized(t *testing.T) {
	assert.Equal(t, "how many rows", Normalized("  How   many ROWS?  "))
}
