package pmi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumnsFromSQL(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		expected []string
	}{
		{
			name:     "qualified columns",
			sql:      "SELECT c.amount FROM claims c JOIN policies p ON p.policy_id = c.policy_id",
			expected: []string{"c.amount", "p.policy_id", "c.policy_id"},
		},
		{
			name:     "select distinct",
			sql:      "SELECT DISTINCT status FROM claims",
			expected: []string{"status"},
		},
		{
			name:     "no references",
			sql:      "SELECT COUNT(*) FROM claims",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ColumnsFromSQL(tt.sql))
		})
	}
}

func TestBuildAndScore(t *testing.T) {
	pairs := []Pair{
		{Question: "open claims by amount", SQL: "SELECT claims.amount FROM claims WHERE claims.status='OPEN'"},
		{Question: "claims amount total", SQL: "SELECT SUM(claims.amount) FROM claims"},
		{Question: "policy status", SQL: "SELECT policies.status FROM policies"},
	}

	m := Build(pairs, 1)
	assert.NotEmpty(t, m)

	// "amount" co-occurs with claims.amount in both claims questions.
	assert.Greater(t, m.Score("amount", "claims", "amount"), 0.0)

	// A token never paired with the column scores zero.
	assert.Equal(t, 0.0, m.Score("zebra", "claims", "amount"))
}

func TestBuildMinDF(t *testing.T) {
	pairs := []Pair{
		{Question: "open claims", SQL: "SELECT claims.status FROM claims"},
	}

	// Everything appears once; a threshold of 2 filters it all out.
	assert.Empty(t, Build(pairs, 2))
}

func TestBuildEmpty(t *testing.T) {
	assert.Empty(t, Build(nil, 1))
	assert.Empty(t, Build([]Pair{{Question: "hello", SQL: "SELECT 1"}}, 1))
}
