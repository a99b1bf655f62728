package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectQuestionsArgs(t *testing.T) {
	evalFile = ""

	out, err := collectQuestions([]string{" open claims ", "", "top 10 orgs"})
	require.NoError(t, err)
	assert.Equal(t, []string{"open claims", "top 10 orgs"}, out)
}

func TestCollectQuestionsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.txt")
	require.NoError(t, os.WriteFile(path, []byte("first question\n\n  second question  \n"), 0o644))

	evalFile = path
	defer func() { evalFile = "" }()

	out, err := collectQuestions([]string{"from args"})
	require.NoError(t, err)
	assert.Equal(t, []string{"from args", "first question", "second question"}, out)
}

func TestCollectQuestionsMissingFile(t *testing.T) {
	evalFile = filepath.Join(t.TempDir(), "missing.txt")
	defer func() { evalFile = "" }()

	_, err := collectQuestions(nil)
	assert.Error(t, err)
}
