package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/dwmorris/sqlpilot/internal/active"
	"github.com/dwmorris/sqlpilot/internal/errors"
	"github.com/dwmorris/sqlpilot/internal/generate"
	"github.com/dwmorris/sqlpilot/internal/logging"
	"github.com/dwmorris/sqlpilot/internal/types"
)

var evalFile string

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [question ...]",
	Short: "Rank unlabeled questions by how much labeling them would help",
	Long: `Score candidate questions for labeling value. Uncertain questions, and
questions unlike anything in the corpus, rank first. Questions come from
arguments or one per line from --file.

Examples:
  sqlpilot --demo evaluate "open claims by org" "weird question"
  sqlpilot --demo evaluate --file backlog.txt`,
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringVar(&evalFile, "file", "", "File with one question per line")

	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	questions, err := collectQuestions(args)
	if err != nil {
		return err
	}

	if len(questions) == 0 {
		return fmt.Errorf("no questions given; pass arguments or --file")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	model, graph, err := learnSchema(ctx, cfg, db)
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	gen := generate.New(cfg, store, logging.GetLogger())

	entries := gen.Corpus(model)

	corpusQuestions := make([]string, len(entries))
	for i, e := range entries {
		corpusQuestions[i] = e.Q
	}

	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	sp.Suffix = fmt.Sprintf(" scoring %d question(s)...", len(questions))
	sp.Start()

	suggestions := active.Suggest(gen.Analyzer(), corpusQuestions, questions,
		func(q string) []types.Candidate {
			return gen.Generate(model, graph, q)
		})

	sp.Stop()

	fmt.Println("priority  uncertainty  novel  question")

	for _, s := range suggestions {
		fmt.Printf("%8.3f  %11.3f  %5v  %s\n", s.Priority, s.Uncertainty, s.Novel, s.Question)
	}

	return nil
}

func collectQuestions(args []string) ([]string, error) {
	var out []string

	for _, q := range args {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}

	if evalFile == "" {
		return out, nil
	}

	f, err := os.Open(evalFile)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeFileSystem, "failed to open question file")
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if q := strings.TrimSpace(scanner.Text()); q != "" {
			out = append(out, q)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeFileSystem, "failed to read question file")
	}

	return out, nil
}
