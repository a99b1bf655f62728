package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dwmorris/sqlpilot/internal/feedback"
)

var (
	fbQuestion  string
	fbSQL       string
	fbCorrect   bool
	fbCorrected string
	fbNote      string
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Record whether a generated answer was right, with an optional correction",
	Long: `Append a feedback record to the local log. Ingest later folds accepted and
corrected answers back into the retrieval corpus.

Examples:
  sqlpilot feedback --question "how many rows in claims" \
    --sql "SELECT COUNT(*) AS row_count FROM claims" --correct
  sqlpilot feedback --question "open claims" \
    --sql "SELECT * FROM claims" \
    --corrected-sql "SELECT * FROM claims WHERE status = 'OPEN'"`,
	Args: cobra.NoArgs,
	RunE: runFeedback,
}

func init() {
	feedbackCmd.Flags().StringVar(&fbQuestion, "question", "", "The question that was asked (required)")
	feedbackCmd.Flags().StringVar(&fbSQL, "sql", "", "The SQL that was generated (required)")
	feedbackCmd.Flags().BoolVar(&fbCorrect, "correct", false, "Mark the generated SQL as correct")
	feedbackCmd.Flags().StringVar(&fbCorrected, "corrected-sql", "", "The SQL that should have been generated")
	feedbackCmd.Flags().StringVar(&fbNote, "note", "", "Free-form note")

	rootCmd.AddCommand(feedbackCmd)
}

func runFeedback(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	question := strings.TrimSpace(fbQuestion)
	generated := strings.TrimSpace(fbSQL)

	if question == "" || generated == "" {
		return fmt.Errorf("--question and --sql are required")
	}

	if !fbCorrect && strings.TrimSpace(fbCorrected) == "" {
		return fmt.Errorf("pass --correct or provide --corrected-sql")
	}

	path, err := cfg.StatePath(cfg.State.FeedbackLog)
	if err != nil {
		return err
	}

	log := feedback.NewLog(path)

	err = log.Append(feedback.Record{
		Question:     question,
		GeneratedSQL: generated,
		Correct:      fbCorrect,
		CorrectedSQL: strings.TrimSpace(fbCorrected),
		Note:         strings.TrimSpace(fbNote),
	})
	if err != nil {
		return err
	}

	fmt.Printf("Recorded feedback in %s\n", path)

	return nil
}
