package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dwmorris/sqlpilot/internal/ingest"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fold new feedback into the retrieval corpus",
	Long: `Read feedback records appended since the last ingest and merge the accepted
question/SQL pairs into the user corpus, mining synonyms and inducing
generalized patterns along the way. Ingest is incremental and safe to run
repeatedly.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	feedbackPath, err := cfg.StatePath(cfg.State.FeedbackLog)
	if err != nil {
		return err
	}

	checkpointPath, err := cfg.StatePath(cfg.State.Checkpoint)
	if err != nil {
		return err
	}

	pipeline := ingest.NewPipeline(feedbackPath, checkpointPath, store)

	result, err := pipeline.Ingest()
	if err != nil {
		return err
	}

	fmt.Printf("Ingested %d new pair(s); corpus now holds %d.\n", result.Added, result.Total)

	return nil
}
