package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/dwmorris/sqlpilot/internal/executor"
	"github.com/dwmorris/sqlpilot/internal/generate"
	"github.com/dwmorris/sqlpilot/internal/logging"
)

var (
	askTop     int
	askExecute bool
	askAll     bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Generate ranked SQL candidates for a natural-language question",
	Long: `Generate SQL candidates for a question and optionally execute the best one.

Examples:
  sqlpilot --demo ask "how many rows in claims"
  sqlpilot --demo ask --execute "unique status in claims"
  sqlpilot --demo ask --top 5 "top 10 organizations with highest user counts"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVar(&askTop, "top", 3, "Number of candidates to show")
	askCmd.Flags().BoolVar(&askExecute, "execute", false, "Execute the best candidate")
	askCmd.Flags().BoolVar(&askAll, "all", false, "Show every candidate")

	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := logging.GetLogger()

	question := strings.TrimSpace(args[0])
	if question == "" {
		return fmt.Errorf("question must not be empty")
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

	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	sp.Suffix = " learning schema..."
	sp.Start()

	model, graph, err := learnSchema(ctx, cfg, db)

	sp.Stop()

	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	logger.Debugf("Generating candidates for: %s", question)

	gen := generate.New(cfg, store, logger)
	cands := gen.Generate(model, graph, question)

	shown := askTop
	if askAll || shown > len(cands) {
		shown = len(cands)
	}

	for i := 0; i < shown; i++ {
		c := cands[i]
		fmt.Printf("%d. [%.2f] %s\n   %s\n", i+1, c.Score, c.Rationale, c.SQL)
	}

	if !askExecute {
		return nil
	}

	fmt.Println()

	result := executor.Run(ctx, db, cands[0].SQL, cfg.Generate.RowLimit)
	printResult(result)

	return nil
}

func printResult(result *executor.Result) {
	fmt.Println(strings.Join(result.Columns, " | "))

	for _, row := range result.Rows {
		fmt.Println(strings.Join(row, " | "))
	}

	fmt.Printf("(%d rows)\n", len(result.Rows))
}
