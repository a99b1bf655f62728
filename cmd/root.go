package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dwmorris/sqlpilot/internal/config"
	"github.com/dwmorris/sqlpilot/internal/corpus"
	"github.com/dwmorris/sqlpilot/internal/demo"
	"github.com/dwmorris/sqlpilot/internal/errors"
	"github.com/dwmorris/sqlpilot/internal/join"
	"github.com/dwmorris/sqlpilot/internal/logging"
	"github.com/dwmorris/sqlpilot/internal/schema"
)

var (
	flagDriver string
	flagDSN    string
	flagDemo   bool
)

var rootCmd = &cobra.Command{
	Use:   "sqlpilot",
	Short: "Ask questions of a relational database in plain language",
	Long: `sqlpilot turns natural-language questions into ranked SQL candidates
against a SQLite or DuckDB database. It learns the schema by introspection,
infers join paths from column naming, and improves over time by ingesting
accepted and corrected answers back into its retrieval corpus.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	ctx := context.Background()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		printError(err)
	}

	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDriver, "driver", "", "Database driver: sqlite3 or duckdb (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagDSN, "dsn", "", "Database DSN (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&flagDemo, "demo", false, "Seed an in-memory demo database")
}

// loadConfig resolves configuration from the environment plus flag
// overrides, and initializes the process logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if flagDriver != "" {
		cfg.Database.Driver = flagDriver
	}

	if flagDSN != "" {
		cfg.Database.DSN = flagDSN
	}

	if flagDemo {
		cfg.Database.Driver = "sqlite3"
		cfg.Database.DSN = ":memory:"
	}

	if err := logging.InitializeLogger(cfg.Logging); err != nil {
		return nil, err
	}

	return cfg, nil
}

// openDatabase opens the configured database, seeding the demo schema when
// requested.
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := schema.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	if flagDemo {
		if err := demo.Seed(db); err != nil {
			db.Close()
			return nil, err
		}
	}

	return db, nil
}

// learnSchema introspects the database and infers the join graph.
func learnSchema(ctx context.Context, cfg *config.Config, db *sql.DB) (*schema.Model, *join.Graph, error) {
	learner, err := schema.NewLearner(db, cfg.Database.Driver, cfg.Generate.SampleLimit)
	if err != nil {
		return nil, nil, err
	}

	model, err := learner.Learn(ctx)
	if err != nil {
		return nil, nil, err
	}

	return model, join.Infer(model), nil
}

// openStore resolves the persisted corpus store paths.
func openStore(cfg *config.Config) (*corpus.Store, error) {
	corpusPath, err := cfg.StatePath(cfg.State.UserCorpus)
	if err != nil {
		return nil, err
	}

	synonymsPath, err := cfg.StatePath(cfg.State.Synonyms)
	if err != nil {
		return nil, err
	}

	patternsPath, err := cfg.StatePath(cfg.State.Patterns)
	if err != nil {
		return nil, err
	}

	return corpus.NewStore(corpusPath, synonymsPath, patternsPath), nil
}

func printError(err error) {
	fmt.Printf("Error: %v\n", err)

	var appErr *errors.Error
	if errors.As(err, &appErr) {
		for _, suggestion := range appErr.Suggestions {
			fmt.Printf("  hint: %s\n", suggestion)
		}
	}
}
