package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dwmorris/sqlpilot/internal/schema"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Show the learned schema and inferred join graph",
	Args:  cobra.NoArgs,
	RunE:  runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

func runSchema(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

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

	for _, table := range model.TableNames {
		fmt.Printf("%s\n", table)

		for _, col := range model.Tables[table].Columns {
			info := model.Columns[schema.ColumnKey(table, col)]

			var flags string

			if info.IsNumeric {
				flags += " numeric"
			}

			if info.IsDate {
				flags += " date"
			}

			fmt.Printf("  %s%s\n", col, flags)
		}
	}

	edges := graph.Edges()
	if len(edges) == 0 {
		fmt.Println("\nNo join edges inferred.")
		return nil
	}

	fmt.Println("\nJoins:")

	for _, e := range edges {
		fmt.Printf("  %s.%s -> %s.%s\n", e.SrcTable, e.SrcCol, e.DstTable, e.DstPK)
	}

	return nil
}
