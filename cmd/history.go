package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/lead-importer/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List committed imports",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("store"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		tmpl, _ := cmd.Flags().GetString("template")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		runs, err := st.ListImports(ctx, store.ImportFilter{
			TemplateName: tmpl,
			Limit:        limit,
			Offset:       offset,
		})
		if err != nil {
			return eris.Wrap(err, "history")
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(os.Stdout, runs)
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No imports found.")
			return nil
		}
		formatImports(os.Stdout, runs)
		return nil
	},
}

func init() {
	historyCmd.Flags().String("template", "", "only imports that used this template")
	historyCmd.Flags().Int("limit", 50, "max number of imports to display")
	historyCmd.Flags().Int("offset", 0, "skip this many imports")
	historyCmd.Flags().Bool("json", false, "print as JSON")
	rootCmd.AddCommand(historyCmd)
}
