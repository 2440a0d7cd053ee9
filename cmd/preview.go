package main

import (
	"os"

	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:   "preview <file>",
	Short: "Show transformed values and validation for the first rows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		req, err := requestFromFlags(cmd)
		if err != nil {
			return err
		}
		if rows, _ := cmd.Flags().GetInt("rows"); rows > 0 {
			cfg.Import.PreviewRows = rows
		}

		env, err := initEnv(ctx, "analyze")
		if err != nil {
			return err
		}
		defer env.Close()

		table, _, err := openTable(ctx, env.Opener, args[0])
		if err != nil {
			return err
		}

		a, err := env.Service.Analyze(ctx, table, req)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(os.Stdout, map[string]any{
				"preview":    a.Preview,
				"validation": a.Validation,
			})
		}
		formatPreview(os.Stdout, a.Preview)
		formatValidation(os.Stdout, a.Validation)
		return nil
	},
}

func init() {
	addMappingFlags(previewCmd)
	previewCmd.Flags().Int("rows", 0, "number of rows to preview (default from config)")
	previewCmd.Flags().Bool("json", false, "print the preview as JSON")
	rootCmd.AddCommand(previewCmd)
}
