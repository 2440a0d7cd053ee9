package main

import (
	"os"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Infer column types and suggest field mappings for a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		req, err := requestFromFlags(cmd)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, "analyze")
		if err != nil {
			return err
		}
		defer env.Close()

		table, name, err := openTable(ctx, env.Opener, args[0])
		if err != nil {
			return err
		}

		a, err := env.Service.Analyze(ctx, table, req)
		if err != nil {
			return err
		}
		a.File = name

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(os.Stdout, a)
		}
		formatAnalysis(os.Stdout, a)
		return nil
	},
}

func init() {
	addMappingFlags(analyzeCmd)
	analyzeCmd.Flags().Bool("json", false, "print the analysis as JSON")
	rootCmd.AddCommand(analyzeCmd)
}
