package main

import (
	"errors"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-importer/internal/importer"
	"github.com/sells-group/lead-importer/internal/service"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Validate the mapping and import leads through an executor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		req, err := requestFromFlags(cmd)
		if err != nil {
			return err
		}

		if exec, _ := cmd.Flags().GetString("executor"); exec != "" {
			cfg.Import.Executor = exec
		}
		if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
			cfg.Import.Executor = "none"
		}

		env, err := initEnv(ctx, "import")
		if err != nil {
			return err
		}
		defer env.Close()

		table, name, err := openTable(ctx, env.Opener, args[0])
		if err != nil {
			return err
		}

		saveAs, _ := cmd.Flags().GetString("save-template")
		res, a, err := env.Service.Import(ctx, table, service.ImportRequest{
			Request:      req,
			FileName:     name,
			Executor:     cfg.Import.Executor,
			SaveTemplate: saveAs,
		})
		if errors.Is(err, importer.ErrMappingInvalid) && a != nil {
			formatValidation(os.Stderr, a.Validation)
			return err
		}
		if err != nil && res == nil {
			return eris.Wrap(err, "import")
		}
		if err != nil {
			zap.L().Warn("import committed but bookkeeping failed", zap.Error(err))
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(os.Stdout, res)
		}
		formatResult(os.Stdout, res)
		if !res.Success {
			return eris.Errorf("import finished with %d failed row(s)", res.FailedLeads)
		}
		return nil
	},
}

func init() {
	addMappingFlags(importCmd)
	importCmd.Flags().String("executor", "", "executor to write with: none, salesforce, notion (default from config)")
	importCmd.Flags().Bool("dry-run", false, "plan and report without writing (same as --executor none)")
	importCmd.Flags().String("save-template", "", "save the final mapping as a named template")
	importCmd.Flags().Bool("json", false, "print the result as JSON")
	rootCmd.AddCommand(importCmd)
}
