package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage saved import templates",
}

// -- template list --

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved templates",
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

		templates, err := st.ListTemplates(ctx)
		if err != nil {
			return eris.Wrap(err, "template list")
		}
		if len(templates) == 0 {
			fmt.Fprintln(os.Stderr, "No templates found.")
			return nil
		}
		formatTemplates(os.Stdout, templates)
		return nil
	},
}

// -- template show --

var templateShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a template as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("store"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		t, err := st.GetTemplate(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "template show")
		}
		return writeJSON(os.Stdout, t)
	},
}

// -- template delete --

var templateDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("store"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.DeleteTemplate(ctx, args[0]); err != nil {
			return eris.Wrap(err, "template delete")
		}
		fmt.Fprintf(os.Stderr, "Deleted template %q.\n", args[0])
		return nil
	},
}

// -- template save --

var templateSaveCmd = &cobra.Command{
	Use:   "save <name> <file>",
	Short: "Save the mapping for a file as a named template",
	Args:  cobra.ExactArgs(2),
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

		table, _, err := openTable(ctx, env.Opener, args[1])
		if err != nil {
			return err
		}

		t, err := env.Service.SaveTemplate(ctx, table, req, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved template %q with %d mapped column(s).\n", t.Name, len(t.Mapping))
		return nil
	},
}

func init() {
	addMappingFlags(templateSaveCmd)

	templateCmd.AddCommand(templateListCmd)
	templateCmd.AddCommand(templateShowCmd)
	templateCmd.AddCommand(templateDeleteCmd)
	templateCmd.AddCommand(templateSaveCmd)
	rootCmd.AddCommand(templateCmd)
}
