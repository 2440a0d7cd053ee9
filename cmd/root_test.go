//go:build !integration

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"analyze", "preview", "import", "template", "history", "serve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "lead-importer", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestMappingFlags(t *testing.T) {
	for _, c := range []string{"analyze", "preview", "import"} {
		cmd, _, err := rootCmd.Find([]string{c})
		require.NoError(t, err)
		for _, flag := range []string{"template", "map", "transform", "json"} {
			assert.NotNil(t, cmd.Flags().Lookup(flag), "%s should have --%s", c, flag)
		}
	}
}

func TestImportCommand_Flags(t *testing.T) {
	for _, flag := range []string{"executor", "dry-run", "save-template"} {
		assert.NotNil(t, importCmd.Flags().Lookup(flag), "import should have --%s", flag)
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestTemplateCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range templateCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"list", "show", "delete", "save"} {
		assert.True(t, names[name], "template should have subcommand %q", name)
	}
}

func TestHistoryCommand_Flags(t *testing.T) {
	flag := historyCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "50", flag.DefValue)
}
