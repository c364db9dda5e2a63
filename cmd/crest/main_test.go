package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// findSubcommand finds a subcommand by name within a cobra command.
func findSubcommand(cmd *cobra.Command, name string) *cobra.Command {
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

func TestRootCommandTree(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"version", "get", "auth-uri", "login", "refresh", "whoami", "config"} {
		assert.NotNil(t, findSubcommand(rootCmd, name), name)
	}

	config := findSubcommand(rootCmd, "config")
	require.NotNil(t, config)
	assert.NotNil(t, findSubcommand(config, "show"))
	assert.NotNil(t, findSubcommand(config, "set"))

	get := findSubcommand(rootCmd, "get")
	require.NotNil(t, get)

	resolve := get.Flags().Lookup("resolve")
	require.NotNil(t, resolve)
	assert.Equal(t, "true", resolve.DefValue)
	assert.NotNil(t, get.Flags().Lookup("follow"))
	assert.NotNil(t, get.Flags().Lookup("query"))

	for _, flag := range []string{"config", "output", "verbose", "testing"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(flag), flag)
	}
}
