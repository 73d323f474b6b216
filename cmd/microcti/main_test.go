package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRootCommandRegistersEveryJobSubcommand(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{
		"ingest", "tag", "filter-posts", "filter-tags", "cache-expire",
		"data-export", "data-import", "telegram-list-channels", "serve",
	} {
		require.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestDefaultBaseDirFallsBackToEnvOverride(t *testing.T) {
	t.Setenv("UCTI_BASE_DIR", "/tmp/microcti-test-base")
	require.Equal(t, "/tmp/microcti-test-base", defaultBaseDir())
}
