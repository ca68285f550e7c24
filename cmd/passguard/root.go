package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agent-smit/passguard/internal/config"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "passguard",
		Short: "Passguard detects passwords that resemble breached ones",
		Long: `Passguard compares passwords against a corpus of breached passwords using
embedding similarity refined by edit distance, and suggests replacements that
stay far from every breached entry.

Configuration comes from the same environment variables as the server
(CORPUS_PATH, EMBEDDINGS_PATH, EMBEDDING_PROVIDER, DATABASE_URL, ...).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newCheckCmd(), newSuggestCmd(), newEmbedCmd(), newImportCmd())
	return root
}

// loadConfig reads the environment configuration for commands that need a
// loaded corpus.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// passwordArg returns the first argument, or one line from in when there is
// none, so passwords need not appear in shell history.
func passwordArg(args []string, in io.Reader) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
