package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agent-smit/passguard/internal/corpus"
	"github.com/agent-smit/passguard/internal/db"
	"github.com/agent-smit/passguard/internal/store"
)

func newImportCmd() *cobra.Command {
	var (
		input       string
		databaseURL string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load an embeddings file into Postgres",
		Long: `Apply schema migrations and replace the Postgres corpus with the contents of an
embeddings file written by "passguard embed". Servers started with
CORPUS_SOURCE=postgres load it from there.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			f, err := corpus.LoadEmbeddings(input)
			if err != nil {
				return err
			}

			if err := db.Migrate(databaseURL); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			pool, err := db.NewPool(ctx, databaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			passwords, vectors := f.Split()
			if err := store.NewCorpusStore(pool, f.Dimensions).Replace(ctx, f.Model, passwords, vectors); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d entries (model %s, %d dimensions)\n", len(passwords), f.Model, f.Dimensions)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "embeddings.toml", "Embeddings file to import")
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres connection string (defaults to $DATABASE_URL)")
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if databaseURL == "" {
			databaseURL = os.Getenv("DATABASE_URL")
		}
		if databaseURL == "" {
			return fmt.Errorf("--database-url or DATABASE_URL is required")
		}
		return nil
	}
	return cmd
}
