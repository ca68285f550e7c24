package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agent-smit/passguard/internal/app"
	"github.com/agent-smit/passguard/internal/corpus"
	"github.com/agent-smit/passguard/internal/oracle"
)

func newEmbedCmd() *cobra.Command {
	var (
		input     string
		output    string
		encoding  string
		batchSize int
	)

	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Precompute corpus embeddings into a TOML file",
		Long: `Read a newline-separated password list, embed every entry with the configured
provider and write an embeddings file that the server loads through
EMBEDDINGS_PATH without re-embedding at startup.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			embedder, err := oracle.NewFromConfig(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			passwords, err := corpus.ReadPasswordFile(input, encoding)
			if err != nil {
				return err
			}
			vectors, err := corpus.Build(cmd.Context(), embedder, passwords, batchSize, app.LogProgress("embedding"))
			if err != nil {
				return err
			}

			f, err := corpus.NewEmbeddingsFile(modelName(cfg.EmbeddingProvider, cfg.EmbeddingModel), passwords, vectors)
			if err != nil {
				return err
			}
			if err := corpus.SaveEmbeddings(output, f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d embeddings (%d dimensions) to %s\n", len(passwords), f.Dimensions, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Password list to embed (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "embeddings.toml", "Embeddings file to write")
	cmd.Flags().StringVar(&encoding, "encoding", corpus.EncodingLatin1, "Input encoding: latin1 or utf8")
	cmd.Flags().IntVar(&batchSize, "batch-size", corpus.DefaultBatchSize, "Passwords per embedding request")
	cmd.MarkFlagRequired("input")
	return cmd
}

// modelName labels an embeddings file with the model that produced it.
func modelName(provider, model string) string {
	if provider == "ngram" {
		return "ngram"
	}
	return provider + ":" + model
}
