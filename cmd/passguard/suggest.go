package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agent-smit/passguard/internal/app"
	"github.com/agent-smit/passguard/internal/breach"
)

func newSuggestCmd() *cobra.Command {
	var (
		count int
		seed  string
	)

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Generate passwords that are far from every breached entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			var suggestions []string
			if seed == "" {
				suggestions, err = a.Analyzer.Baseline(cmd.Context(), count)
			} else {
				suggestions, err = a.Analyzer.Engine().Suggest(cmd.Context(), seed, count)
			}
			for _, s := range suggestions {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			if errors.Is(err, breach.ErrGenerationTimeout) {
				return fmt.Errorf("only %d of %d suggestions generated: %w", len(suggestions), count, err)
			}
			return err
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 3, "Number of suggestions")
	cmd.Flags().StringVar(&seed, "from", "", "Derive suggestions from this password instead of an empty seed")
	return cmd
}
