package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agent-smit/passguard/internal/app"
)

func newCheckCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "check [password]",
		Short: "Analyze a password against the breached corpus",
		Long: `Analyze one password: strength, the closest breached entry, the compromise
verdict, feedback and, for compromised passwords, safe suggestions. The
password is read from stdin when no argument is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := passwordArg(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Analyzer.Analyze(cmd.Context(), password)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			fmt.Fprintf(out, "Strength:      %s\n", res.Strength)
			fmt.Fprintf(out, "Status:        %s\n", res.Status)
			fmt.Fprintf(out, "Closest match: %s (%s similar)\n", res.MostSimilarPassword, res.LevenshteinDistance)
			fmt.Fprintf(out, "Feedback:      %s\n", res.Feedback)
			if len(res.Suggestions) > 0 {
				fmt.Fprintf(out, "Suggestions:   %s\n", strings.Join(res.Suggestions, ", "))
			}
			if res.SuggestionError != "" {
				fmt.Fprintf(out, "Note:          suggestions incomplete (%s)\n", res.SuggestionError)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full result as JSON")
	return cmd
}
