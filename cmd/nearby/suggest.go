package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"nearby/internal/suggest"
	"nearby/models"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest [query]",
	Short: "Rank query suggestions",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.close()

		agg := suggest.NewAggregator(a.categories, a.source(), func(suggest.Update) {})
		defer agg.Close()

		q := strings.Join(args, " ")
		return printSuggestions(cmd, agg.Rank(cmd.Context(), q))
	},
}

func printSuggestions(cmd *cobra.Command, list []models.Suggestion) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tSCORE\tTITLE\tDETAIL")
	for _, s := range list {
		score := "-"
		if s.Score != nil {
			score = fmt.Sprint(*s.Score)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Type, score, s.Title, s.Subtitle)
	}
	return w.Flush()
}
