package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/batimetric/pricing-engine/pkg/catalog"
)

var (
	searchTopK     int
	searchCategory string
	searchRawJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Semantic product search against the catalog service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		hits, err := env.Catalog.Match(ctx, catalog.MatchRequest{
			QueryText:      args[0],
			TopK:           searchTopK,
			CategoryFilter: searchCategory,
		})
		if err != nil {
			return err
		}
		if len(hits) == 0 {
			fmt.Println("No results found.")
			return nil
		}

		if searchRawJSON {
			return printJSON(hits)
		}
		for i, h := range hits {
			fmt.Printf("  %d. [%.1f%%] %s — %.2f€ (%s)\n",
				i+1, h.Confidence*100, h.Label, h.UnitPrice, h.Category)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 5, "number of results")
	searchCmd.Flags().StringVar(&searchCategory, "category", "", "filter by catalog category")
	searchCmd.Flags().BoolVar(&searchRawJSON, "json", false, "print raw JSON")
	rootCmd.AddCommand(searchCmd)
}
