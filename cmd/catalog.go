package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/tcg-arena/shop-populator/internal/catalog"
	"github.com/tcg-arena/shop-populator/internal/cost"
	"github.com/tcg-arena/shop-populator/internal/populate"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the anchors and keywords a run would search",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := cmd.Flags().GetString("catalog")
		if err != nil {
			return eris.Wrap(err, "catalog: flag catalog")
		}
		if path == "" && cfg != nil {
			path = cfg.Run.CatalogPath
		}

		cat, err := catalog.Load(path)
		if err != nil {
			return err
		}

		rates := cost.DefaultRates()
		budget := populate.DefaultMaxRequests
		if cfg != nil {
			rates = cfg.Pricing
			if cfg.Run.MaxRequests > 0 {
				budget = cfg.Run.MaxRequests
			}
		}
		formatCatalog(cmd.OutOrStdout(), cat, cost.NewCalculator(rates), budget)
		return nil
	},
}

func init() {
	catalogCmd.Flags().String("catalog", "", "catalog YAML file (default: embedded Italian cities)")
	rootCmd.AddCommand(catalogCmd)
}

func formatCatalog(out io.Writer, cat *catalog.Catalog, calc *cost.Calculator, budget int) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ANCHOR\tLAT\tLNG")
	_, _ = fmt.Fprintln(w, "------\t---\t---")
	for _, a := range cat.Anchors {
		_, _ = fmt.Fprintf(w, "%s\t%.4f\t%.4f\n", a.Name, a.Latitude, a.Longitude)
	}
	_ = w.Flush()

	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "KEYWORDS")
	for _, k := range cat.Keywords {
		_, _ = fmt.Fprintf(out, "  %s\n", k)
	}

	pairs := cat.Pairs()
	_, _ = fmt.Fprintf(out, "\n%d anchors x %d keywords = %d nearby searches ($%.2f without details)\n",
		len(cat.Anchors), len(cat.Keywords), pairs, calc.Places(pairs, 0))
	_, _ = fmt.Fprintf(out, "Worst case for a %d-call budget with details: $%.2f\n",
		budget, calc.WorstCase(budget, 1))
}
