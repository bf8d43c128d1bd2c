package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tcg-arena/shop-populator/internal/catalog"
	"github.com/tcg-arena/shop-populator/internal/config"
	"github.com/tcg-arena/shop-populator/internal/cost"
	"github.com/tcg-arena/shop-populator/internal/export"
	"github.com/tcg-arena/shop-populator/internal/places"
	"github.com/tcg-arena/shop-populator/internal/populate"
	"github.com/tcg-arena/shop-populator/internal/store"
	"github.com/tcg-arena/shop-populator/pkg/google"
)

var populateCmd = &cobra.Command{
	Use:   "populate",
	Short: "Search for shops and insert the new ones",
	Long: `Walks every catalog anchor and keyword, calls Places Nearby Search (and Place
Details unless --skip-details), and inserts shops not already in the table.
All inserts are committed at the end of the run; an interrupted run commits nothing.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := applyPopulateFlags(cmd, cfg); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runPopulate(ctx, cfg, cmd.OutOrStdout())
	},
}

func init() {
	registerPopulateFlags(populateCmd)
	rootCmd.AddCommand(populateCmd)
}

func registerPopulateFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("api-key", "", "Google Places API key (or GOOGLE_PLACES_API_KEY)")
	f.String("db-url", "", "store URL, e.g. jdbc:mysql://localhost:3306/tcg_arena (or DB_URL)")
	f.String("db-user", "root", "store user (or DB_USER)")
	f.String("db-password", "", "store password (or DB_PASSWORD)")
	f.Bool("dry-run", false, "search and classify without touching the store")
	f.Int("max-requests", populate.DefaultMaxRequests, "maximum Places requests (nearby + details)")
	f.Bool("skip-details", false, "skip Place Details calls to save quota")
	f.String("catalog", "", "catalog YAML file (default: embedded Italian cities)")
	f.Bool("detect-services", false, "infer services from shop text instead of the default set")
	f.String("export", "", "also write accepted shops to this .xlsx file")
}

// applyPopulateFlags copies explicitly set flags over the loaded configuration.
func applyPopulateFlags(cmd *cobra.Command, c *config.Config) error {
	f := cmd.Flags()
	strs := map[string]*string{
		"api-key":     &c.Places.APIKey,
		"db-url":      &c.Store.URL,
		"db-user":     &c.Store.User,
		"db-password": &c.Store.Password,
		"catalog":     &c.Run.CatalogPath,
		"export":      &c.Run.ExportPath,
	}
	for name, dst := range strs {
		if !f.Changed(name) {
			continue
		}
		v, err := f.GetString(name)
		if err != nil {
			return eris.Wrapf(err, "populate: flag %s", name)
		}
		*dst = v
	}

	bools := map[string]*bool{
		"dry-run":         &c.Run.DryRun,
		"skip-details":    &c.Run.SkipDetails,
		"detect-services": &c.Run.DetectServices,
	}
	for name, dst := range bools {
		if !f.Changed(name) {
			continue
		}
		v, err := f.GetBool(name)
		if err != nil {
			return eris.Wrapf(err, "populate: flag %s", name)
		}
		*dst = v
	}

	if f.Changed("max-requests") {
		v, err := f.GetInt("max-requests")
		if err != nil {
			return eris.Wrap(err, "populate: flag max-requests")
		}
		c.Run.MaxRequests = v
	}
	return nil
}

// runPopulate validates c, runs the population and prints the summary to out.
func runPopulate(ctx context.Context, c *config.Config, out io.Writer) error {
	if err := c.Validate(); err != nil {
		return err
	}

	cat, err := catalog.Load(c.Run.CatalogPath)
	if err != nil {
		return err
	}

	client := google.NewClient(c.Places.APIKey,
		google.WithBaseURL(c.Places.BaseURL),
		google.WithHTTPClient(&http.Client{Timeout: time.Duration(c.Places.TimeoutSecs) * time.Second}),
	)
	searcher := places.NewSearcher(client, places.Options{
		RadiusMeters:    c.Places.RadiusMeters,
		SearchInterval:  c.Places.SearchInterval,
		DetailsInterval: c.Places.DetailsInterval,
	})

	var gw store.Gateway
	if !c.Run.DryRun {
		gw, err = store.Open(ctx, c.Store.URL, c.Store.User, c.Store.Password)
		if err != nil {
			return eris.Wrap(err, "populate: open store")
		}
		defer func() {
			if err := gw.Close(context.Background()); err != nil {
				zap.L().Warn("populate: close store", zap.Error(err))
			}
		}()
	}

	calc := cost.NewCalculator(c.Pricing)
	opts := []populate.Option{populate.WithCalculator(calc)}
	var sink *export.XLSXSink
	if c.Run.ExportPath != "" {
		sink = export.NewXLSXSink()
		opts = append(opts, populate.WithSink(sink))
	}

	runner := populate.NewRunner(cat, searcher, gw, populate.Options{
		MaxRequests:    c.Run.MaxRequests,
		DryRun:         c.Run.DryRun,
		SkipDetails:    c.Run.SkipDetails,
		DetectServices: c.Run.DetectServices,
		MinRating:      c.Run.MinRating,
	}, opts...)

	counters, runErr := runner.Run(ctx)
	if counters != nil {
		formatSummary(out, counters, calc)
	}
	if runErr != nil {
		return eris.Wrap(runErr, "populate: nothing committed")
	}

	if gw != nil {
		// A failed commit loses every insert of the run.
		if err := gw.Commit(ctx); err != nil {
			return eris.Wrapf(err, "populate: commit %d inserts", counters.Inserted)
		}
	}

	if sink != nil {
		if err := sink.Save(c.Run.ExportPath); err != nil {
			return err
		}
		zap.L().Info("exported shops", zap.String("path", c.Run.ExportPath), zap.Int("count", sink.Len()))
	}
	return nil
}

func formatSummary(out io.Writer, c *populate.Counters, calc *cost.Calculator) {
	mode := "LIVE"
	inserted := "Inserted"
	if c.DryRun {
		mode = "DRY RUN"
		inserted = "Would insert"
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SUMMARY\t")
	_, _ = fmt.Fprintln(w, "-------\t")
	_, _ = fmt.Fprintf(w, "Run\t%s\n", shortUUID(c.RunID))
	_, _ = fmt.Fprintf(w, "Mode\t%s\n", mode)
	_, _ = fmt.Fprintf(w, "Shops found\t%d\n", c.Found)
	_, _ = fmt.Fprintf(w, "%s\t%d\n", inserted, c.Inserted)
	_, _ = fmt.Fprintf(w, "Skipped\t%d\n", c.Skipped)
	_, _ = fmt.Fprintf(w, "Filtered\t%d\n", c.Filtered)
	_, _ = fmt.Fprintf(w, "Nearby Search calls\t%d\n", c.NearbyCalls)
	_, _ = fmt.Fprintf(w, "Place Details calls\t%d\n", c.DetailsCalls)
	_, _ = fmt.Fprintf(w, "Total calls\t%d/%d\n", c.Calls(), c.Budget)
	if c.BudgetReached {
		_, _ = fmt.Fprintln(w, "Budget\treached")
	}
	_, _ = fmt.Fprintf(w, "Estimated cost\t$%.2f (billable $%.2f)\n", c.CostUSD, calc.Billable(c.CostUSD))
	_ = w.Flush()
}

func shortUUID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
