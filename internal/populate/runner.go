// Package populate drives a run over the catalog: search each anchor and keyword,
// build shop records, skip the ones already stored and insert the rest.
package populate

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tcg-arena/shop-populator/internal/catalog"
	"github.com/tcg-arena/shop-populator/internal/cost"
	"github.com/tcg-arena/shop-populator/internal/shop"
	"github.com/tcg-arena/shop-populator/internal/store"
)

// DefaultMaxRequests is the default call budget.
const DefaultMaxRequests = 950

// Searcher is the Places access the runner needs.
type Searcher interface {
	SearchNearby(ctx context.Context, anchor catalog.Anchor, keyword string) ([]shop.SearchResult, bool)
	Details(ctx context.Context, placeID string) (shop.Detail, bool)
}

// Sink receives every record that was inserted, or would be in a dry run.
type Sink interface {
	Add(rec *shop.Record)
}

// Options configures a run.
type Options struct {
	MaxRequests    int
	DryRun         bool
	SkipDetails    bool
	DetectServices bool
	MinRating      float64
}

// Option customizes a Runner.
type Option func(*Runner)

// WithSink forwards accepted records to sink.
func WithSink(sink Sink) Option {
	return func(r *Runner) { r.sink = sink }
}

// WithCalculator sets the calculator used for the cost estimate.
func WithCalculator(calc *cost.Calculator) Option {
	return func(r *Runner) { r.calc = calc }
}

// Runner executes populate runs.
type Runner struct {
	catalog  *catalog.Catalog
	searcher Searcher
	store    store.Gateway
	sink     Sink
	calc     *cost.Calculator
	opts     Options
}

// NewRunner creates a Runner. gw may be nil when opts.DryRun is set.
func NewRunner(cat *catalog.Catalog, searcher Searcher, gw store.Gateway, opts Options, options ...Option) *Runner {
	if opts.MaxRequests <= 0 {
		opts.MaxRequests = DefaultMaxRequests
	}
	if opts.MinRating <= 0 {
		opts.MinRating = shop.DefaultMinRating
	}
	r := &Runner{
		catalog:  cat,
		searcher: searcher,
		store:    gw,
		calc:     cost.NewCalculator(cost.DefaultRates()),
		opts:     opts,
	}
	for _, o := range options {
		o(r)
	}
	return r
}

// Run walks every anchor and keyword until the catalog or the budget is exhausted.
// On cancellation the partial counters are returned along with the context error.
// Run never commits; the caller commits the store once Run succeeds.
func (r *Runner) Run(ctx context.Context) (*Counters, error) {
	if !r.opts.DryRun && r.store == nil {
		return nil, eris.New("populate: store is required unless dry run")
	}

	c := newCounters(r.opts.MaxRequests, r.opts.DryRun)
	log := zap.L().With(zap.String("run_id", c.RunID))
	builder := shop.NewBuilder(&meteredDetails{searcher: r.searcher, counters: c}, r.opts.DetectServices)

	log.Info("populate run starting",
		zap.Int("anchors", len(r.catalog.Anchors)),
		zap.Int("keywords", len(r.catalog.Keywords)),
		zap.Int("max_requests", r.opts.MaxRequests),
		zap.Bool("dry_run", r.opts.DryRun),
		zap.Bool("skip_details", r.opts.SkipDetails),
		zap.Float64("worst_case_usd", r.WorstCase()),
	)

	err := r.walk(ctx, log, builder, c)
	c.CostUSD = r.calc.Places(c.NearbyCalls, c.DetailsCalls)

	log.Info("populate run complete",
		zap.Int("found", c.Found),
		zap.Int("inserted", c.Inserted),
		zap.Int("skipped", c.Skipped),
		zap.Int("filtered", c.Filtered),
		zap.Int("nearby_calls", c.NearbyCalls),
		zap.Int("details_calls", c.DetailsCalls),
		zap.Bool("budget_reached", c.BudgetReached),
		zap.Float64("cost_usd", c.CostUSD),
	)
	return c, err
}

// WorstCase is the cost of a run that spends the whole budget.
func (r *Runner) WorstCase() float64 {
	detailsPerSearch := 1.0
	if r.opts.SkipDetails {
		detailsPerSearch = 0
	}
	return r.calc.WorstCase(r.opts.MaxRequests, detailsPerSearch)
}

func (r *Runner) walk(ctx context.Context, log *zap.Logger, builder *shop.Builder, c *Counters) error {
	for _, anchor := range r.catalog.Anchors {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "populate: interrupted")
		}
		if c.exhausted() {
			c.BudgetReached = true
			log.Warn("budget reached, stopping", zap.Int("calls", c.Calls()), zap.Int("max_requests", c.Budget))
			return nil
		}
		log.Info("searching anchor", zap.String("anchor", anchor.Name), zap.Int("calls", c.Calls()))

		for _, keyword := range r.catalog.Keywords {
			if err := ctx.Err(); err != nil {
				return eris.Wrap(err, "populate: interrupted")
			}
			if c.exhausted() {
				break
			}

			results, sent := r.searcher.SearchNearby(ctx, anchor, keyword)
			if sent {
				c.NearbyCalls++
			}
			c.Found += len(results)

			for _, res := range results {
				if err := ctx.Err(); err != nil {
					return eris.Wrap(err, "populate: interrupted")
				}
				r.process(ctx, log, builder, c, res)
			}
		}
	}
	if c.exhausted() {
		c.BudgetReached = true
	}
	return nil
}

func (r *Runner) process(ctx context.Context, log *zap.Logger, builder *shop.Builder, c *Counters, res shop.SearchResult) {
	log = log.With(zap.String("shop", res.Name), zap.String("place_id", res.PlaceID))

	if ok, reason := shop.Qualify(res, r.opts.MinRating); !ok {
		c.Filtered++
		log.Debug("filtered", zap.String("reason", reason))
		return
	}

	rec := builder.Build(ctx, res, !r.opts.SkipDetails)

	if r.opts.DryRun {
		c.Inserted++
		log.Info("would insert", zap.String("address", rec.Address))
		r.emit(rec)
		return
	}

	exists, err := r.store.Exists(ctx, rec.Name, rec.Latitude, rec.Longitude)
	if err != nil {
		c.Skipped++
		log.Warn("dedup check failed", zap.Error(err))
		return
	}
	if exists {
		c.Skipped++
		log.Info("already exists")
		return
	}

	if err := r.store.Insert(ctx, rec); err != nil {
		c.Skipped++
		log.Warn("insert failed", zap.Error(err))
		return
	}
	c.Inserted++
	log.Info("inserted", zap.String("address", rec.Address))
	r.emit(rec)
}

func (r *Runner) emit(rec *shop.Record) {
	if r.sink != nil {
		r.sink.Add(rec)
	}
}

// meteredDetails counts details lookups and refuses them once the budget is spent.
type meteredDetails struct {
	searcher Searcher
	counters *Counters
}

func (m *meteredDetails) Details(ctx context.Context, placeID string) shop.Detail {
	if m.counters.exhausted() {
		return shop.Detail{}
	}
	d, sent := m.searcher.Details(ctx, placeID)
	if sent {
		m.counters.DetailsCalls++
	}
	return d
}
