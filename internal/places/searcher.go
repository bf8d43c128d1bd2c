// Package places wraps the Places API client for the populate run. Upstream failures
// never propagate: they are logged and turned into empty results.
package places

import (
	"context"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tcg-arena/shop-populator/internal/catalog"
	"github.com/tcg-arena/shop-populator/internal/shop"
	"github.com/tcg-arena/shop-populator/pkg/google"
)

// Defaults for a Searcher.
const (
	DefaultRadiusMeters    = 15000
	DefaultSearchInterval  = time.Second
	DefaultDetailsInterval = 500 * time.Millisecond
)

// Descriptions taken from reviews are cut to maxDescriptionLen runes.
const maxDescriptionLen = 500

// Options configures a Searcher.
type Options struct {
	RadiusMeters    int
	SearchInterval  time.Duration // minimum gap between nearby searches; 0 disables pacing
	DetailsInterval time.Duration // minimum gap between details lookups; 0 disables pacing
	DetailFields    []string
}

// Searcher issues paced nearby-search and details calls.
type Searcher struct {
	client  google.Client
	radius  int
	fields  []string
	search  *rate.Limiter
	details *rate.Limiter
}

// NewSearcher creates a Searcher. A zero radius falls back to DefaultRadiusMeters.
func NewSearcher(client google.Client, opts Options) *Searcher {
	radius := opts.RadiusMeters
	if radius <= 0 {
		radius = DefaultRadiusMeters
	}
	fields := opts.DetailFields
	if len(fields) == 0 {
		fields = google.DefaultDetailFields
	}
	return &Searcher{
		client:  client,
		radius:  radius,
		fields:  fields,
		search:  limiter(opts.SearchInterval),
		details: limiter(opts.DetailsInterval),
	}
}

func limiter(every time.Duration) *rate.Limiter {
	if every <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(every), 1)
}

// SearchNearby returns the places matching keyword around the anchor. Any failure
// yields an empty slice. sent is false when the request never left the process.
func (s *Searcher) SearchNearby(ctx context.Context, anchor catalog.Anchor, keyword string) (results []shop.SearchResult, sent bool) {
	log := zap.L().With(zap.String("anchor", anchor.Name), zap.String("keyword", keyword))

	if err := s.search.Wait(ctx); err != nil {
		log.Warn("places: nearby search not sent", zap.Error(err))
		return nil, false
	}

	resp, err := s.client.NearbySearch(ctx, google.NearbySearchRequest{
		Location:     google.LatLng{Lat: anchor.Latitude, Lng: anchor.Longitude},
		RadiusMeters: s.radius,
		Keyword:      keyword,
	})
	if err != nil {
		log.Warn("places: nearby search failed", zap.Error(err))
		return nil, true
	}

	results = make([]shop.SearchResult, 0, len(resp.Results))
	for _, p := range resp.Results {
		results = append(results, toSearchResult(p))
	}
	log.Debug("places: nearby search", zap.Int("results", len(results)))
	return results, true
}

// Details returns the enrichment for placeID. Any failure yields an empty Detail.
// sent is false when the request never left the process.
func (s *Searcher) Details(ctx context.Context, placeID string) (detail shop.Detail, sent bool) {
	log := zap.L().With(zap.String("place_id", placeID))

	if err := s.details.Wait(ctx); err != nil {
		log.Warn("places: details not sent", zap.Error(err))
		return shop.Detail{}, false
	}

	resp, err := s.client.PlaceDetails(ctx, placeID, s.fields)
	if err != nil {
		log.Warn("places: details failed", zap.Error(err))
		return shop.Detail{}, true
	}
	return toDetail(resp.Result), true
}

func toSearchResult(p google.Place) shop.SearchResult {
	return shop.SearchResult{
		PlaceID:        p.PlaceID,
		Name:           p.Name,
		Vicinity:       p.Vicinity,
		Latitude:       p.Geometry.Location.Lat,
		Longitude:      p.Geometry.Location.Lng,
		Types:          p.Types,
		BusinessStatus: p.BusinessStatus,
		Rating:         p.Rating,
	}
}

func toDetail(d google.PlaceDetails) shop.Detail {
	out := shop.Detail{
		Phone:            d.FormattedPhoneNumber,
		Website:          d.Website,
		FormattedAddress: d.FormattedAddress,
		Description:      description(d),
	}
	if d.OpeningHours != nil && len(d.OpeningHours.Periods) > 0 && string(d.OpeningHours.Periods) != "null" {
		out.OpeningHoursJSON = string(d.OpeningHours.Periods)
	}
	return out
}

// description prefers the editorial summary and falls back to the first review.
func description(d google.PlaceDetails) string {
	if d.EditorialSummary != nil && d.EditorialSummary.Overview != "" {
		return d.EditorialSummary.Overview
	}
	if len(d.Reviews) == 0 || d.Reviews[0].Text == "" {
		return ""
	}
	return truncate(d.Reviews[0].Text, maxDescriptionLen)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}
