package populate

import (
	"context"
	"errors"
	"strings"

	"github.com/tcg-arena/shop-populator/internal/catalog"
	"github.com/tcg-arena/shop-populator/internal/geo"
	"github.com/tcg-arena/shop-populator/internal/shop"
)

// mockSearcher implements Searcher for testing.
type mockSearcher struct {
	results      map[string][]shop.SearchResult // keyed by keyword
	details      map[string]shop.Detail
	nearbyCalls  []string
	detailsCalls []string
	onSearch     func()
	// unsent marks keywords and place IDs whose request never goes out.
	unsent map[string]bool
}

func (m *mockSearcher) SearchNearby(_ context.Context, anchor catalog.Anchor, keyword string) ([]shop.SearchResult, bool) {
	m.nearbyCalls = append(m.nearbyCalls, anchor.Name+"/"+keyword)
	if m.onSearch != nil {
		m.onSearch()
	}
	if m.unsent[keyword] {
		return nil, false
	}
	return m.results[keyword], true
}

func (m *mockSearcher) Details(_ context.Context, placeID string) (shop.Detail, bool) {
	m.detailsCalls = append(m.detailsCalls, placeID)
	if m.unsent[placeID] {
		return shop.Detail{}, false
	}
	return m.details[placeID], true
}

// mockStore implements store.Gateway for testing.
type mockStore struct {
	existing    []shop.Record
	inserted    []*shop.Record
	existsCalls int
	existsErr   error
	insertErr   map[string]error
	committed   bool
	closed      bool
}

func (m *mockStore) Exists(_ context.Context, name string, lat, lng float64) (bool, error) {
	m.existsCalls++
	if m.existsErr != nil {
		return false, m.existsErr
	}
	box := geo.Box(lat, lng, geo.DedupTolerance)
	for _, e := range m.existing {
		if strings.EqualFold(e.Name, name) && geo.Within(box, e.Latitude, e.Longitude) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStore) Insert(_ context.Context, rec *shop.Record) error {
	if err := m.insertErr[rec.Name]; err != nil {
		return err
	}
	m.inserted = append(m.inserted, rec)
	return nil
}

func (m *mockStore) Commit(_ context.Context) error {
	if m.committed {
		return errors.New("already committed")
	}
	m.committed = true
	return nil
}

func (m *mockStore) Close(_ context.Context) error {
	m.closed = true
	return nil
}

// recordSink collects records passed to Add.
type recordSink struct {
	records []*shop.Record
}

func (s *recordSink) Add(rec *shop.Record) {
	s.records = append(s.records, rec)
}
