package main

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcg-arena/shop-populator/internal/config"
	"github.com/tcg-arena/shop-populator/internal/cost"
	"github.com/tcg-arena/shop-populator/internal/export"
	"github.com/tcg-arena/shop-populator/internal/populate"
)

// newPopulateFlagsCmd creates a fresh cobra.Command with the same flags as
// populateCmd, so tests don't share mutable flag state.
func newPopulateFlagsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "test-populate"}
	registerPopulateFlags(cmd)
	return cmd
}

func TestApplyPopulateFlags_UnsetKeepsConfig(t *testing.T) {
	cmd := newPopulateFlagsCmd()
	c := &config.Config{
		Places: config.PlacesConfig{APIKey: "from-env"},
		Store:  config.StoreConfig{User: "arena"},
		Run:    config.RunConfig{MaxRequests: 100},
	}

	require.NoError(t, applyPopulateFlags(cmd, c))
	assert.Equal(t, "from-env", c.Places.APIKey)
	assert.Equal(t, "arena", c.Store.User, "flag default does not override config")
	assert.Equal(t, 100, c.Run.MaxRequests)
	assert.False(t, c.Run.DryRun)
}

func TestApplyPopulateFlags_Overrides(t *testing.T) {
	cmd := newPopulateFlagsCmd()
	for name, v := range map[string]string{
		"api-key":         "flag-key",
		"db-url":          "jdbc:mysql://db:3306/tcg_arena",
		"db-user":         "admin",
		"db-password":     "pw",
		"dry-run":         "true",
		"max-requests":    "42",
		"skip-details":    "true",
		"catalog":         "cities.yaml",
		"detect-services": "true",
		"export":          "out.xlsx",
	} {
		require.NoError(t, cmd.Flags().Set(name, v))
	}

	c := &config.Config{}
	require.NoError(t, applyPopulateFlags(cmd, c))

	assert.Equal(t, "flag-key", c.Places.APIKey)
	assert.Equal(t, "jdbc:mysql://db:3306/tcg_arena", c.Store.URL)
	assert.Equal(t, "admin", c.Store.User)
	assert.Equal(t, "pw", c.Store.Password)
	assert.True(t, c.Run.DryRun)
	assert.Equal(t, 42, c.Run.MaxRequests)
	assert.True(t, c.Run.SkipDetails)
	assert.Equal(t, "cities.yaml", c.Run.CatalogPath)
	assert.True(t, c.Run.DetectServices)
	assert.Equal(t, "out.xlsx", c.Run.ExportPath)
}

const nearbyBody = `{
	"status": "OK",
	"results": [
		{
			"place_id": "ChIJ-milano1",
			"name": "Pokémon Center Milano",
			"vicinity": "Via Torino 1, Milano",
			"geometry": {"location": {"lat": 45.4630, "lng": 9.1880}},
			"business_status": "OPERATIONAL",
			"rating": 4.6
		},
		{
			"place_id": "ChIJ-existing",
			"name": "Existing Shop",
			"vicinity": "Corso Buenos Aires 10, Milano",
			"geometry": {"location": {"lat": 45.4780, "lng": 9.2050}},
			"business_status": "OPERATIONAL"
		}
	]
}`

const detailsBody = `{
	"status": "OK",
	"result": {
		"formatted_phone_number": "02 1234567",
		"formatted_address": "Via Torino 1, 20123 Milano MI, Italia"
	}
}`

func newPlacesServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/nearbysearch/json":
			_, _ = io.WriteString(w, nearbyBody)
		case "/details/json":
			_, _ = io.WriteString(w, detailsBody)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeCatalog(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "catalog.yaml")
	data := "anchors:\n  - {name: 'Milano, Italia', lat: 45.4642, lng: 9.19}\nkeywords:\n  - pokemon card shop\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func seedDB(t *testing.T, path string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	_, err = db.Exec(`CREATE TABLE shops (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL, address TEXT, latitude REAL NOT NULL, longitude REAL NOT NULL,
		phone_number TEXT, website_url TEXT, description TEXT, opening_hours_json TEXT,
		type TEXT, is_verified BOOLEAN, active BOOLEAN, tcg_types TEXT, services TEXT,
		reservation_duration_minutes INTEGER)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO shops (name, latitude, longitude) VALUES ('Existing Shop', 45.4785, 9.2045)`)
	require.NoError(t, err)
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Places: config.PlacesConfig{
			APIKey:       "test-key",
			BaseURL:      baseURL,
			RadiusMeters: 15000,
			TimeoutSecs:  5,
		},
		Run: config.RunConfig{
			MaxRequests: 10,
			MinRating:   3.0,
			CatalogPath: writeCatalog(t, dir),
		},
		Pricing: cost.DefaultRates(),
	}
}

func TestRunPopulate_Live(t *testing.T) {
	srv := newPlacesServer(t)
	c := testConfig(t, srv.URL)

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "shops.db")
	seedDB(t, dbPath)
	c.Store.URL = "sqlite://" + dbPath
	c.Run.ExportPath = filepath.Join(dir, "shops.xlsx")

	var out bytes.Buffer
	require.NoError(t, runPopulate(context.Background(), c, &out))

	assert.Contains(t, out.String(), "LIVE")
	assert.Regexp(t, `Shops found\s+2`, out.String())
	assert.Regexp(t, `Inserted\s+1`, out.String())
	assert.Regexp(t, `Skipped\s+1`, out.String())
	assert.Regexp(t, `Total calls\s+3/10`, out.String())

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	var phone, address string
	require.NoError(t, db.QueryRow(`SELECT phone_number, address FROM shops WHERE name = ?`, "Pokémon Center Milano").
		Scan(&phone, &address))
	assert.Equal(t, "02 1234567", phone)
	assert.Equal(t, "Via Torino 1, 20123 Milano MI, Italia", address)

	rows, err := export.ReadXLSX(c.Run.ExportPath)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Pokémon Center Milano", rows[1][1])
}

func TestRunPopulate_DryRun(t *testing.T) {
	srv := newPlacesServer(t)
	c := testConfig(t, srv.URL)
	c.Run.DryRun = true
	c.Run.SkipDetails = true

	var out bytes.Buffer
	require.NoError(t, runPopulate(context.Background(), c, &out))

	assert.Contains(t, out.String(), "DRY RUN")
	assert.Regexp(t, `Would insert\s+2`, out.String())
	assert.Regexp(t, `Place Details calls\s+0`, out.String())
}

func TestRunPopulate_MissingAPIKey(t *testing.T) {
	c := testConfig(t, "http://127.0.0.1:0")
	c.Places.APIKey = ""

	err := runPopulate(context.Background(), c, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key is required")
}

func TestRunPopulate_MissingStoreInLiveMode(t *testing.T) {
	c := testConfig(t, "http://127.0.0.1:0")

	err := runPopulate(context.Background(), c, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store url is required")
}

func TestRunPopulate_StoreOpenFailure(t *testing.T) {
	c := testConfig(t, "http://127.0.0.1:0")
	c.Store.URL = "redis://localhost:6379"
	c.Store.Password = "pw"

	err := runPopulate(context.Background(), c, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open store")
}

func TestRunPopulate_InterruptCommitsNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		cancel()
		_, _ = io.WriteString(w, nearbyBody)
	}))
	defer srv.Close()

	c := testConfig(t, srv.URL)
	dir := t.TempDir()
	c.Run.CatalogPath = filepath.Join(dir, "two.yaml")
	require.NoError(t, os.WriteFile(c.Run.CatalogPath,
		[]byte("anchors:\n  - {name: Milano, lat: 45.4642, lng: 9.19}\nkeywords: [tcg, pokemon]\n"), 0644))
	c.Run.SkipDetails = true

	dbPath := filepath.Join(dir, "shops.db")
	seedDB(t, dbPath)
	c.Store.URL = "sqlite://" + dbPath

	err := runPopulate(ctx, c, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing committed")

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM shops`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestFormatSummary(t *testing.T) {
	var buf bytes.Buffer
	formatSummary(&buf, &populate.Counters{
		RunID:         "0f8fad5b-d9cb-469f-a165-70867728950e",
		Found:         12,
		Inserted:      7,
		Skipped:       3,
		Filtered:      2,
		NearbyCalls:   9,
		DetailsCalls:  9,
		Budget:        18,
		BudgetReached: true,
		CostUSD:       0.441,
	}, cost.NewCalculator(cost.DefaultRates()))

	out := buf.String()
	assert.Contains(t, out, "0f8fad5b")
	assert.NotContains(t, out, "0f8fad5b-d9cb")
	assert.Regexp(t, `Shops found\s+12`, out)
	assert.Regexp(t, `Inserted\s+7`, out)
	assert.Regexp(t, `Total calls\s+18/18`, out)
	assert.Regexp(t, `Budget\s+reached`, out)
	assert.Contains(t, out, "$0.44 (billable $0.00)")
}
