package google

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearbySearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/nearbysearch/json", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "45.4642,9.19", q.Get("location"))
		assert.Equal(t, "15000", q.Get("radius"))
		assert.Equal(t, "pokemon card shop", q.Get("keyword"))
		assert.Equal(t, "test-key", q.Get("key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"status": "OK",
			"results": [{
				"place_id": "ChIJ-milano1",
				"name": "Pokémon Center Milano",
				"vicinity": "Via Torino 1, Milano",
				"geometry": {"location": {"lat": 45.4630, "lng": 9.1880}},
				"types": ["store", "point_of_interest"],
				"business_status": "OPERATIONAL",
				"rating": 4.6
			}]
		}`)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.NearbySearch(context.Background(), NearbySearchRequest{
		Location:     LatLng{Lat: 45.4642, Lng: 9.19},
		RadiusMeters: 15000,
		Keyword:      "pokemon card shop",
	})

	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	place := resp.Results[0]
	assert.Equal(t, "ChIJ-milano1", place.PlaceID)
	assert.Equal(t, "Pokémon Center Milano", place.Name)
	assert.Equal(t, "Via Torino 1, Milano", place.Vicinity)
	assert.InDelta(t, 45.4630, place.Geometry.Location.Lat, 0.00001)
	assert.Equal(t, []string{"store", "point_of_interest"}, place.Types)
	assert.Equal(t, "OPERATIONAL", place.BusinessStatus)
	require.NotNil(t, place.Rating)
	assert.InDelta(t, 4.6, *place.Rating, 0.001)
}

func TestNearbySearch_ZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status": "ZERO_RESULTS", "results": []}`)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.NearbySearch(context.Background(), NearbySearchRequest{Keyword: "nothing"})

	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestNearbySearch_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status": "REQUEST_DENIED", "error_message": "The provided API key is invalid."}`)
	}))
	defer srv.Close()

	client := NewClient("bad-key", WithBaseURL(srv.URL))
	resp, err := client.NearbySearch(context.Background(), NearbySearchRequest{Keyword: "tcg"})

	require.Error(t, err)
	assert.Nil(t, resp)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, "REQUEST_DENIED", statusErr.Status)
	assert.Equal(t, "nearbysearch", statusErr.Endpoint)
	assert.Contains(t, err.Error(), "API key is invalid")
}

func TestNearbySearch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": "rate limit exceeded"}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.NearbySearch(context.Background(), NearbySearchRequest{Keyword: "tcg"})

	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "429")
}

func TestNearbySearch_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status": `)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.NearbySearch(context.Background(), NearbySearchRequest{Keyword: "tcg"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}

func TestNearbySearch_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.NearbySearch(ctx, NearbySearchRequest{Keyword: "tcg"})

	assert.Error(t, err)
	assert.Nil(t, resp)
}

func TestNearbySearch_TransportErrorHidesKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	client := NewClient("SECRET-KEY-123", WithBaseURL(base))
	_, err := client.NearbySearch(context.Background(), NearbySearchRequest{
		Location:     LatLng{Lat: 1, Lng: 2},
		RadiusMeters: 15000,
		Keyword:      "tcg",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "google: send request")
	assert.Contains(t, err.Error(), "key=REDACTED")
	assert.NotContains(t, err.Error(), "SECRET-KEY-123")
}

func TestPlaceDetails_TransportErrorHidesKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	client := NewClient("SECRET-KEY-123", WithBaseURL(base))
	_, err := client.PlaceDetails(context.Background(), "ChIJ-milano1", nil)

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRET-KEY-123")
}

func TestRedactKey(t *testing.T) {
	plain := errors.New("boom")
	assert.Same(t, plain, redactKey(plain))

	err := redactKey(&url.Error{Op: "Get", URL: "https://example.test/x?key=abc&place_id=p1", Err: plain})
	var uerr *url.Error
	require.True(t, errors.As(err, &uerr))
	assert.NotContains(t, uerr.URL, "abc")
	assert.Contains(t, uerr.URL, "place_id=p1")
	assert.ErrorIs(t, err, plain)
}

func TestPlaceDetails_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/details/json", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "ChIJ-milano1", q.Get("place_id"))
		assert.Contains(t, q.Get("fields"), "formatted_phone_number")
		assert.Contains(t, q.Get("fields"), "editorial_summary")
		assert.Equal(t, "test-key", q.Get("key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"status": "OK",
			"result": {
				"formatted_phone_number": "02 1234567",
				"website": "https://pokemoncenter.example.it",
				"formatted_address": "Via Torino 1, 20123 Milano MI, Italia",
				"editorial_summary": {"overview": "Negozio ufficiale Pokémon"},
				"reviews": [{"author_name": "Luca", "rating": 5, "text": "Ottimo"}],
				"opening_hours": {"open_now": true, "periods": [{"open": {"day": 1, "time": "0900"}}]}
			}
		}`)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.PlaceDetails(context.Background(), "ChIJ-milano1", nil)

	require.NoError(t, err)
	d := resp.Result
	assert.Equal(t, "02 1234567", d.FormattedPhoneNumber)
	assert.Equal(t, "https://pokemoncenter.example.it", d.Website)
	assert.Equal(t, "Via Torino 1, 20123 Milano MI, Italia", d.FormattedAddress)
	require.NotNil(t, d.EditorialSummary)
	assert.Equal(t, "Negozio ufficiale Pokémon", d.EditorialSummary.Overview)
	require.Len(t, d.Reviews, 1)
	require.NotNil(t, d.OpeningHours)
	assert.JSONEq(t, `[{"open": {"day": 1, "time": "0900"}}]`, string(d.OpeningHours.Periods))
}

func TestPlaceDetails_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status": "NOT_FOUND"}`)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.PlaceDetails(context.Background(), "ChIJ-gone", []string{"website"})

	require.Error(t, err)
	assert.Nil(t, resp)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, "NOT_FOUND", statusErr.Status)
}

func TestPlaceDetails_EmptyPlaceID(t *testing.T) {
	client := NewClient("test-key", WithBaseURL("http://127.0.0.1:0"))
	_, err := client.PlaceDetails(context.Background(), "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "place id is required")
}

func TestWithHTTPClient(t *testing.T) {
	hc := &http.Client{}
	c := NewClient("k", WithHTTPClient(hc)).(*httpClient)
	assert.Same(t, hc, c.http)
	assert.Equal(t, defaultBaseURL, c.baseURL)
}
