package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// Upstream status codes returned in the body of legacy Places responses.
const (
	StatusOK          = "OK"
	StatusZeroResults = "ZERO_RESULTS"
)

// DefaultDetailFields is the field mask requested from Place Details.
var DefaultDetailFields = []string{
	"formatted_phone_number",
	"website",
	"opening_hours",
	"formatted_address",
	"editorial_summary",
	"reviews",
	"rating",
	"user_ratings_total",
}

// Client performs Google Places API operations.
type Client interface {
	NearbySearch(ctx context.Context, req NearbySearchRequest) (*NearbySearchResponse, error)
	PlaceDetails(ctx context.Context, placeID string, fields []string) (*PlaceDetailsResponse, error)
}

// NearbySearchRequest is a keyword search around a point.
type NearbySearchRequest struct {
	Location     LatLng
	RadiusMeters int
	Keyword      string
}

// NearbySearchResponse is the response from Places Nearby Search.
type NearbySearchResponse struct {
	Status        string  `json:"status"`
	ErrorMessage  string  `json:"error_message,omitempty"`
	Results       []Place `json:"results"`
	NextPageToken string  `json:"next_page_token,omitempty"`
}

// Place represents a place returned by Nearby Search.
type Place struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Vicinity         string   `json:"vicinity"`
	Geometry         Geometry `json:"geometry"`
	Types            []string `json:"types"`
	BusinessStatus   string   `json:"business_status,omitempty"`
	Rating           *float64 `json:"rating,omitempty"`
	UserRatingsTotal int      `json:"user_ratings_total,omitempty"`
}

// Geometry wraps a place location.
type Geometry struct {
	Location LatLng `json:"location"`
}

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PlaceDetailsResponse is the response from Place Details.
type PlaceDetailsResponse struct {
	Status       string       `json:"status"`
	ErrorMessage string       `json:"error_message,omitempty"`
	Result       PlaceDetails `json:"result"`
}

// PlaceDetails holds the enrichment fields requested by DefaultDetailFields.
type PlaceDetails struct {
	FormattedPhoneNumber string            `json:"formatted_phone_number,omitempty"`
	Website              string            `json:"website,omitempty"`
	FormattedAddress     string            `json:"formatted_address,omitempty"`
	EditorialSummary     *EditorialSummary `json:"editorial_summary,omitempty"`
	Reviews              []Review          `json:"reviews,omitempty"`
	OpeningHours         *OpeningHours     `json:"opening_hours,omitempty"`
	Rating               *float64          `json:"rating,omitempty"`
	UserRatingsTotal     int               `json:"user_ratings_total,omitempty"`
}

// EditorialSummary is Google's short description of a place.
type EditorialSummary struct {
	Overview string `json:"overview"`
}

// Review is a single user review.
type Review struct {
	AuthorName string  `json:"author_name"`
	Rating     float64 `json:"rating"`
	Text       string  `json:"text"`
}

// OpeningHours keeps the raw periods so they can be stored verbatim.
type OpeningHours struct {
	OpenNow bool            `json:"open_now"`
	Periods json.RawMessage `json:"periods,omitempty"`
}

// StatusError reports a non-success status in an otherwise valid response body.
type StatusError struct {
	Endpoint string
	Status   string
	Message  string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("google: %s returned status %s: %s", e.Endpoint, e.Status, e.Message)
	}
	return fmt.Sprintf("google: %s returned status %s", e.Endpoint, e.Status)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *httpClient) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Google Places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) NearbySearch(ctx context.Context, req NearbySearchRequest) (*NearbySearchResponse, error) {
	params := url.Values{
		"location": {formatLatLng(req.Location)},
		"radius":   {strconv.Itoa(req.RadiusMeters)},
		"keyword":  {req.Keyword},
		"key":      {c.apiKey},
	}

	var result NearbySearchResponse
	if err := c.get(ctx, "/nearbysearch/json", params, &result); err != nil {
		return nil, err
	}

	if result.Status != StatusOK && result.Status != StatusZeroResults {
		return nil, &StatusError{Endpoint: "nearbysearch", Status: result.Status, Message: result.ErrorMessage}
	}
	return &result, nil
}

func (c *httpClient) PlaceDetails(ctx context.Context, placeID string, fields []string) (*PlaceDetailsResponse, error) {
	if placeID == "" {
		return nil, eris.New("google: place id is required")
	}
	if len(fields) == 0 {
		fields = DefaultDetailFields
	}
	params := url.Values{
		"place_id": {placeID},
		"fields":   {strings.Join(fields, ",")},
		"key":      {c.apiKey},
	}

	var result PlaceDetailsResponse
	if err := c.get(ctx, "/details/json", params, &result); err != nil {
		return nil, err
	}

	if result.Status != StatusOK {
		return nil, &StatusError{Endpoint: "details", Status: result.Status, Message: result.ErrorMessage}
	}
	return &result, nil
}

func (c *httpClient) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "google: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(redactKey(err), "google: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "google: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("google: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return eris.Wrap(err, "google: unmarshal response")
	}
	return nil
}

// redactKey masks the key query parameter in the URL carried by transport errors.
func redactKey(err error) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err
	}
	u, perr := url.Parse(uerr.URL)
	if perr != nil {
		return &url.Error{Op: uerr.Op, URL: "[redacted]", Err: uerr.Err}
	}
	q := u.Query()
	if q.Has("key") {
		q.Set("key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return &url.Error{Op: uerr.Op, URL: u.String(), Err: uerr.Err}
}

func formatLatLng(p LatLng) string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lng, 'f', -1, 64)
}
