/*
Package holidayapi imports public holidays from the Nager.Date API.

PURPOSE:
  The command layer's pathway for populating the holidays table. The
  engine never talks to this package; optimization only reads holiday
  rows that are already persisted.

USAGE:
  client := holidayapi.NewClient(logger)
  holidays, err := client.PublicHolidays(ctx, "FR", 2026)

SEE ALSO:
  - import.go: Preview and import against the store
*/
package holidayapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// DefaultBaseURL is the public Nager.Date endpoint.
const DefaultBaseURL = "https://date.nager.at/api/v3"

// Country is one entry of the AvailableCountries listing.
type Country struct {
	CountryCode string `json:"countryCode"`
	Name        string `json:"name"`
}

// PublicHoliday is one holiday as the API reports it. Date is ISO-8601.
type PublicHoliday struct {
	Date        string   `json:"date"`
	LocalName   string   `json:"localName"`
	Name        string   `json:"name"`
	CountryCode string   `json:"countryCode"`
	Global      bool     `json:"global"`
	Types       []string `json:"types"`
}

// Client talks to the Nager.Date API.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (used by tests).
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient builds a Client with a 30s request timeout.
func NewClient(log *zap.Logger, opts ...Option) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AvailableCountries lists the countries the API can serve.
func (c *Client) AvailableCountries(ctx context.Context) ([]Country, error) {
	var countries []Country
	if err := c.getJSON(ctx, c.baseURL+"/AvailableCountries", &countries); err != nil {
		return nil, err
	}
	c.log.Info("fetched available countries", zap.Int("count", len(countries)))
	return countries, nil
}

// PublicHolidays lists the public holidays of one country for one year.
func (c *Client) PublicHolidays(ctx context.Context, countryCode string, year int) ([]PublicHoliday, error) {
	url := fmt.Sprintf("%s/PublicHolidays/%d/%s", c.baseURL, year, countryCode)
	var holidays []PublicHoliday
	if err := c.getJSON(ctx, url, &holidays); err != nil {
		return nil, err
	}
	c.log.Info("fetched public holidays",
		zap.String("country", countryCode),
		zap.Int("year", year),
		zap.Int("count", len(holidays)),
	)
	return holidays, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("api error: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parse error: %w", err)
	}
	return nil
}
