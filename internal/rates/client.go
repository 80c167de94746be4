// Package rates talks to the frankfurter.app exchange-rate API and writes
// observed rates into the rate table. It is the only writer of that table;
// the converter and reports treat it as read-only.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"kakeibo/internal/core"
)

const DefaultBaseURL = "https://api.frankfurter.app"

// Client is a thin HTTP client for the frankfurter API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// DailyRates holds one business day's observations, target code to rate.
type DailyRates struct {
	Date  core.Date
	Rates map[string]float64
}

type latestResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

type rangeResponse struct {
	Base  string                        `json:"base"`
	Rates map[string]map[string]float64 `json:"rates"`
}

// Latest fetches the most recent rates from base to the given targets.
// An empty rates object is not an HTTP failure but makes the payload
// unusable; callers treat it as a degraded run, not an error.
func (c *Client) Latest(ctx context.Context, base string, targets []string) (DailyRates, error) {
	endpoint := fmt.Sprintf("%s/latest?from=%s&to=%s",
		c.baseURL, url.QueryEscape(base), url.QueryEscape(strings.Join(targets, ",")))

	var parsed latestResponse
	if err := c.getJSON(ctx, endpoint, &parsed); err != nil {
		return DailyRates{}, err
	}
	if len(parsed.Rates) == 0 {
		return DailyRates{}, fmt.Errorf("exchange API response has no rates")
	}

	date, err := core.ParseDate(parsed.Date)
	if err != nil {
		return DailyRates{}, fmt.Errorf("parse rate date %q: %w", parsed.Date, err)
	}
	return DailyRates{Date: date, Rates: parsed.Rates}, nil
}

// Range fetches rates for every business day in [start, end]. The API keys
// the response by the business day it actually observed, which the caller
// must preserve.
func (c *Client) Range(ctx context.Context, base string, targets []string, start, end core.Date) ([]DailyRates, error) {
	endpoint := fmt.Sprintf("%s/%s..%s?from=%s&to=%s",
		c.baseURL, start.String(), end.String(),
		url.QueryEscape(base), url.QueryEscape(strings.Join(targets, ",")))

	var parsed rangeResponse
	if err := c.getJSON(ctx, endpoint, &parsed); err != nil {
		return nil, err
	}

	days := make([]DailyRates, 0, len(parsed.Rates))
	for dateStr, dayRates := range parsed.Rates {
		date, err := core.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse rate date %q: %w", dateStr, err)
		}
		days = append(days, DailyRates{Date: date, Rates: dayRates})
	}
	return days, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetch exchange rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("exchange API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode exchange API response: %w", err)
	}
	return nil
}
