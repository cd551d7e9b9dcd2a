// Package smoobu is a client for the Smoobu reservation feed.
package smoobu

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

	"github.com/stwalsh4118/cleanteam/internal/config"
	"github.com/stwalsh4118/cleanteam/internal/logger"
	"github.com/stwalsh4118/cleanteam/internal/models"
)

// Client errors
var (
	ErrUpstream      = errors.New("reservation feed request failed")
	ErrMissingAPIKey = errors.New("reservation feed api key is not set")
)

const (
	reservationsPath = "/api/reservations"
	dateLayout       = "2006-01-02"
	// maxPages bounds pagination in case the feed misreports page_count.
	maxPages = 200
)

// Window is the inclusive date range fetched from the feed.
type Window struct {
	From time.Time
	To   time.Time
}

// NewWindow returns the window from pastDays before now to futureDays after it.
func NewWindow(now time.Time, pastDays, futureDays int) Window {
	return Window{
		From: now.AddDate(0, 0, -pastDays),
		To:   now.AddDate(0, 0, futureDays),
	}
}

// FromDate returns the lower bound as YYYY-MM-DD.
func (w Window) FromDate() string { return w.From.UTC().Format(dateLayout) }

// ToDate returns the upper bound as YYYY-MM-DD.
func (w Window) ToDate() string { return w.To.UTC().Format(dateLayout) }

// page is one page of the reservations endpoint. Depending on the account
// the list arrives as "bookings" or "reservations".
type page struct {
	Bookings     []models.Reservation `json:"bookings"`
	Reservations []models.Reservation `json:"reservations"`
	PageCount    int                  `json:"page_count"`
	Page         int                  `json:"page"`
}

func (p *page) items() []models.Reservation {
	if len(p.Bookings) > 0 {
		return p.Bookings
	}
	return p.Reservations
}

// Client fetches reservations over HTTP.
type Client struct {
	baseURL    string
	pageSize   int
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a client from configuration.
func NewClient(cfg config.SmoobuConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		pageSize:   cfg.PageSize,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log.WithComponent("smoobu"),
	}
}

// FetchReservations returns every non-blocked reservation in the window,
// following pagination. Any failed page fails the whole fetch.
func (c *Client) FetchReservations(ctx context.Context, apiKey string, window Window) ([]models.Reservation, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	var all []models.Reservation
	for pageNum := 1; pageNum <= maxPages; pageNum++ {
		p, err := c.fetchPage(ctx, apiKey, window, pageNum)
		if err != nil {
			return nil, err
		}
		all = append(all, p.items()...)

		if p.PageCount <= pageNum {
			break
		}
	}

	c.log.Info("Fetched reservations", logger.Fields{
		"from":  window.FromDate(),
		"to":    window.ToDate(),
		"count": len(all),
	})
	return all, nil
}

func (c *Client) buildURL(window Window, pageNum int) string {
	u, _ := url.Parse(c.baseURL + reservationsPath)
	q := u.Query()
	q.Set("from", window.FromDate())
	q.Set("to", window.ToDate())
	q.Set("excludeBlocked", "true")
	q.Set("page", strconv.Itoa(pageNum))
	if c.pageSize > 0 {
		q.Set("pageSize", strconv.Itoa(c.pageSize))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) fetchPage(ctx context.Context, apiKey string, window Window, pageNum int) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(window, pageNum), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Api-Key", apiKey)
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Warn("Reservation feed returned error status", logger.Fields{
			"status": resp.StatusCode,
			"page":   pageNum,
			"body":   string(body),
		})
		return nil, fmt.Errorf("%w: %d %s", ErrUpstream, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var p page
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: failed to decode page %d: %v", ErrUpstream, pageNum, err)
	}
	return &p, nil
}
