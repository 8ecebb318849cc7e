package helloasso

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"helloasso-export/internal/domain"
	"helloasso-export/internal/logger"
)

const (
	// DefaultPageSize is the page size requested from the payments endpoint.
	DefaultPageSize = 100
	// DefaultMaxAttempts bounds the attempts per page request. Only network
	// errors and 5xx responses consume extra attempts.
	DefaultMaxAttempts = 3

	apiRequestTimeout = 30 * time.Second
	baseRetryDelay    = 500 * time.Millisecond
)

// Client pages through the HelloAsso v5 payments endpoint.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	tokens      TokenSource
	pageSize    int
	graceDays   int
	maxAttempts int
	retryDelay  func(attempt int) time.Duration
}

// NewClient creates a payments client for the given endpoint URL. graceDays
// extends the fetch window past the end of the requested month.
func NewClient(client *http.Client, baseURL string, tokens TokenSource, graceDays int) *Client {
	if client == nil {
		client = &http.Client{Timeout: apiRequestTimeout}
	}
	if graceDays < 0 {
		graceDays = 0
	}
	return &Client{
		httpClient:  client,
		baseURL:     strings.TrimRight(baseURL, "/"),
		tokens:      tokens,
		pageSize:    DefaultPageSize,
		graceDays:   graceDays,
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  retryDelay,
	}
}

// FetchAll retrieves every payment of the period's fetch window, following
// the continuation token until pageIndex reaches totalPages. Pages are
// concatenated in API order. A partial page set is never returned: any
// missing pagination metadata fails the whole fetch.
func (c *Client) FetchAll(ctx context.Context, period domain.Period) ([]Payment, error) {
	from, to := period.Window(c.graceDays)
	log := logger.FromContext(ctx)

	var all []Payment
	continuation := ""
	for page := 1; ; page++ {
		pg, err := c.fetchPage(ctx, page, from, to, continuation)
		if err != nil {
			return nil, err
		}
		if pg.Data == nil {
			return nil, domain.Errorf(domain.KindFetch, "payments page %d: response carries no data array", page)
		}
		if pg.Pagination == nil {
			return nil, domain.Errorf(domain.KindFetch, "payments page %d: response carries no pagination metadata", page)
		}
		for i := range pg.Data {
			if err := pg.Data[i].validate(); err != nil {
				return nil, domain.Errorf(domain.KindFetch, "payments page %d: %w", page, err)
			}
		}
		all = append(all, pg.Data...)
		log.Info().Int("page", page).Int("items", len(pg.Data)).Msg("Fetched payments page")

		if pg.Pagination.PageIndex >= pg.Pagination.TotalPages {
			break
		}
		if pg.Pagination.ContinuationToken == "" {
			return nil, domain.Errorf(domain.KindFetch, "payments page %d: more pages reported but no continuation token", page)
		}
		continuation = pg.Pagination.ContinuationToken
	}
	return all, nil
}

// fetchPage requests one page, retrying transient failures with exponential
// backoff and jitter.
func (c *Client) fetchPage(ctx context.Context, page int, from, to civil.Date, continuation string) (*paymentsPage, error) {
	q := url.Values{}
	q.Set("from", from.String())
	q.Set("to", to.String())
	q.Set("pageSize", strconv.Itoa(c.pageSize))
	q.Set("withCount", "true")
	if continuation != "" {
		q.Set("continuationToken", continuation)
	}
	reqURL := c.baseURL + "?" + q.Encode()

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, domain.E(domain.KindFetch, ctx.Err())
			case <-time.After(c.retryDelay(attempt - 1)):
			}
		}

		pg, retryable, err := c.doPage(ctx, reqURL)
		if err == nil {
			return pg, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}
	return nil, domain.Errorf(domain.KindFetch, "payments page %d failed after %d attempts: %w", page, c.maxAttempts, lastErr)
}

// doPage performs a single request attempt. The bool reports whether the
// failure may be retried (network error or 5xx); non-retryable errors come
// back already classified.
func (c *Client) doPage(ctx context.Context, reqURL string) (*paymentsPage, bool, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		// Already classified by the token manager, never retried here.
		return nil, false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, domain.Errorf(domain.KindFetch, "build payments request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("payments request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, false, domain.Errorf(domain.KindAuth, "payments request returned status %d", resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("payments request returned status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, domain.Errorf(domain.KindFetch, "payments request returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read payments response: %w", err)
	}

	var pg paymentsPage
	if err := json.Unmarshal(body, &pg); err != nil {
		return nil, false, domain.Errorf(domain.KindFetch, "decode payments response: %w", err)
	}
	return &pg, false, nil
}

// retryDelay computes backoff for the given retry: base * 2^(attempt-1) plus
// up to 250ms of jitter.
func retryDelay(attempt int) time.Duration {
	backoff := time.Duration(math.Pow(2, float64(attempt-1))) * baseRetryDelay
	jitter := time.Duration(rand.Intn(250)) * time.Millisecond
	return backoff + jitter
}
