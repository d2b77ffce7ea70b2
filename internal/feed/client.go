package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// DateFormat is the wire format for feed dates, both in request parameters
// and in response map keys.
const DateFormat = "2006-01-02"

// WindowDays is the number of consecutive calendar days a non-detailed feed
// response covers from any window start date.
const WindowDays = 8

const defaultBaseURL = "https://api.nasa.gov/neo/rest/v1/feed"

// FetchError is a failed window request: a transport failure or a non-200
// status. It carries the request URL for diagnostics.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("feed: request %s failed: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("feed: request %s returned status %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client issues bounded, non-detailed feed requests. It performs exactly one
// attempt per call; pacing and retry policy belong to the caller.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch requests the window starting at start. Success is defined strictly
// by HTTP 200; anything else is a *FetchError.
func (c *Client) Fetch(ctx context.Context, start time.Time) (*Response, error) {
	u, err := c.windowURL(start)
	if err != nil {
		return nil, &FetchError{URL: c.baseURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &FetchError{URL: u, Err: err}
	}

	c.logger.Debug("fetching feed window",
		zap.String("start_date", start.Format(DateFormat)),
	)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: u, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: u, StatusCode: res.StatusCode}
	}

	var response Response
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, &FetchError{URL: u, Err: err}
	}

	return &response, nil
}

func (c *Client) windowURL(start time.Time) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("start_date", start.Format(DateFormat))
	q.Set("detailed", "false")
	q.Set("api_key", c.apiKey)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
