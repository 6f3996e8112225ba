// Package builder is the boundary to the hosted visual page-builder CMS.
// It talks to the public content API over HTTP and decodes content entries.
package builder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/pagebuilder-site/internal/schemas"
)

// DefaultBaseURL is the public content API host.
const DefaultBaseURL = "https://cdn.builder.io"

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for content API requests.
const DefaultUserAgent = "pagebuilder-site/1.0"

// maxResponseBytes caps the size of a content API response body.
const maxResponseBytes = 16 << 20

// Config configures a Client. It replaces process-wide SDK initialization:
// every Client is built from an explicit Config at startup.
type Config struct {
	APIKey    string
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Query holds the targeting attributes of a content lookup.
type Query struct {
	URLPath string `json:"urlPath"`
	Locale  string `json:"locale,omitempty"`
}

// GetOptions tunes a single content API call.
type GetOptions struct {
	IncludeRefs bool
	CacheBust   bool
}

// Error represents a failed content API call.
type Error struct {
	Model      string
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("content api error for model %s: %s: %v", e.Model, e.Message, e.Cause)
	}
	return fmt.Sprintf("content api error for model %s: %s", e.Model, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Client fetches content entries from the content API.
type Client struct {
	apiKey     string
	baseURL    *url.URL
	userAgent  string
	httpClient *http.Client
}

// NewClient creates a client from cfg. httpClient may be nil.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("builder api key is required")
	}

	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid builder base URL %q", base)
	}

	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    parsed,
		userAgent:  userAgent,
		httpClient: httpClient,
	}, nil
}

type contentResponse struct {
	Results []Content `json:"results"`
}

// Get returns the best match for model and q, or nil when nothing matches.
func (c *Client) Get(ctx context.Context, model string, q Query, opts GetOptions) (*Content, error) {
	reqURL := c.contentURL(model, q, opts)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &Error{Model: model, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Model: model, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &Error{Model: model, Message: "failed to read response body", StatusCode: resp.StatusCode, Cause: err}
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Model: model, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode), StatusCode: resp.StatusCode}
	}

	if err := schemas.ValidateContentResponse(body); err != nil {
		return nil, &Error{Model: model, Message: "unexpected response shape", StatusCode: resp.StatusCode, Cause: err}
	}

	var decoded contentResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &Error{Model: model, Message: "failed to decode response", StatusCode: resp.StatusCode, Cause: err}
	}
	if len(decoded.Results) == 0 {
		return nil, nil
	}
	return &decoded.Results[0], nil
}

func (c *Client) contentURL(model string, q Query, opts GetOptions) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/api/v3/content/" + url.PathEscape(model)

	values := url.Values{}
	values.Set("apiKey", c.apiKey)
	values.Set("limit", "1")
	if q.URLPath != "" {
		values.Set("userAttributes.urlPath", q.URLPath)
	}
	if q.Locale != "" {
		values.Set("userAttributes.locale", q.Locale)
		values.Set("locale", q.Locale)
	}
	if opts.IncludeRefs {
		values.Set("includeRefs", strconv.FormatBool(true))
	}
	if opts.CacheBust {
		values.Set("cachebust", strconv.FormatBool(true))
	}
	u.RawQuery = values.Encode()
	return u.String()
}
