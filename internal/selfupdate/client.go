// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"bytes"
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
)

const (
	// maxDownloadBytes caps a downloaded release payload (500 MB).
	maxDownloadBytes = 500 << 20

	// maxJSONResponseBytes caps a releases API response (10 MB).
	maxJSONResponseBytes = 10 << 20

	// DefaultAPIURL is the GitHub REST API root.
	DefaultAPIURL = "https://api.github.com"
)

var (
	// ErrNotFound is returned when the server answers 404.
	ErrNotFound = errors.New("not found")

	// ErrReleaseNotFound is returned when a release tag does not exist.
	ErrReleaseNotFound = errors.New("release not found")
)

type (
	// StatusError is a non-200, non-404 HTTP response.
	StatusError struct {
		URL    string
		Status int
	}

	// RateLimitError is returned when the GitHub API quota is exhausted.
	RateLimitError struct {
		Limit   int
		ResetAt time.Time
	}

	// Release is the subset of GitHub release metadata kiln uses.
	Release struct {
		TagName    string `json:"tag_name"`
		Name       string `json:"name"`
		HTMLURL    string `json:"html_url"`
		Prerelease bool   `json:"prerelease"`
		Draft      bool   `json:"draft"`
	}

	// Client downloads release assets and queries the releases API.
	Client struct {
		httpClient *http.Client
		apiURL     string
		owner      string
		repo       string
		token      string
		userAgent  string
	}

	// ClientOption configures a Client.
	ClientOption func(*Client)
)

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Status)
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("GitHub API rate limit of %d exceeded, resets at %s",
		e.Limit, e.ResetAt.UTC().Format("15:04 UTC"))
}

// WithHTTPClient sets the transport, e.g. for proxies or timeouts.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) { cl.httpClient = c }
}

// WithAPIURL points release lookups at another API host.
func WithAPIURL(base string) ClientOption {
	return func(cl *Client) { cl.apiURL = strings.TrimRight(base, "/") }
}

// WithRepo sets the repository whose releases are queried.
func WithRepo(owner, repo string) ClientOption {
	return func(cl *Client) {
		cl.owner = owner
		cl.repo = repo
	}
}

// WithToken attaches a GitHub token to requests sent to GitHub hosts.
func WithToken(token string) ClientOption {
	return func(cl *Client) { cl.token = token }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(cl *Client) { cl.userAgent = ua }
}

// NewClient returns a Client for the kilnhq/kiln repository.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		apiURL:     DefaultAPIURL,
		owner:      "kilnhq",
		repo:       "kiln",
		userAgent:  "kiln/dev",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch downloads rawURL into memory, following redirects. A 404 yields an
// error wrapping ErrNotFound; any other non-200 status is a *StatusError.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.get(ctx, rawURL, "application/octet-stream")
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", redactURL(rawURL), err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("downloading %s: %w", redactURL(rawURL), ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, &StatusError{URL: redactURL(rawURL), Status: resp.StatusCode}
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", redactURL(rawURL), err)
	}
	if n > maxDownloadBytes {
		return nil, fmt.Errorf("downloading %s: payload exceeds %d bytes", redactURL(rawURL), maxDownloadBytes)
	}
	return buf.Bytes(), nil
}

// FetchOptional is Fetch for resources that may legitimately be missing:
// a 404 returns found=false and no error.
func (c *Client) FetchOptional(ctx context.Context, rawURL string) (data []byte, found bool, err error) {
	data, err = c.Fetch(ctx, rawURL)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// LatestRelease returns the newest published, non-prerelease release.
func (c *Client) LatestRelease(ctx context.Context) (*Release, error) {
	return c.release(ctx, fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.apiURL, c.owner, c.repo))
}

// ReleaseByTag returns the release for tag, or ErrReleaseNotFound.
func (c *Client) ReleaseByTag(ctx context.Context, tag string) (*Release, error) {
	return c.release(ctx, fmt.Sprintf("%s/repos/%s/%s/releases/tags/%s",
		c.apiURL, c.owner, c.repo, url.PathEscape(tag)))
}

func (c *Client) release(ctx context.Context, endpoint string) (*Release, error) {
	resp, err := c.get(ctx, endpoint, "application/vnd.github+json")
	if err != nil {
		return nil, fmt.Errorf("querying releases: %w", err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if err := checkRateLimit(resp); err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrReleaseNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, &StatusError{URL: redactURL(endpoint), Status: resp.StatusCode}
	}

	var r Release
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJSONResponseBytes)).Decode(&r); err != nil {
		return nil, fmt.Errorf("decoding release: %w", err)
	}
	return &r, nil
}

func (c *Client) get(ctx context.Context, rawURL, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" && isGitHubHost(req.URL, c.apiURL) {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// checkRateLimit turns an exhausted X-RateLimit-Remaining into an error.
func checkRateLimit(resp *http.Response) error {
	rem, err := strconv.Atoi(resp.Header.Get("X-RateLimit-Remaining"))
	if err != nil || rem > 0 {
		return nil //nolint:nilerr // absent or malformed header means no limit info
	}
	// Companion headers are diagnostic only; zero values are acceptable.
	limit, _ := strconv.Atoi(resp.Header.Get("X-RateLimit-Limit"))
	reset, _ := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64)
	return &RateLimitError{Limit: limit, ResetAt: time.Unix(reset, 0)}
}

// isGitHubHost reports whether the token may be sent to reqURL: the
// configured API host, or github.com and its release CDN when the API is the
// public one. Redirect targets elsewhere never see the token.
func isGitHubHost(reqURL *url.URL, apiURL string) bool {
	base, err := url.Parse(apiURL)
	if err != nil {
		return false
	}
	if strings.EqualFold(reqURL.Host, base.Host) {
		return true
	}
	return strings.EqualFold(base.Host, "api.github.com") && strings.EqualFold(reqURL.Host, "github.com")
}

// redactURL drops query and fragment so signed URLs never reach logs.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid-url>"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
