package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v68/github"
)

const (
	// DefaultBaseURL is the public GitHub REST endpoint.
	DefaultBaseURL = "https://api.github.com"

	// DefaultTimeout bounds a single request including reading the body.
	DefaultTimeout = 30 * time.Second
)

// Client is the repository browser's view of the GitHub REST API.
type Client struct {
	inner  *gh.Client
	tokens *tokenHolder
}

type options struct {
	baseURL    string
	token      string
	timeout    time.Duration
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*options)

// WithBaseURL points the client at another API root, e.g. a test server.
func WithBaseURL(baseURL string) Option {
	return func(o *options) { o.baseURL = baseURL }
}

// WithToken sets the initial authorization token.
func WithToken(token string) Option {
	return func(o *options) { o.token = token }
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithHTTPClient supplies the underlying HTTP client. Its transport is
// wrapped, never replaced.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// NewClient creates a GitHub API client.
func NewClient(opts ...Option) (*Client, error) {
	o := options{baseURL: DefaultBaseURL, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	base, err := url.Parse(strings.TrimSuffix(o.baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parsing base URL %q: %w", o.baseURL, err)
	}

	tokens := &tokenHolder{token: o.token}

	var hc http.Client
	if o.httpClient != nil {
		hc = *o.httpClient
	}
	rt := hc.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	hc.Transport = &transport{base: rt, tokens: tokens}
	hc.Timeout = o.timeout

	inner := gh.NewClient(&hc)
	inner.BaseURL = base

	return &Client{inner: inner, tokens: tokens}, nil
}

// SetAuthorizationToken replaces the token used by subsequent requests.
// An empty token sends requests unauthenticated.
func (c *Client) SetAuthorizationToken(token string) {
	c.tokens.set(token)
}

// ListRepositories returns the repositories of an organization.
func (c *Client) ListRepositories(ctx context.Context, organization string) ([]RepositorySummary, error) {
	req, err := c.inner.NewRequest(http.MethodGet, "orgs/"+url.PathEscape(organization)+"/repos", nil)
	if err != nil {
		return nil, &APIError{Type: ErrorTypeInvalidResponse, Cause: err}
	}

	var repos []RepositorySummary
	resp, err := c.inner.Do(ctx, req, &repos)
	if err := classify(resp, err); err != nil {
		return nil, err
	}
	if repos == nil {
		repos = []RepositorySummary{}
	}
	return repos, nil
}

// GetRepository returns a single repository by its "owner/name" full name.
func (c *Client) GetRepository(ctx context.Context, fullName string) (*RepositoryDetail, error) {
	req, err := c.inner.NewRequest(http.MethodGet, "repos/"+escapeFullName(fullName), nil)
	if err != nil {
		return nil, &APIError{Type: ErrorTypeInvalidResponse, Cause: err}
	}

	var repo RepositoryDetail
	resp, err := c.inner.Do(ctx, req, &repo)
	if err := classify(resp, err); err != nil {
		return nil, err
	}
	return &repo, nil
}

func escapeFullName(fullName string) string {
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok {
		return url.PathEscape(fullName)
	}
	return url.PathEscape(owner) + "/" + url.PathEscape(name)
}
