package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gojektech/heimdall/v6/httpclient"

	"github.com/khoahotran/devconnector/internal/application/service"
)

const (
	DefaultBaseURL = "https://api.github.com"
	userAgent      = "devconnector-api"
	reposPerPage   = "5"
	reposSort      = "created:asc"
)

type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// Client lists public repositories through the GitHub REST API. It never retries.
type Client struct {
	http         *httpclient.Client
	baseURL      string
	clientID     string
	clientSecret string
}

var _ service.RepoLookup = (*Client)(nil)

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		http: httpclient.NewClient(
			httpclient.WithHTTPTimeout(timeout),
			httpclient.WithRetryCount(0),
		),
		baseURL:      baseURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
	}
}

func (c *Client) reposURL(username string) string {
	q := url.Values{}
	q.Set("per_page", reposPerPage)
	q.Set("sort", reposSort)
	if c.clientID != "" {
		q.Set("client_id", c.clientID)
	}
	if c.clientSecret != "" {
		q.Set("client_secret", c.clientSecret)
	}
	return fmt.Sprintf("%s/users/%s/repos?%s", c.baseURL, url.PathEscape(username), q.Encode())
}

// ListRepos returns the raw JSON body on 200 and ErrNoExternalProfile on any
// other status. Transport failures are returned as is.
func (c *Client) ListRepos(ctx context.Context, username string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.reposURL(username), nil)
	if err != nil {
		return nil, fmt.Errorf("build github request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")

	// heimdall reports 5xx as an error alongside the response.
	resp, err := c.http.Do(req)
	if resp != nil {
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil, fmt.Errorf("%w: github answered %d for %q", service.ErrNoExternalProfile, resp.StatusCode, username)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("github request: %w", err)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read github response: %w", err)
	}
	return body, nil
}
