// Package github is a minimal GitHub REST client for publishing content.
//
// All writes of a sync go through AtomicCommit, which creates blobs, a tree and
// a commit and then moves the branch with a non-forced ref update, so the
// branch either gains one commit containing every file or does not move.
// The client never retries; callers decide based on the remote.Error code.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/content-sync-server/internal/httpclient"
	"github.com/stacklok/content-sync-server/internal/remote"
)

const (
	// DefaultAPIURL is the public GitHub REST endpoint
	DefaultAPIURL = "https://api.github.com"

	// APIVersion is sent as X-GitHub-Api-Version
	APIVersion = "2022-11-28"

	acceptHeader = "application/vnd.github+json"
)

var repoPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)

// Config identifies the repository and credentials
type Config struct {
	// Repository is "owner/repo"
	Repository string
	// Branch defaults to "main"
	Branch string
	// Token is a personal access or installation token
	Token string
	// APIURL defaults to DefaultAPIURL
	APIURL string
}

// Client talks to one repository branch
type Client struct {
	cfg    Config
	http   httpclient.Client
	tracer trace.Tracer
}

// Option configures a Client
type Option func(*Client)

// WithTracer enables spans around remote operations
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = tracer
	}
}

// NewClient creates a client. The configuration is validated on every call so
// that a bad configuration is reported as a classified remote.Error.
func NewClient(cfg Config, httpClient httpclient.Client, opts ...Option) *Client {
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	cfg.Repository = strings.TrimSpace(cfg.Repository)

	c := &Client{cfg: cfg, http: httpClient}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Repository returns "owner/repo"
func (c *Client) Repository() string {
	return c.cfg.Repository
}

// Branch returns the target branch
func (c *Client) Branch() string {
	return c.cfg.Branch
}

// Validate checks the configuration without calling the API
func (c *Client) Validate() error {
	if err := c.validate(); err != nil {
		return err
	}
	return nil
}

func (c *Client) validate() *remote.Error {
	switch {
	case c.cfg.Repository == "":
		return remote.New(remote.CodeRepoNotConfigured, "validate", "no repository configured")
	case !repoPattern.MatchString(c.cfg.Repository):
		return remote.New(remote.CodeRepoInvalidFormat, "validate",
			fmt.Sprintf("repository %q is not in owner/repo form", c.cfg.Repository))
	case c.cfg.Token == "":
		return remote.New(remote.CodeMissingToken, "validate", "no access token configured")
	}
	return nil
}

// TestConnection verifies that the repository is reachable with the configured token
func (c *Client) TestConnection(ctx context.Context) error {
	if err := c.validate(); err != nil {
		return err
	}

	resp, err := c.do(ctx, "get repository", http.MethodGet, c.repoURL(), nil)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return remote.FromResponse("get repository", resp, remote.CodeRepoNotFound)
	}
	return nil
}

func (c *Client) repoURL(parts ...string) string {
	u := c.cfg.APIURL + "/repos/" + c.cfg.Repository
	if len(parts) > 0 {
		u += "/" + strings.Join(parts, "/")
	}
	return u
}

// escapePath escapes every segment of a repository path
func escapePath(p string) string {
	segments := strings.Split(strings.Trim(p, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// do sends an authenticated API request. Only transport failures are errors.
func (c *Client) do(ctx context.Context, op, method, u string, body any) (*httpclient.Response, error) {
	req := &httpclient.Request{
		Method: method,
		URL:    u,
		Header: http.Header{
			"Authorization":        []string{"Bearer " + c.cfg.Token},
			"Accept":               []string{acceptHeader},
			"X-Github-Api-Version": []string{APIVersion},
		},
	}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, remote.InvalidResponse(op, fmt.Errorf("failed to encode request: %w", err))
		}
		req.Body = data
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, remote.FromTransport(op, err)
	}
	return resp, nil
}

// call sends a request, checks the expected status and decodes the response into out
func (c *Client) call(
	ctx context.Context, op, method, u string, body any, want int, notFound remote.Code, out any,
) error {
	resp, err := c.do(ctx, op, method, u, body)
	if err != nil {
		return err
	}
	if resp.StatusCode != want {
		return remote.FromResponse(op, resp, notFound)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return remote.InvalidResponse(op, err)
	}
	return nil
}
