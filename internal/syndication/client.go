// Package syndication publishes articles to a Forem-compatible article API
// such as dev.to.
package syndication

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/content-sync-server/internal/httpclient"
	"github.com/stacklok/content-sync-server/internal/otel"
	"github.com/stacklok/content-sync-server/internal/remote"
)

// DefaultEndpoint is the dev.to API base URL
const DefaultEndpoint = "https://dev.to"

// maxTags is the number of tags Forem accepts per article
const maxTags = 4

// Article is the content sent to the API
type Article struct {
	Title        string   `json:"title"`
	BodyMarkdown string   `json:"body_markdown"`
	Published    bool     `json:"published"`
	Tags         []string `json:"tags,omitempty"`
	CanonicalURL string   `json:"canonical_url,omitempty"`
	MainImage    string   `json:"main_image,omitempty"`
	Description  string   `json:"description,omitempty"`
}

// Result identifies a published article
type Result struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type articleEnvelope struct {
	Article Article `json:"article"`
}

type articleResponse struct {
	ID  json.Number `json:"id"`
	URL string      `json:"url"`
}

// Client creates and updates articles
type Client struct {
	endpoint string
	apiKey   string
	http     httpclient.Client
	tracer   trace.Tracer
}

// NewClient creates a syndication client
func NewClient(endpoint, apiKey string, httpClient httpclient.Client, tracer trace.Tracer) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		http:     httpClient,
		tracer:   tracer,
	}
}

// Create publishes a new article
func (c *Client) Create(ctx context.Context, article Article) (*Result, error) {
	ctx, span := otel.StartSpan(ctx, c.tracer, "syndication.Create")
	defer span.End()

	result, err := c.send(ctx, "create article", http.MethodPost, c.endpoint+"/api/articles", article, http.StatusCreated)
	otel.RecordError(span, err)
	return result, err
}

// Update replaces an existing article
func (c *Client) Update(ctx context.Context, id string, article Article) (*Result, error) {
	ctx, span := otel.StartSpan(ctx, c.tracer, "syndication.Update")
	defer span.End()

	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		err := remote.New(remote.CodeNotFound, "update article", "invalid article id "+strconv.Quote(id))
		otel.RecordError(span, err)
		return nil, err
	}

	result, err := c.send(ctx, "update article", http.MethodPut, c.endpoint+"/api/articles/"+id, article, http.StatusOK)
	otel.RecordError(span, err)
	return result, err
}

func (c *Client) send(ctx context.Context, op, method, url string, article Article, want int) (*Result, error) {
	if c.apiKey == "" {
		return nil, remote.New(remote.CodeMissingToken, op, "no syndication api key configured")
	}
	if len(article.Tags) > maxTags {
		article.Tags = article.Tags[:maxTags]
	}

	body, err := json.Marshal(articleEnvelope{Article: article})
	if err != nil {
		return nil, remote.InvalidResponse(op, err)
	}

	resp, err := c.http.Do(ctx, &httpclient.Request{
		Method: method,
		URL:    url,
		Header: http.Header{
			"Api-Key": []string{c.apiKey},
			"Accept":  []string{"application/vnd.forem.api-v1+json"},
		},
		Body: body,
	})
	if err != nil {
		return nil, remote.FromTransport(op, err)
	}
	// Forem answers 200 to some creates
	if resp.StatusCode != want && resp.StatusCode != http.StatusOK {
		return nil, remote.FromResponse(op, resp, remote.CodeNotFound)
	}

	var decoded articleResponse
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return nil, remote.InvalidResponse(op, err)
	}
	if decoded.ID == "" {
		return nil, remote.InvalidResponse(op, errors.New("missing article id"))
	}
	return &Result{ID: decoded.ID.String(), URL: decoded.URL}, nil
}
