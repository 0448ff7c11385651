// Package transform renders content items into the documents published to
// the remote targets.
package transform

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stacklok/content-sync-server/internal/content"
)

// Flavor selects the output format
type Flavor string

const (
	// FlavorGit renders Markdown with YAML front matter for a static site generator
	FlavorGit Flavor = "git"
	// FlavorSyndication renders plain Markdown with absolute links and a canonical footer
	FlavorSyndication Flavor = "syndication"
)

var (
	// ErrEmptyTitle is returned for items without a title
	ErrEmptyTitle = errors.New("item has no title")
	// ErrEmptyBody is returned for items without a body
	ErrEmptyBody = errors.New("item has no body")
)

// Context carries the publishing details a conversion needs
type Context struct {
	Flavor Flavor
	// Slug is the resolved slug of the item
	Slug string
	// Rewrites maps image references used by the item to site paths
	Rewrites map[string]string
	// BaseURL is the public site URL, used to make site paths absolute
	BaseURL string
	// CanonicalURL is the address of the published document on the site
	CanonicalURL string
}

// Transformer converts items to documents
//
//go:generate mockgen -destination=mocks/mock_transformer.go -package=mocks -source=transform.go Transformer
type Transformer interface {
	Convert(item *content.Item, tctx Context) (string, error)
}

type markdownTransformer struct{}

// NewMarkdownTransformer creates the Markdown transformer
func NewMarkdownTransformer() Transformer {
	return &markdownTransformer{}
}

// frontMatter is the header of git documents
type frontMatter struct {
	Title         string   `yaml:"title"`
	Date          string   `yaml:"date,omitempty"`
	LastMod       string   `yaml:"lastmod,omitempty"`
	Slug          string   `yaml:"slug,omitempty"`
	Tags          []string `yaml:"tags,omitempty"`
	Categories    []string `yaml:"categories,omitempty"`
	Summary       string   `yaml:"summary,omitempty"`
	FeaturedImage string   `yaml:"featured_image,omitempty"`
}

func (t *markdownTransformer) Convert(item *content.Item, tctx Context) (string, error) {
	if strings.TrimSpace(item.Title) == "" {
		return "", ErrEmptyTitle
	}
	if strings.TrimSpace(item.Body) == "" {
		return "", ErrEmptyBody
	}

	switch tctx.Flavor {
	case FlavorGit:
		return t.git(item, tctx)
	case FlavorSyndication:
		return t.syndication(item, tctx), nil
	default:
		return "", fmt.Errorf("unknown flavor %q", tctx.Flavor)
	}
}

func (*markdownTransformer) git(item *content.Item, tctx Context) (string, error) {
	fm := frontMatter{
		Title:      item.Title,
		Slug:       tctx.Slug,
		Tags:       item.Tags,
		Categories: item.Categories,
		Summary:    item.Excerpt,
	}
	if item.PublishedAt != nil {
		fm.Date = item.PublishedAt.UTC().Format(time.RFC3339)
	}
	if !item.UpdatedAt.IsZero() {
		fm.LastMod = item.UpdatedAt.UTC().Format(time.RFC3339)
	}
	if item.FeaturedImage != "" {
		fm.FeaturedImage = rewriteRef(item.FeaturedImage, tctx.Rewrites)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return "", fmt.Errorf("failed to encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to encode front matter: %w", err)
	}
	buf.WriteString("---\n\n")
	buf.WriteString(rewriteBody(item.Body, tctx.Rewrites))
	if !strings.HasSuffix(item.Body, "\n") {
		buf.WriteString("\n")
	}
	return buf.String(), nil
}

func (*markdownTransformer) syndication(item *content.Item, tctx Context) string {
	absolute := make(map[string]string, len(tctx.Rewrites))
	for from, to := range tctx.Rewrites {
		absolute[from] = AbsoluteURL(tctx.BaseURL, to)
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(rewriteBody(item.Body, absolute), "\n"))
	b.WriteString("\n")
	if tctx.CanonicalURL != "" {
		site := strings.TrimPrefix(strings.TrimPrefix(tctx.BaseURL, "https://"), "http://")
		site = strings.TrimRight(site, "/")
		if site == "" {
			site = tctx.CanonicalURL
		}
		fmt.Fprintf(&b, "\n---\n\n*This post was originally published at [%s](%s).*\n", site, tctx.CanonicalURL)
	}
	return b.String()
}

// AbsoluteURL resolves a site path against the site base URL
func AbsoluteURL(baseURL, path string) string {
	if baseURL == "" || !strings.HasPrefix(path, "/") {
		return path
	}
	return strings.TrimRight(baseURL, "/") + path
}

func rewriteRef(ref string, rewrites map[string]string) string {
	if to, ok := rewrites[ref]; ok {
		return to
	}
	return ref
}

// rewriteBody replaces every image reference, longest first so that a
// reference never matches inside a longer one
func rewriteBody(body string, rewrites map[string]string) string {
	if len(rewrites) == 0 {
		return body
	}

	froms := make([]string, 0, len(rewrites))
	for from := range rewrites {
		if from != "" {
			froms = append(froms, from)
		}
	}
	sort.Slice(froms, func(i, j int) bool {
		if len(froms[i]) != len(froms[j]) {
			return len(froms[i]) > len(froms[j])
		}
		return froms[i] < froms[j]
	})

	pairs := make([]string, 0, 2*len(froms))
	for _, from := range froms {
		pairs = append(pairs, from, rewrites[from])
	}
	return strings.NewReplacer(pairs...).Replace(body)
}
