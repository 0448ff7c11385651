package sync

import (
	"path"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/stacklok/content-sync-server/internal/content"
)

// Layout describes where documents and assets live in the repository and on the site
type Layout struct {
	// ContentDir holds the documents, e.g. "content/posts"
	ContentDir string
	// AssetDir holds the per-item asset directories, e.g. "static/images"
	AssetDir string
	// BaseURL is the public site URL
	BaseURL string
}

// Slug returns the item slug, derived from the title when unset
func Slug(item *content.Item) string {
	if s := slug.Make(item.Slug); s != "" {
		return s
	}
	if s := slug.Make(item.Title); s != "" {
		return s
	}
	return "item-" + slug.Make(item.ID)
}

// DocumentPath returns the repository path of the item document:
// {contentDir}/{YYYY-MM-DD}-{slug}.md, dated by publication time
func (l Layout) DocumentPath(item *content.Item) string {
	date := item.UpdatedAt
	if item.PublishedAt != nil {
		date = *item.PublishedAt
	}
	if date.IsZero() {
		date = time.Now()
	}
	return path.Join(l.ContentDir, date.UTC().Format("2006-01-02")+"-"+Slug(item)+".md")
}

// RemotePath returns the stored document path, or the generated one
func (l Layout) RemotePath(item *content.Item) string {
	if item.Meta.RemotePath != "" {
		return item.Meta.RemotePath
	}
	return l.DocumentPath(item)
}

// AssetPath returns the repository directory of the item assets
func (l Layout) AssetPath(item *content.Item) string {
	return path.Join(l.AssetDir, Slug(item))
}

// CanonicalURL returns the public address of the published document.
// The last element of the content directory is the site section.
func (l Layout) CanonicalURL(item *content.Item) string {
	if l.BaseURL == "" {
		return ""
	}
	section := path.Base(strings.Trim(l.ContentDir, "/"))
	if section == "." || section == "" {
		return strings.TrimRight(l.BaseURL, "/") + "/" + Slug(item) + "/"
	}
	return strings.TrimRight(l.BaseURL, "/") + "/" + section + "/" + Slug(item) + "/"
}
