// Package content holds the source content items that are published to the
// remote targets, together with the per-item sync metadata.
package content

import (
	"errors"
	"time"
)

// ErrNotFound is returned when an item does not exist
var ErrNotFound = errors.New("content item not found")

// ItemStatus is the editorial state of an item
type ItemStatus string

const (
	// StatusDraft items are never published
	StatusDraft ItemStatus = "draft"
	// StatusPublished items are synced to the remote targets
	StatusPublished ItemStatus = "published"
	// StatusTrash items are removed from the remote targets
	StatusTrash ItemStatus = "trash"
)

// IsValid reports whether s is a known status
func (s ItemStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusTrash:
		return true
	}
	return false
}

// Item is a piece of content
type Item struct {
	ID            string     `json:"id" yaml:"id"`
	Title         string     `json:"title" yaml:"title"`
	Slug          string     `json:"slug,omitempty" yaml:"slug,omitempty"`
	Status        ItemStatus `json:"status" yaml:"status"`
	Body          string     `json:"body" yaml:"body"`
	Excerpt       string     `json:"excerpt,omitempty" yaml:"excerpt,omitempty"`
	Tags          []string   `json:"tags,omitempty" yaml:"tags,omitempty"`
	Categories    []string   `json:"categories,omitempty" yaml:"categories,omitempty"`
	FeaturedImage string     `json:"featuredImage,omitempty" yaml:"featuredImage,omitempty"`
	// Images are inline image references used by Body
	Images []string `json:"images,omitempty" yaml:"images,omitempty"`
	// SyndicationOptIn allows the dual strategy to republish the item
	SyndicationOptIn bool       `json:"syndicationOptIn,omitempty" yaml:"syndicationOptIn,omitempty"`
	PublishedAt      *time.Time `json:"publishedAt,omitempty" yaml:"publishedAt,omitempty"`
	UpdatedAt        time.Time  `json:"updatedAt" yaml:"updatedAt"`
	Meta             Meta       `json:"meta" yaml:"meta"`
}

// Meta records where an item was published
type Meta struct {
	RemotePath     string     `json:"remotePath,omitempty" yaml:"remotePath,omitempty"`
	CommitSHA      string     `json:"commitSha,omitempty" yaml:"commitSha,omitempty"`
	CommitURL      string     `json:"commitUrl,omitempty" yaml:"commitUrl,omitempty"`
	SyndicationID  string     `json:"syndicationId,omitempty" yaml:"syndicationId,omitempty"`
	SyndicationURL string     `json:"syndicationUrl,omitempty" yaml:"syndicationUrl,omitempty"`
	LastSyncedAt   *time.Time `json:"lastSyncedAt,omitempty" yaml:"lastSyncedAt,omitempty"`
}

// Copy returns a deep copy of the item
func (i *Item) Copy() *Item {
	if i == nil {
		return nil
	}
	c := *i
	c.Tags = append([]string(nil), i.Tags...)
	c.Categories = append([]string(nil), i.Categories...)
	c.Images = append([]string(nil), i.Images...)
	if i.PublishedAt != nil {
		t := *i.PublishedAt
		c.PublishedAt = &t
	}
	if i.Meta.LastSyncedAt != nil {
		t := *i.Meta.LastSyncedAt
		c.Meta.LastSyncedAt = &t
	}
	return &c
}

// Filter selects items in List. Zero values match everything.
type Filter struct {
	Status ItemStatus
	// IDs restricts the result to the given ids
	IDs []string
}

func (f Filter) matches(item *Item) bool {
	if f.Status != "" && item.Status != f.Status {
		return false
	}
	if len(f.IDs) == 0 {
		return true
	}
	for _, id := range f.IDs {
		if id == item.ID {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err means the item does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
