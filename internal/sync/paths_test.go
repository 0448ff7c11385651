package sync_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/stacklok/content-sync-server/internal/content"
	. "github.com/stacklok/content-sync-server/internal/sync"
)

func TestSlug(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		item content.Item
		want string
	}{
		{name: "explicit slug", item: content.Item{Slug: "My Post", Title: "Other"}, want: "my-post"},
		{name: "from title", item: content.Item{Title: "Hello, World!"}, want: "hello-world"},
		{name: "fallback to id", item: content.Item{ID: "42", Title: "!!!"}, want: "item-42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Slug(&tt.item))
		})
	}
}

func TestLayout(t *testing.T) {
	t.Parallel()

	published := time.Date(2024, 12, 31, 23, 30, 0, 0, time.FixedZone("x", -2*3600))
	item := &content.Item{ID: "1", Title: "Year End", PublishedAt: &published}

	assert.Equal(t, "content/posts/2025-01-01-year-end.md", testLayout.DocumentPath(item))
	assert.Equal(t, "content/posts/2025-01-01-year-end.md", testLayout.RemotePath(item))
	assert.Equal(t, "static/images/year-end", testLayout.AssetPath(item))
	assert.Equal(t, "https://blog.example.com/posts/year-end/", testLayout.CanonicalURL(item))

	item.Meta.RemotePath = "content/posts/kept.md"
	assert.Equal(t, "content/posts/kept.md", testLayout.RemotePath(item))

	assert.Empty(t, Layout{ContentDir: "content/posts"}.CanonicalURL(item))
	assert.Equal(t, "https://a.example/year-end/", Layout{BaseURL: "https://a.example/"}.CanonicalURL(item))
}

func TestKindFatal(t *testing.T) {
	t.Parallel()

	for _, k := range []Kind{KindConfig, KindAuth, KindValidation} {
		assert.True(t, k.Fatal(), k)
	}
	for _, k := range []Kind{KindTransient, KindRateLimit, KindInternal} {
		assert.False(t, k.Fatal(), k)
	}
}
