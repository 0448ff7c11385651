package transform

import (
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/content-sync-server/internal/content"
)

func testItem() *content.Item {
	published := time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)
	return &content.Item{
		ID:            "42",
		Title:         "Hello: World",
		Body:          "Intro\n\n![cat](/media/cat.png)\n![big cat](/media/cat.png.large.png)\n",
		Excerpt:       "Short",
		Tags:          []string{"go", "sync"},
		Categories:    []string{"news"},
		FeaturedImage: "/media/hero.jpg",
		PublishedAt:   &published,
	}
}

func testRewrites() map[string]string {
	return map[string]string{
		"/media/cat.png":           "/images/hello-world/cat.png",
		"/media/cat.png.large.png": "/images/hello-world/cat.png.large.png",
		"/media/hero.jpg":          "/images/hello-world/hero.jpg",
	}
}

func TestConvert_Git(t *testing.T) {
	t.Parallel()

	doc, err := NewMarkdownTransformer().Convert(testItem(), Context{
		Flavor:   FlavorGit,
		Slug:     "hello-world",
		Rewrites: testRewrites(),
	})
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(doc, "---\n"))
	parts := strings.SplitN(doc, "---\n", 3)
	require.Len(t, parts, 3)

	var fm frontMatter
	require.NoError(t, yaml.Unmarshal([]byte(parts[1]), &fm))
	assert.Equal(t, "Hello: World", fm.Title)
	assert.Equal(t, "2024-03-05T10:30:00Z", fm.Date)
	assert.Equal(t, "hello-world", fm.Slug)
	assert.Equal(t, []string{"go", "sync"}, fm.Tags)
	assert.Equal(t, []string{"news"}, fm.Categories)
	assert.Equal(t, "Short", fm.Summary)
	assert.Equal(t, "/images/hello-world/hero.jpg", fm.FeaturedImage)

	body := parts[2]
	assert.Contains(t, body, "![cat](/images/hello-world/cat.png)")
	assert.Contains(t, body, "![big cat](/images/hello-world/cat.png.large.png)")
	assert.NotContains(t, body, "/media/")
}

func TestConvert_Syndication(t *testing.T) {
	t.Parallel()

	doc, err := NewMarkdownTransformer().Convert(testItem(), Context{
		Flavor:       FlavorSyndication,
		Rewrites:     testRewrites(),
		BaseURL:      "https://blog.example.com/",
		CanonicalURL: "https://blog.example.com/posts/hello-world/",
	})
	require.NoError(t, err)

	assert.NotContains(t, doc, "title:")
	assert.Contains(t, doc, "![cat](https://blog.example.com/images/hello-world/cat.png)")
	assert.True(t, strings.HasSuffix(doc,
		"*This post was originally published at [blog.example.com](https://blog.example.com/posts/hello-world/).*\n"))
}

func TestConvert_Golden(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tctx Context
	}{
		{
			name: "git",
			tctx: Context{Flavor: FlavorGit, Slug: "hello-world", Rewrites: testRewrites()},
		},
		{
			name: "syndication",
			tctx: Context{
				Flavor:       FlavorSyndication,
				Rewrites:     testRewrites(),
				BaseURL:      "https://blog.example.com/",
				CanonicalURL: "https://blog.example.com/posts/hello-world/",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc, err := NewMarkdownTransformer().Convert(testItem(), tt.tctx)
			require.NoError(t, err)

			g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
			g.Assert(t, tt.name, []byte(doc))
		})
	}
}

func TestConvert_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*content.Item)
		flavor  Flavor
		wantErr error
	}{
		{name: "empty title", mutate: func(i *content.Item) { i.Title = "  " }, flavor: FlavorGit, wantErr: ErrEmptyTitle},
		{name: "empty body", mutate: func(i *content.Item) { i.Body = "\n" }, flavor: FlavorSyndication, wantErr: ErrEmptyBody},
		{name: "unknown flavor", mutate: func(*content.Item) {}, flavor: "rss"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			item := testItem()
			tt.mutate(item)
			_, err := NewMarkdownTransformer().Convert(item, Context{Flavor: tt.flavor})
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestAbsoluteURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://a.example/x.png", AbsoluteURL("https://a.example/", "/x.png"))
	assert.Equal(t, "https://cdn.example/x.png", AbsoluteURL("https://a.example", "https://cdn.example/x.png"))
	assert.Equal(t, "/x.png", AbsoluteURL("", "/x.png"))
}

func TestRewriteBody_NoRewrites(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "unchanged", rewriteBody("unchanged", nil))
}
