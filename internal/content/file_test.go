package content

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newItem(id string, st ItemStatus) *Item {
	published := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	return &Item{
		ID:          id,
		Title:       "Title " + id,
		Status:      st,
		Body:        "Body of " + id,
		Tags:        []string{"go"},
		PublishedAt: &published,
	}
}

func TestFileStore_UpsertGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	store := NewFileStore(dir)

	require.NoError(t, store.Upsert(ctx, newItem("a", StatusPublished)))

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Title a", got.Title)
	assert.Equal(t, StatusPublished, got.Status)
	assert.False(t, got.UpdatedAt.IsZero())

	// returned items are copies
	got.Tags[0] = "changed"
	again, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, again.Tags)

	// a new store reads the files back
	reloaded, err := NewFileStore(dir).Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Body of a", reloaded.Body)
	assert.True(t, reloaded.PublishedAt.Equal(*again.PublishedAt))
}

func TestFileStore_NotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "missing"))

	_, err := store.Get(ctx, "nope")
	assert.True(t, IsNotFound(err))

	exists, err := store.Exists(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, exists)

	err = store.UpdateMeta(ctx, "nope", Meta{CommitSHA: "x"})
	assert.True(t, IsNotFound(err))

	require.NoError(t, store.Delete(ctx, "nope"))
}

func TestFileStore_MetaSurvivesUpsert(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewFileStore(t.TempDir())
	require.NoError(t, store.Upsert(ctx, newItem("a", StatusPublished)))

	synced := time.Now().UTC()
	require.NoError(t, store.UpdateMeta(ctx, "a", Meta{
		RemotePath:   "content/posts/2024-03-05-a.md",
		CommitSHA:    "abc",
		LastSyncedAt: &synced,
	}))

	edited := newItem("a", StatusPublished)
	edited.Title = "Edited"
	edited.Meta = Meta{}
	require.NoError(t, store.Upsert(ctx, edited))

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Edited", got.Title)
	assert.Equal(t, "abc", got.Meta.CommitSHA)
	assert.Equal(t, "content/posts/2024-03-05-a.md", got.Meta.RemotePath)
}

func TestFileStore_List(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewFileStore(t.TempDir())
	require.NoError(t, store.Upsert(ctx, newItem("c", StatusPublished)))
	require.NoError(t, store.Upsert(ctx, newItem("a", StatusPublished)))
	require.NoError(t, store.Upsert(ctx, newItem("b", StatusDraft)))

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{name: "all", filter: Filter{}, want: []string{"a", "b", "c"}},
		{name: "published", filter: Filter{Status: StatusPublished}, want: []string{"a", "c"}},
		{name: "by id", filter: Filter{IDs: []string{"b", "c", "zzz"}}, want: []string{"b", "c"}},
		{name: "status and id", filter: Filter{Status: StatusDraft, IDs: []string{"a"}}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			items, err := store.List(ctx, tt.filter)
			require.NoError(t, err)
			var ids []string
			for _, item := range items {
				ids = append(ids, item.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestFileStore_Delete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	store := NewFileStore(dir)
	require.NoError(t, store.Upsert(ctx, newItem("a", StatusTrash)))

	require.NoError(t, store.Delete(ctx, "a"))
	exists, err := store.Exists(ctx, "a")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = os.Stat(filepath.Join(dir, "a.yaml"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_InvalidID(t *testing.T) {
	t.Parallel()

	store := NewFileStore(t.TempDir())
	assert.Error(t, store.Upsert(context.Background(), newItem("../escape", StatusPublished)))
	assert.Error(t, store.Delete(context.Background(), "a/b"))
}

func TestFileStore_SkipsInvalidFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("title: [unterminated"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.yaml"), []byte("title: Good\nstatus: published\n"), 0600))

	items, err := NewFileStore(dir).List(context.Background(), Filter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "good", items[0].ID)
	assert.Equal(t, "Good", items[0].Title)
}

func TestItemCopy(t *testing.T) {
	t.Parallel()

	var nilItem *Item
	assert.Nil(t, nilItem.Copy())

	synced := time.Now()
	item := newItem("a", StatusPublished)
	item.Meta.LastSyncedAt = &synced
	c := item.Copy()
	*c.PublishedAt = c.PublishedAt.Add(time.Hour)
	*c.Meta.LastSyncedAt = c.Meta.LastSyncedAt.Add(time.Hour)
	assert.NotEqual(t, *item.PublishedAt, *c.PublishedAt)
	assert.NotEqual(t, *item.Meta.LastSyncedAt, *c.Meta.LastSyncedAt)
}

func TestItemStatusIsValid(t *testing.T) {
	t.Parallel()

	assert.True(t, StatusPublished.IsValid())
	assert.True(t, StatusTrash.IsValid())
	assert.False(t, ItemStatus("archived").IsValid())
}
