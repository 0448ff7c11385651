package content

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stacklok/content-sync-server/internal/status"
)

const itemFileExt = ".yaml"

// fileStore keeps one YAML file per item and caches all items in memory
type fileStore struct {
	dir string

	mu     sync.RWMutex
	items  map[string]*Item
	loaded bool
}

// NewFileStore creates a content store backed by YAML files in dir
func NewFileStore(dir string) Store {
	return &fileStore{
		dir:   dir,
		items: make(map[string]*Item),
	}
}

// load reads every item file once; must be called with mu held for writing
func (f *fileStore) load() error {
	if f.loaded {
		return nil
	}

	entries, err := os.ReadDir(f.dir)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read content directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), itemFileExt) {
			continue
		}
		path := filepath.Join(f.dir, entry.Name())
		// #nosec G304 -- path is built from a directory listing
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("Skipping unreadable content file", "path", path, "error", err)
			continue
		}
		var item Item
		if err := yaml.Unmarshal(data, &item); err != nil {
			slog.Warn("Skipping invalid content file", "path", path, "error", err)
			continue
		}
		item.ID = strings.TrimSuffix(entry.Name(), itemFileExt)
		f.items[item.ID] = &item
	}

	f.loaded = true
	return nil
}

func (f *fileStore) ensureLoaded() error {
	f.mu.RLock()
	loaded := f.loaded
	f.mu.RUnlock()
	if loaded {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()
}

func (f *fileStore) Get(_ context.Context, id string) (*Item, error) {
	if err := f.ensureLoaded(); err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	item, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return item.Copy(), nil
}

func (f *fileStore) Exists(ctx context.Context, id string) (bool, error) {
	_, err := f.Get(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (f *fileStore) List(_ context.Context, filter Filter) ([]*Item, error) {
	if err := f.ensureLoaded(); err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	var result []*Item
	for _, item := range f.items {
		if filter.matches(item) {
			result = append(result, item.Copy())
		}
	}
	slices.SortFunc(result, func(a, b *Item) int {
		return strings.Compare(a.ID, b.ID)
	})
	return result, nil
}

func (f *fileStore) Upsert(_ context.Context, item *Item) error {
	if err := status.ValidateItemID(item.ID); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.load(); err != nil {
		return err
	}

	updated := item.Copy()
	if existing, ok := f.items[item.ID]; ok {
		updated.Meta = existing.Copy().Meta
	}
	updated.UpdatedAt = time.Now().UTC()
	return f.write(updated)
}

func (f *fileStore) UpdateMeta(_ context.Context, id string, meta Meta) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.load(); err != nil {
		return err
	}

	existing, ok := f.items[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	updated := existing.Copy()
	updated.Meta = meta
	return f.write(updated)
}

func (f *fileStore) Delete(_ context.Context, id string) error {
	if err := status.ValidateItemID(id); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete content item '%s': %w", id, err)
	}
	delete(f.items, id)
	return nil
}

func (f *fileStore) path(id string) string {
	return filepath.Join(f.dir, id+itemFileExt)
}

// write persists an item through a temporary file; must be called with mu held
func (f *fileStore) write(item *Item) error {
	if err := os.MkdirAll(f.dir, 0750); err != nil {
		return fmt.Errorf("failed to create content directory: %w", err)
	}

	data, err := yaml.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal content item '%s': %w", item.ID, err)
	}

	path := f.path(item.ID)
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write content item '%s': %w", item.ID, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename content item '%s': %w", item.ID, err)
	}

	f.items[item.ID] = item
	return nil
}
