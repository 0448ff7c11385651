package content

import (
	"context"
)

// Store is the content store
//
//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=store.go Store
type Store interface {
	// Get returns the item or ErrNotFound
	Get(ctx context.Context, id string) (*Item, error)

	// Exists reports whether the item exists
	Exists(ctx context.Context, id string) (bool, error)

	// List returns the matching items ordered by id
	List(ctx context.Context, filter Filter) ([]*Item, error)

	// Upsert creates or replaces an item. Meta of an existing item is kept.
	Upsert(ctx context.Context, item *Item) error

	// UpdateMeta replaces the sync metadata of an item
	UpdateMeta(ctx context.Context, id string, meta Meta) error

	// Delete removes an item. Deleting a missing item is not an error.
	Delete(ctx context.Context, id string) error
}
