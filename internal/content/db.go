package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/content-sync-server/internal/status"
)

const itemColumns = `id, title, slug, status, body, excerpt, tags, categories,
	featured_image, images, syndication_opt_in, published_at, updated_at,
	remote_path, commit_sha, commit_url, syndication_id, syndication_url, last_synced_at`

type dbStore struct {
	pool *pgxpool.Pool
}

// NewDBStore creates a content store backed by the content_items table
func NewDBStore(pool *pgxpool.Pool) Store {
	return &dbStore{pool: pool}
}

func (d *dbStore) Get(ctx context.Context, id string) (*Item, error) {
	item, err := scanItem(d.pool.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM content_items WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get content item: %w", err)
	}
	return item, nil
}

func (d *dbStore) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := d.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM content_items WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check content item: %w", err)
	}
	return exists, nil
}

func (d *dbStore) List(ctx context.Context, filter Filter) ([]*Item, error) {
	var ids []string
	if len(filter.IDs) > 0 {
		ids = filter.IDs
	}

	rows, err := d.pool.Query(ctx, `SELECT `+itemColumns+` FROM content_items
		WHERE ($1 = '' OR status = $1)
		  AND ($2::text[] IS NULL OR id = ANY($2))
		ORDER BY id`, string(filter.Status), ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list content items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Upsert keeps the stored sync metadata of existing rows
func (d *dbStore) Upsert(ctx context.Context, item *Item) error {
	if err := status.ValidateItemID(item.ID); err != nil {
		return err
	}

	_, err := d.pool.Exec(ctx, `
		INSERT INTO content_items (id, title, slug, status, body, excerpt, tags, categories,
			featured_image, images, syndication_opt_in, published_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			slug = EXCLUDED.slug,
			status = EXCLUDED.status,
			body = EXCLUDED.body,
			excerpt = EXCLUDED.excerpt,
			tags = EXCLUDED.tags,
			categories = EXCLUDED.categories,
			featured_image = EXCLUDED.featured_image,
			images = EXCLUDED.images,
			syndication_opt_in = EXCLUDED.syndication_opt_in,
			published_at = EXCLUDED.published_at,
			updated_at = EXCLUDED.updated_at`,
		item.ID, item.Title, item.Slug, string(item.Status), item.Body, item.Excerpt,
		nonNil(item.Tags), nonNil(item.Categories), item.FeaturedImage, nonNil(item.Images),
		item.SyndicationOptIn, item.PublishedAt, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert content item: %w", err)
	}
	return nil
}

func (d *dbStore) UpdateMeta(ctx context.Context, id string, meta Meta) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE content_items SET
			remote_path = $2, commit_sha = $3, commit_url = $4,
			syndication_id = $5, syndication_url = $6, last_synced_at = $7
		WHERE id = $1`,
		id, meta.RemotePath, meta.CommitSHA, meta.CommitURL,
		meta.SyndicationID, meta.SyndicationURL, meta.LastSyncedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update content meta: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (d *dbStore) Delete(ctx context.Context, id string) error {
	if _, err := d.pool.Exec(ctx, `DELETE FROM content_items WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete content item: %w", err)
	}
	return nil
}

func scanItem(row pgx.Row) (*Item, error) {
	var (
		item       Item
		itemStatus string
	)
	err := row.Scan(
		&item.ID,
		&item.Title,
		&item.Slug,
		&itemStatus,
		&item.Body,
		&item.Excerpt,
		&item.Tags,
		&item.Categories,
		&item.FeaturedImage,
		&item.Images,
		&item.SyndicationOptIn,
		&item.PublishedAt,
		&item.UpdatedAt,
		&item.Meta.RemotePath,
		&item.Meta.CommitSHA,
		&item.Meta.CommitURL,
		&item.Meta.SyndicationID,
		&item.Meta.SyndicationURL,
		&item.Meta.LastSyncedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Status = ItemStatus(itemStatus)
	return &item, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
