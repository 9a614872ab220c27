package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mediafeed/api/internal/models"
)

// PGStore is the transactional alternative to the flat file: the
// database serializes concurrent inserts, and newest-first order
// falls out of the timestamp-derived ids.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) EnsureSchema(ctx context.Context) error {
	const query = `
		CREATE TABLE IF NOT EXISTS media_items (
			id           BIGINT PRIMARY KEY,
			src          TEXT NOT NULL,
			alt          TEXT NOT NULL,
			author       TEXT NOT NULL,
			likes        INT NOT NULL DEFAULT 0,
			type         TEXT NOT NULL,
			aspect_ratio TEXT NOT NULL DEFAULT '',
			thumbnail    TEXT NOT NULL DEFAULT '',
			prompt       TEXT NOT NULL DEFAULT ''
		)
	`
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure media schema: %w", err)
	}
	return nil
}

const mediaColumns = `id, src, alt, author, likes, type, aspect_ratio, thumbnail, prompt`

func (s *PGStore) InsertAtHead(ctx context.Context, item models.MediaItem) error {
	if err := item.Validate(); err != nil {
		return err
	}

	const query = `
		INSERT INTO media_items (id, src, alt, author, likes, type, aspect_ratio, thumbnail, prompt)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.pool.Exec(ctx, query,
		item.ID,
		item.Src,
		item.Alt,
		item.Author,
		item.Likes,
		item.Type,
		item.AspectRatio,
		item.Thumbnail,
		item.Prompt,
	)
	if err != nil {
		return fmt.Errorf("insert media: %w", err)
	}
	return nil
}

func (s *PGStore) ReadAll(ctx context.Context) ([]models.MediaItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM media_items ORDER BY id DESC`, mediaColumns)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read media: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

func (s *PGStore) FindByID(ctx context.Context, id int64) (models.MediaItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM media_items WHERE id = $1`, mediaColumns)
	item, err := scanItem(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.MediaItem{}, ErrNotFound
		}
		return models.MediaItem{}, fmt.Errorf("find media: %w", err)
	}
	return item, nil
}

func (s *PGStore) List(ctx context.Context, q ListQuery) (Page, error) {
	// Fetch one row past the slice end to learn whether a next page
	// exists without counting the table.
	query := fmt.Sprintf(`
		SELECT %s FROM media_items
		WHERE ($1 = '' OR type = $1)
		ORDER BY id DESC
		LIMIT $2 OFFSET $3
	`, mediaColumns)

	rows, err := s.pool.Query(ctx, query, q.Type, q.PageSize+1, q.Page*q.PageSize)
	if err != nil {
		return Page{}, fmt.Errorf("list media: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return Page{}, err
	}

	out := Page{Data: items}
	if len(items) > q.PageSize {
		out.Data = items[:q.PageSize]
		next := q.Page + 1
		out.NextPage = &next
	}
	return out, nil
}

func (s *PGStore) Trim(ctx context.Context, max int) (int, error) {
	if max <= 0 {
		return 0, nil
	}

	const query = `
		DELETE FROM media_items
		WHERE id NOT IN (
			SELECT id FROM media_items ORDER BY id DESC LIMIT $1
		)
	`
	tag, err := s.pool.Exec(ctx, query, max)
	if err != nil {
		return 0, fmt.Errorf("trim media: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanItem(row pgx.Row) (models.MediaItem, error) {
	var item models.MediaItem
	err := row.Scan(
		&item.ID,
		&item.Src,
		&item.Alt,
		&item.Author,
		&item.Likes,
		&item.Type,
		&item.AspectRatio,
		&item.Thumbnail,
		&item.Prompt,
	)
	return item, err
}

func scanItems(rows pgx.Rows) ([]models.MediaItem, error) {
	items := []models.MediaItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
