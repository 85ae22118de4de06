package store

import (
	"context"
	"database/sql"
	"fmt"
)

// PutImage stores image data under key, replacing any previous image.
func PutImage(ctx context.Context, db *sql.DB, key string, data []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO item_images (key, data, mime) VALUES (?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET data = excluded.data, mime = excluded.mime`,
		key, data, mime,
	)
	if err != nil {
		return fmt.Errorf("storing image: %w", err)
	}
	return nil
}

// GetImage returns image data and MIME type, or nil data if there is none.
func GetImage(ctx context.Context, db *sql.DB, key string) ([]byte, string, error) {
	var data []byte
	var mime string
	err := db.QueryRowContext(ctx,
		`SELECT data, mime FROM item_images WHERE key = ?`, key,
	).Scan(&data, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting image: %w", err)
	}
	return data, mime, nil
}

// Images adapts the image functions to imaging.Store.
type Images struct {
	DB *sql.DB
}

// NewImages returns an image store on db.
func NewImages(db *sql.DB) *Images {
	return &Images{DB: db}
}

func (s *Images) Put(ctx context.Context, key string, data []byte, mime string) error {
	return PutImage(ctx, s.DB, key, data, mime)
}

func (s *Images) Get(ctx context.Context, key string) ([]byte, string, error) {
	return GetImage(ctx, s.DB, key)
}
