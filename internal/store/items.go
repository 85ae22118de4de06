// Package store is the SQLite persistence layer.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/fixitforward/internal/model"
)

// timeFormat is fixed width so stored timestamps sort chronologically.
const timeFormat = "2006-01-02 15:04:05.000000000-07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

const itemColumns = `id, title, category, description, location, fee, status, image, created_at, updated_at`

// InsertItem stores a new item.
func InsertItem(ctx context.Context, db *sql.DB, item *model.Item) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO items (`+itemColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Title, item.Category, item.Description, item.Location, item.Fee,
		string(item.Status), item.Image, formatTime(item.CreatedAt), formatTime(item.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting item: %w", err)
	}
	return nil
}

// GetItem returns an item by ID, or nil if there is none.
func GetItem(ctx context.Context, db *sql.DB, id string) (*model.Item, error) {
	row := db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns all items, newest first.
func ListItems(ctx context.Context, db *sql.DB) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items ORDER BY created_at DESC, rowid DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateItem overwrites an item's mutable fields.
func UpdateItem(ctx context.Context, db *sql.DB, item *model.Item) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET title = ?, category = ?, description = ?, location = ?, fee = ?,
		        status = ?, image = ?, updated_at = ?
		 WHERE id = ?`,
		item.Title, item.Category, item.Description, item.Location, item.Fee,
		string(item.Status), item.Image, formatTime(item.UpdatedAt), item.ID,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("item %s: %w", item.ID, model.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*model.Item, error) {
	item := &model.Item{}
	var status string
	err := s.Scan(&item.ID, &item.Title, &item.Category, &item.Description, &item.Location,
		&item.Fee, &status, &item.Image, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.Status = model.Status(status)
	item.CreatedAt = item.CreatedAt.UTC()
	item.UpdatedAt = item.UpdatedAt.UTC()
	return item, nil
}

// Items adapts the item functions to catalog.Repository.
type Items struct {
	DB *sql.DB
}

// NewItems returns an item repository on db.
func NewItems(db *sql.DB) *Items {
	return &Items{DB: db}
}

func (s *Items) InsertItem(ctx context.Context, item *model.Item) error {
	return InsertItem(ctx, s.DB, item)
}

func (s *Items) GetItem(ctx context.Context, id string) (*model.Item, error) {
	return GetItem(ctx, s.DB, id)
}

func (s *Items) ListItems(ctx context.Context) ([]model.Item, error) {
	return ListItems(ctx, s.DB)
}

func (s *Items) UpdateItem(ctx context.Context, item *model.Item) error {
	return UpdateItem(ctx, s.DB, item)
}
