package imaging

import (
	"context"
	"fmt"
	"io"

	"github.com/erazemk/fixitforward/internal/model"
)

// Store keeps image blobs by key. Get returns nil data for an unknown key.
type Store interface {
	Put(ctx context.Context, key string, data []byte, mime string) error
	Get(ctx context.Context, key string) ([]byte, string, error)
}

// Items is the part of the catalog that images attach to.
type Items interface {
	GetItem(ctx context.Context, id string) (*model.Item, error)
	SetImage(ctx context.Context, id, ref string) (*model.Item, error)
}

// Library processes uploads, stores them and links them to items.
type Library struct {
	store Store
	items Items
}

// NewLibrary returns a library storing blobs in store.
func NewLibrary(store Store, items Items) *Library {
	return &Library{store: store, items: items}
}

// Key is the blob key of an item's photo.
func Key(itemID string) string {
	return "items/" + itemID + ".jpg"
}

// Upload normalises the photo in r and makes it the item's image.
func (l *Library) Upload(ctx context.Context, itemID string, r io.Reader) (*model.Item, error) {
	if _, err := l.items.GetItem(ctx, itemID); err != nil {
		return nil, err
	}

	photo, err := Process(r)
	if err != nil {
		return nil, err
	}

	key := Key(itemID)
	if err := l.store.Put(ctx, key, photo.Data, photo.MIME); err != nil {
		return nil, fmt.Errorf("storing image: %w", err)
	}
	return l.items.SetImage(ctx, itemID, key)
}

// Open returns the stored photo of an item. Items without a stored photo
// return model.ErrNotFound.
func (l *Library) Open(ctx context.Context, itemID string) ([]byte, string, error) {
	item, err := l.items.GetItem(ctx, itemID)
	if err != nil {
		return nil, "", err
	}
	if item.Image == "" {
		return nil, "", fmt.Errorf("image of item %s: %w", itemID, model.ErrNotFound)
	}

	data, mime, err := l.store.Get(ctx, item.Image)
	if err != nil {
		return nil, "", fmt.Errorf("loading image: %w", err)
	}
	if data == nil {
		return nil, "", fmt.Errorf("image %s: %w", item.Image, model.ErrNotFound)
	}
	return data, mime, nil
}
