package imaging

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/fixitforward/internal/catalog"
	"github.com/erazemk/fixitforward/internal/model"
	"github.com/erazemk/fixitforward/internal/store/memory"
)

type blobs struct {
	mu   sync.Mutex
	data map[string][]byte
	mime map[string]string
}

func (b *blobs) Put(_ context.Context, key string, data []byte, mime string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = data
	b.mime[key] = mime
	return nil
}

func (b *blobs) Get(_ context.Context, key string) ([]byte, string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data[key], b.mime[key], nil
}

func TestLibraryUploadAndOpen(t *testing.T) {
	ctx := context.Background()
	c := catalog.New(memory.NewItems())
	item, err := c.CreateItem(ctx, model.ItemDraft{Title: "Black Chair", Fee: "500000"})
	require.NoError(t, err)

	store := &blobs{data: map[string][]byte{}, mime: map[string]string{}}
	lib := NewLibrary(store, c)

	_, _, err = lib.Open(ctx, item.ID)
	require.ErrorIs(t, err, model.ErrNotFound)

	updated, err := lib.Upload(ctx, item.ID, bytes.NewReader(encodePNG(t, 20, 10)))
	require.NoError(t, err)
	assert.Equal(t, Key(item.ID), updated.Image)

	data, mime, err := lib.Open(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)
	assert.NotEmpty(t, data)
}

func TestLibraryRejects(t *testing.T) {
	ctx := context.Background()
	c := catalog.New(memory.NewItems())
	item, err := c.CreateItem(ctx, model.ItemDraft{Title: "Black Chair", Fee: "500000"})
	require.NoError(t, err)
	lib := NewLibrary(&blobs{data: map[string][]byte{}, mime: map[string]string{}}, c)

	_, err = lib.Upload(ctx, "missing", bytes.NewReader(encodePNG(t, 5, 5)))
	require.ErrorIs(t, err, model.ErrNotFound)

	_, err = lib.Upload(ctx, item.ID, bytes.NewReader([]byte("GIF89a...")))
	require.ErrorIs(t, err, model.ErrValidation)

	got, err := c.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Image)
}
