package catalog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/fixitforward/internal/events"
	"github.com/erazemk/fixitforward/internal/model"
	"github.com/erazemk/fixitforward/internal/store/memory"
)

func newTestCatalog(t *testing.T) (*Catalog, *events.Recorder) {
	t.Helper()
	rec := &events.Recorder{}
	return New(memory.NewItems(), WithPublisher(rec)), rec
}

func TestCreateItem(t *testing.T) {
	c, rec := newTestCatalog(t)
	ctx := context.Background()

	item, err := c.CreateItem(ctx, model.ItemDraft{Title: "Black Chair", Fee: "150000"})
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "Rp150.000", item.Fee)
	assert.Equal(t, model.StatusAvailable, item.Status)
	assert.Equal(t, model.CategoryFurniture, item.Category)
	assert.Equal(t, model.DefaultLocation, item.Location)
	assert.Equal(t, []string{events.ItemCreated}, rec.Subjects())
}

func TestCreateItemValidation(t *testing.T) {
	c, rec := newTestCatalog(t)
	ctx := context.Background()

	drafts := []model.ItemDraft{
		{Title: "", Fee: "1000"},
		{Title: "   ", Fee: "1000"},
		{Title: "Kettle", Fee: ""},
		{Title: "Kettle", Fee: "free"},
		{Title: "Kettle", Fee: "1000", Category: "Toys"},
	}
	for _, d := range drafts {
		_, err := c.CreateItem(ctx, d)
		require.ErrorIs(t, err, model.ErrValidation, "draft %+v", d)
	}

	items, err := c.ListItems(ctx, Filter{})
	require.NoError(t, err)
	assert.Empty(t, items, "catalog must be unchanged after failed creates")
	assert.Empty(t, rec.Events())
}

func TestListItemsNewestFirst(t *testing.T) {
	// A frozen clock still yields strictly increasing creation times.
	frozen := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New(memory.NewItems(), WithClock(func() time.Time { return frozen }))
	ctx := context.Background()

	first, err := c.CreateItem(ctx, model.ItemDraft{Title: "Old", Fee: "1"})
	require.NoError(t, err)
	second, err := c.CreateItem(ctx, model.ItemDraft{Title: "New", Fee: "2"})
	require.NoError(t, err)
	assert.True(t, second.CreatedAt.After(first.CreatedAt))

	items, err := c.ListItems(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)
	assert.Equal(t, first.ID, items[1].ID)
}

func TestGetItemNotFound(t *testing.T) {
	c, _ := newTestCatalog(t)
	_, err := c.GetItem(context.Background(), "missing")
	require.ErrorIs(t, err, model.ErrNotFound)

	_, err = c.UpdateStatus(context.Background(), "missing", model.StatusInProgress)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestLifecycle(t *testing.T) {
	c, rec := newTestCatalog(t)
	ctx := context.Background()

	item, err := c.CreateItem(ctx, model.ItemDraft{Title: "Kettle", Fee: "150000"})
	require.NoError(t, err)

	// Skipping InProgress is rejected.
	_, err = c.UpdateStatus(ctx, item.ID, model.StatusFixed)
	require.ErrorIs(t, err, model.ErrInvalidTransition)

	got, err := c.UpdateStatus(ctx, item.ID, model.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, got.Status)

	_, err = c.UpdateStatus(ctx, item.ID, model.StatusAvailable)
	require.ErrorIs(t, err, model.ErrInvalidTransition)

	got, err = c.UpdateStatus(ctx, item.ID, model.StatusFixed)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFixed, got.Status)

	for _, next := range []model.Status{model.StatusAvailable, model.StatusInProgress, model.StatusFixed} {
		_, err = c.UpdateStatus(ctx, item.ID, next)
		require.ErrorIs(t, err, model.ErrInvalidTransition)
	}

	stored, err := c.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFixed, stored.Status, "rejected transitions leave status unchanged")

	assert.Equal(t, []string{
		events.ItemCreated,
		events.ItemStatusChanged,
		events.ItemStatusChanged,
	}, rec.Subjects())
}

func TestConcurrentStatusUpdatesApplyOnce(t *testing.T) {
	c, _ := newTestCatalog(t)
	ctx := context.Background()
	item, err := c.CreateItem(ctx, model.ItemDraft{Title: "Lamp", Fee: "5000"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.UpdateStatus(ctx, item.ID, model.StatusInProgress); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, succeeded)
}

func TestApplyFee(t *testing.T) {
	c, _ := newTestCatalog(t)
	ctx := context.Background()
	item, err := c.CreateItem(ctx, model.ItemDraft{Title: "Table", Fee: "300000"})
	require.NoError(t, err)

	_, err = c.ApplyFee(ctx, item.ID, "400000")
	require.ErrorIs(t, err, model.ErrValidation, "fee must already be formatted")

	got, err := c.ApplyFee(ctx, item.ID, "Rp400.000")
	require.NoError(t, err)
	assert.Equal(t, "Rp400.000", got.Fee)

	_, err = c.UpdateStatus(ctx, item.ID, model.StatusInProgress)
	require.NoError(t, err)
	_, err = c.ApplyFee(ctx, item.ID, "Rp1.000")
	require.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestSetImage(t *testing.T) {
	c, _ := newTestCatalog(t)
	ctx := context.Background()
	item, err := c.CreateItem(ctx, model.ItemDraft{Title: "Radio", Fee: "1000"})
	require.NoError(t, err)

	got, err := c.SetImage(ctx, item.ID, "/api/items/"+item.ID+"/image")
	require.NoError(t, err)
	assert.Equal(t, "/api/items/"+item.ID+"/image", got.Image)
}

func TestListItemsFilter(t *testing.T) {
	c, _ := newTestCatalog(t)
	ctx := context.Background()
	chair, _ := c.CreateItem(ctx, model.ItemDraft{Title: "Black Chair", Fee: "500000", Location: "Sleman"})
	kettle, _ := c.CreateItem(ctx, model.ItemDraft{Title: "Metal Kettle", Fee: "150000", Category: model.CategoryAppliances})
	_, err := c.UpdateStatus(ctx, chair.ID, model.StatusInProgress)
	require.NoError(t, err)

	byStatus, _ := c.ListItems(ctx, Filter{Status: model.StatusAvailable})
	require.Len(t, byStatus, 1)
	assert.Equal(t, kettle.ID, byStatus[0].ID)

	byCategory, _ := c.ListItems(ctx, Filter{Category: model.CategoryFurniture})
	require.Len(t, byCategory, 1)
	assert.Equal(t, chair.ID, byCategory[0].ID)

	typo, _ := c.ListItems(ctx, Filter{Query: "ketle"})
	require.Len(t, typo, 1)
	assert.Equal(t, kettle.ID, typo[0].ID)

	byLocation, _ := c.ListItems(ctx, Filter{Query: "sleman"})
	require.Len(t, byLocation, 1)
	assert.Equal(t, chair.ID, byLocation[0].ID)

	none, _ := c.ListItems(ctx, Filter{Query: "bicycle"})
	assert.Empty(t, none)
}
