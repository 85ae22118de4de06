package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/fixitforward/internal/model"
)

func TestItemsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewItems()
	require.NoError(t, s.InsertItem(ctx, &model.Item{ID: "a", Title: "first"}))
	require.NoError(t, s.InsertItem(ctx, &model.Item{ID: "b", Title: "second"}))
	require.Error(t, s.InsertItem(ctx, &model.Item{ID: "a"}))

	items, err := s.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].ID)
	assert.Equal(t, "a", items[1].ID)
}

func TestItemsGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewItems()
	require.NoError(t, s.InsertItem(ctx, &model.Item{ID: "a", Status: model.StatusAvailable}))

	got, err := s.GetItem(ctx, "a")
	require.NoError(t, err)
	got.Status = model.StatusFixed

	again, _ := s.GetItem(ctx, "a")
	assert.Equal(t, model.StatusAvailable, again.Status)

	missing, err := s.GetItem(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.ErrorIs(t, s.UpdateItem(ctx, &model.Item{ID: "nope"}), model.ErrNotFound)
}

func TestThreadsLazyAndAppendOnly(t *testing.T) {
	ctx := context.Background()
	s := NewThreads()

	th, err := s.LoadThread(ctx, "item")
	require.NoError(t, err)
	assert.Empty(t, th.Messages)

	require.NoError(t, s.AppendMessage(ctx, &model.Message{ID: "1", ItemID: "item", Text: "hi"}))
	require.NoError(t, s.SetOffers(ctx, "item", "", "Rp10.000"))

	th, _ = s.LoadThread(ctx, "item")
	require.Len(t, th.Messages, 1)
	assert.Equal(t, "Rp10.000", th.AgreedOffer)
}
