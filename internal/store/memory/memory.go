// Package memory keeps items and chat threads in process memory. It is the
// default backend for the demo and for tests, and holds nothing across
// restarts.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/erazemk/fixitforward/internal/model"
)

// Items is an in-memory item repository. The slice is kept newest first.
type Items struct {
	mu    sync.RWMutex
	items []model.Item
}

// NewItems returns an empty repository.
func NewItems() *Items {
	return &Items{}
}

func (s *Items) InsertItem(_ context.Context, item *model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.items {
		if existing.ID == item.ID {
			return fmt.Errorf("item %s already exists", item.ID)
		}
	}
	s.items = append([]model.Item{*item}, s.items...)
	return nil
}

func (s *Items) GetItem(_ context.Context, id string) (*model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.ID == id {
			c := item
			return &c, nil
		}
	}
	return nil, nil
}

func (s *Items) ListItems(context.Context) ([]model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Item(nil), s.items...), nil
}

func (s *Items) UpdateItem(_ context.Context, item *model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == item.ID {
			s.items[i] = *item
			return nil
		}
	}
	return fmt.Errorf("item %s: %w", item.ID, model.ErrNotFound)
}

// Threads is an in-memory chat thread repository.
type Threads struct {
	mu      sync.Mutex
	threads map[string]*model.Thread
}

// NewThreads returns an empty repository.
func NewThreads() *Threads {
	return &Threads{threads: make(map[string]*model.Thread)}
}

func (s *Threads) thread(itemID string) *model.Thread {
	t, ok := s.threads[itemID]
	if !ok {
		t = &model.Thread{ItemID: itemID, Messages: []model.Message{}}
		s.threads[itemID] = t
	}
	return t
}

func (s *Threads) LoadThread(_ context.Context, itemID string) (*model.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.thread(itemID).Clone(), nil
}

func (s *Threads) AppendMessage(_ context.Context, msg *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.thread(msg.ItemID)
	t.Messages = append(t.Messages, *msg)
	return nil
}

func (s *Threads) SetOffers(_ context.Context, itemID, pending, agreed string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.thread(itemID)
	t.PendingOffer = pending
	t.AgreedOffer = agreed
	return nil
}
