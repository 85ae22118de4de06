// Package catalog is the item store: it owns the listed items and enforces
// the repair lifecycle over a swappable Repository.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erazemk/fixitforward/internal/events"
	"github.com/erazemk/fixitforward/internal/keylock"
	"github.com/erazemk/fixitforward/internal/model"
	"github.com/erazemk/fixitforward/internal/validate"
)

// Repository persists items. GetItem returns nil, nil for an unknown id.
// ListItems returns items newest first (CreatedAt descending).
type Repository interface {
	InsertItem(ctx context.Context, item *model.Item) error
	GetItem(ctx context.Context, id string) (*model.Item, error)
	ListItems(ctx context.Context) ([]model.Item, error)
	UpdateItem(ctx context.Context, item *model.Item) error
}

// Catalog applies the item operations. Mutations of one item are
// serialised; different items proceed independently.
type Catalog struct {
	repo  Repository
	pub   events.Publisher
	log   *zap.Logger
	locks *keylock.Map
	now   func() time.Time

	clockMu sync.Mutex
	last    time.Time
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithPublisher sets where item events are sent.
func WithPublisher(p events.Publisher) Option {
	return func(c *Catalog) { c.pub = p }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Catalog) { c.log = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) { c.now = now }
}

// New returns a catalog backed by repo.
func New(repo Repository, opts ...Option) *Catalog {
	c := &Catalog{
		repo:  repo,
		pub:   events.Nop{},
		log:   zap.NewNop(),
		locks: keylock.New(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateItem validates draft and lists it as Available, newest first.
func (c *Catalog) CreateItem(ctx context.Context, draft model.ItemDraft) (*model.Item, error) {
	item, err := c.buildItem(draft)
	if err != nil {
		return nil, err
	}

	if err := c.repo.InsertItem(ctx, item); err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	c.log.Info("item created", zap.String("item", item.ID), zap.String("title", item.Title), zap.String("fee", item.Fee))
	c.publish(ctx, events.New(events.ItemCreated, item.ID, "title", item.Title, "fee", item.Fee))
	return item, nil
}

func (c *Catalog) buildItem(draft model.ItemDraft) (*model.Item, error) {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return nil, model.Invalid("title", "required")
	}
	fee := validate.FormatRupiah(draft.Fee)
	if fee == "" {
		return nil, model.Invalid("fee", "required")
	}

	category := draft.Category
	if category == "" {
		category = model.CategoryFurniture
	}
	if !model.ValidCategory(category) {
		return nil, model.Invalid("category", fmt.Sprintf("unknown category %q", category))
	}

	location := strings.TrimSpace(draft.Location)
	if location == "" {
		location = model.DefaultLocation
	}

	created := c.stamp()
	return &model.Item{
		ID:          uuid.NewString(),
		Title:       title,
		Category:    category,
		Description: draft.Description,
		Location:    location,
		Fee:         fee,
		Status:      model.StatusAvailable,
		Image:       draft.Image,
		CreatedAt:   created,
		UpdatedAt:   created,
	}, nil
}

// stamp returns a creation time strictly after the previous one, at
// millisecond precision, so every backend orders items the same way.
func (c *Catalog) stamp() time.Time {
	c.clockMu.Lock()
	defer c.clockMu.Unlock()

	t := c.now().UTC().Truncate(time.Millisecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Millisecond)
	}
	c.last = t
	return t
}

// GetItem returns the item with id or ErrNotFound.
func (c *Catalog) GetItem(ctx context.Context, id string) (*model.Item, error) {
	item, err := c.repo.GetItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	if item == nil {
		return nil, fmt.Errorf("item %s: %w", id, model.ErrNotFound)
	}
	return item, nil
}

// UpdateStatus moves an item along the lifecycle. Illegal moves return a
// TransitionError and leave the item unchanged.
func (c *Catalog) UpdateStatus(ctx context.Context, id string, to model.Status) (*model.Item, error) {
	unlock := c.locks.Lock(id)
	defer unlock()

	item, err := c.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	from := item.Status
	if !from.CanTransition(to) {
		return nil, &model.TransitionError{From: string(from), To: string(to)}
	}

	item.Status = to
	item.UpdatedAt = c.now().UTC()
	if err := c.repo.UpdateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("updating item status: %w", err)
	}

	c.log.Info("item status changed", zap.String("item", id), zap.String("from", string(from)), zap.String("to", string(to)))
	c.publish(ctx, events.New(events.ItemStatusChanged, id, "from", string(from), "to", string(to)))
	return item, nil
}

// ApplyFee writes a negotiated fee. Only Available items can be repriced.
func (c *Catalog) ApplyFee(ctx context.Context, id, fee string) (*model.Item, error) {
	if !validate.ValidCurrency(fee) {
		return nil, model.Invalid("fee", fmt.Sprintf("malformed amount %q", fee))
	}

	unlock := c.locks.Lock(id)
	defer unlock()

	item, err := c.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.Status != model.StatusAvailable {
		return nil, &model.TransitionError{From: string(item.Status), To: "repriced"}
	}

	prev := item.Fee
	item.Fee = fee
	item.UpdatedAt = c.now().UTC()
	if err := c.repo.UpdateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("updating item fee: %w", err)
	}

	c.log.Info("item fee agreed", zap.String("item", id), zap.String("from", prev), zap.String("to", fee))
	c.publish(ctx, events.New(events.ItemFeeChanged, id, "from", prev, "to", fee))
	return item, nil
}

// SetImage attaches an image reference to an item.
func (c *Catalog) SetImage(ctx context.Context, id, ref string) (*model.Item, error) {
	unlock := c.locks.Lock(id)
	defer unlock()

	item, err := c.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	item.Image = ref
	item.UpdatedAt = c.now().UTC()
	if err := c.repo.UpdateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("setting item image: %w", err)
	}

	c.publish(ctx, events.New(events.ItemImageSet, id, "image", ref))
	return item, nil
}

func (c *Catalog) publish(ctx context.Context, e events.Event) {
	if err := c.pub.Publish(ctx, e); err != nil {
		c.log.Warn("publishing event failed", zap.String("subject", e.Subject), zap.Error(err))
	}
}
