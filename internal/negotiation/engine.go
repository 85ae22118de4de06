// Package negotiation runs the per-item chat and the two-step price
// agreement: an offer is proposed, then confirmed or denied.
package negotiation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/erazemk/fixitforward/internal/events"
	"github.com/erazemk/fixitforward/internal/keylock"
	"github.com/erazemk/fixitforward/internal/model"
	"github.com/erazemk/fixitforward/internal/validate"
)

// Repository persists chat threads. LoadThread creates an empty thread the
// first time an item is accessed and never returns nil.
type Repository interface {
	LoadThread(ctx context.Context, itemID string) (*model.Thread, error)
	AppendMessage(ctx context.Context, msg *model.Message) error
	SetOffers(ctx context.Context, itemID, pending, agreed string) error
}

// ItemLookup resolves item ids. Unknown ids return model.ErrNotFound.
type ItemLookup interface {
	GetItem(ctx context.Context, id string) (*model.Item, error)
}

// Engine applies chat and offer operations, one item at a time.
type Engine struct {
	repo  Repository
	items ItemLookup
	pub   events.Publisher
	log   *zap.Logger
	locks *keylock.Map
	ids   *idSource
	now   func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithPublisher sets where negotiation events are sent.
func WithPublisher(p events.Publisher) Option {
	return func(e *Engine) { e.pub = p }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithClock overrides time.Now for message timestamps and ids.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New returns an engine storing threads in repo and checking ids against items.
func New(repo Repository, items ItemLookup, opts ...Option) *Engine {
	e := &Engine{
		repo:  repo,
		items: items,
		pub:   events.Nop{},
		log:   zap.NewNop(),
		locks: keylock.New(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.ids = newIDSource(e.now)
	return e
}

// Thread returns a snapshot of the item's chat.
func (e *Engine) Thread(ctx context.Context, itemID string) (*model.Thread, error) {
	if err := e.checkItem(ctx, itemID); err != nil {
		return nil, err
	}
	t, err := e.repo.LoadThread(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("loading thread: %w", err)
	}
	return t, nil
}

// PostMessage appends a message. Blank text is rejected.
func (e *Engine) PostMessage(ctx context.Context, itemID, text string, sender model.Sender) (*model.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, model.Invalid("text", "message is empty")
	}
	if !sender.Valid() {
		return nil, model.Invalid("sender", fmt.Sprintf("unknown sender %q", sender))
	}

	unlock := e.locks.Lock(itemID)
	defer unlock()

	if err := e.checkItem(ctx, itemID); err != nil {
		return nil, err
	}

	id, err := e.ids.next()
	if err != nil {
		return nil, fmt.Errorf("generating message id: %w", err)
	}
	msg := &model.Message{
		ID:     id.String(),
		ItemID: itemID,
		Text:   text,
		Sender: sender,
		SentAt: e.now().UTC(),
	}
	if err := e.repo.AppendMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("appending message: %w", err)
	}

	e.publish(ctx, events.New(events.MessagePosted, itemID, "message", msg.ID, "sender", string(sender)))
	return msg, nil
}

// ComposeOffer formats input and keeps it as the pending offer, the
// amount being typed before it is proposed. Returns the formatted amount.
func (e *Engine) ComposeOffer(ctx context.Context, itemID, input string) (string, error) {
	amount := validate.FormatRupiah(input)

	err := e.mutate(ctx, itemID, func(t *model.Thread) error {
		t.PendingOffer = amount
		return nil
	})
	if err != nil {
		return "", err
	}
	e.publish(ctx, events.New(events.OfferComposed, itemID, "amount", amount))
	return amount, nil
}

// CancelOffer drops the pending offer.
func (e *Engine) CancelOffer(ctx context.Context, itemID string) error {
	return e.mutate(ctx, itemID, func(t *model.Thread) error {
		t.PendingOffer = ""
		return nil
	})
}

// ProposeOffer formats amount and makes it the agreed offer, replacing any
// earlier one. The pending offer is cleared.
func (e *Engine) ProposeOffer(ctx context.Context, itemID, amount string) error {
	formatted := validate.FormatRupiah(amount)
	if !validate.ValidCurrency(formatted) {
		return model.Invalid("amount", fmt.Sprintf("malformed amount %q", amount))
	}
	return e.propose(ctx, itemID, func(*model.Thread) (string, error) { return formatted, nil })
}

// ProposePending proposes the offer composed with ComposeOffer.
func (e *Engine) ProposePending(ctx context.Context, itemID string) error {
	return e.propose(ctx, itemID, func(t *model.Thread) (string, error) {
		if t.PendingOffer == "" {
			return "", model.Invalid("amount", "no offer composed")
		}
		return t.PendingOffer, nil
	})
}

func (e *Engine) propose(ctx context.Context, itemID string, pick func(*model.Thread) (string, error)) error {
	var amount string
	err := e.mutate(ctx, itemID, func(t *model.Thread) error {
		a, err := pick(t)
		if err != nil {
			return err
		}
		amount = a
		t.AgreedOffer = a
		t.PendingOffer = ""
		return nil
	})
	if err != nil {
		return err
	}

	e.log.Info("offer proposed", zap.String("item", itemID), zap.String("amount", amount))
	e.publish(ctx, events.New(events.OfferProposed, itemID, "amount", amount))
	return nil
}

// DenyOffer withdraws the agreed offer. Denying when nothing is pending is
// a no-op.
func (e *Engine) DenyOffer(ctx context.Context, itemID string) error {
	var denied string
	err := e.mutate(ctx, itemID, func(t *model.Thread) error {
		denied = t.AgreedOffer
		t.AgreedOffer = ""
		return nil
	})
	if err != nil {
		return err
	}
	if denied != "" {
		e.publish(ctx, events.New(events.OfferDenied, itemID, "amount", denied))
	}
	return nil
}

// ConfirmOffer returns the agreed offer and clears it.
func (e *Engine) ConfirmOffer(ctx context.Context, itemID string) (string, error) {
	return e.Settle(ctx, itemID, nil)
}

// Settle confirms the agreed offer in two phases: apply receives the
// amount, and the offer is cleared only if apply succeeds. A nil apply
// confirms unconditionally.
func (e *Engine) Settle(ctx context.Context, itemID string, apply func(ctx context.Context, amount string) error) (string, error) {
	var amount string
	err := e.mutate(ctx, itemID, func(t *model.Thread) error {
		if t.AgreedOffer == "" {
			return fmt.Errorf("item %s: %w", itemID, model.ErrNoPendingOffer)
		}
		if apply != nil {
			if err := apply(ctx, t.AgreedOffer); err != nil {
				return err
			}
		}
		amount = t.AgreedOffer
		t.AgreedOffer = ""
		return nil
	})
	if err != nil {
		return "", err
	}

	e.log.Info("offer confirmed", zap.String("item", itemID), zap.String("amount", amount))
	e.publish(ctx, events.New(events.OfferConfirmed, itemID, "amount", amount))
	return amount, nil
}

// mutate loads the thread under the item lock, lets fn change the offers
// and writes them back. Nothing is written if fn fails.
func (e *Engine) mutate(ctx context.Context, itemID string, fn func(*model.Thread) error) error {
	unlock := e.locks.Lock(itemID)
	defer unlock()

	if err := e.checkItem(ctx, itemID); err != nil {
		return err
	}

	t, err := e.repo.LoadThread(ctx, itemID)
	if err != nil {
		return fmt.Errorf("loading thread: %w", err)
	}
	pending, agreed := t.PendingOffer, t.AgreedOffer

	if err := fn(t); err != nil {
		return err
	}
	if t.PendingOffer == pending && t.AgreedOffer == agreed {
		return nil
	}
	if err := e.repo.SetOffers(ctx, itemID, t.PendingOffer, t.AgreedOffer); err != nil {
		return fmt.Errorf("saving offers: %w", err)
	}
	return nil
}

func (e *Engine) checkItem(ctx context.Context, itemID string) error {
	if _, err := e.items.GetItem(ctx, itemID); err != nil {
		return err
	}
	return nil
}

func (e *Engine) publish(ctx context.Context, ev events.Event) {
	if err := e.pub.Publish(ctx, ev); err != nil {
		e.log.Warn("publishing event failed", zap.String("subject", ev.Subject), zap.Error(err))
	}
}
