// Package events carries state changes out of the core as discrete
// messages, so observers never depend on how the core re-renders.
package events

import (
	"context"
	"sync"
	"time"
)

// Subjects published by the core.
const (
	ItemCreated       = "fixit.item.created"
	ItemStatusChanged = "fixit.item.status_changed"
	ItemFeeChanged    = "fixit.item.fee_changed"
	ItemImageSet      = "fixit.item.image_set"
	MessagePosted     = "fixit.chat.message_posted"
	OfferComposed     = "fixit.offer.composed"
	OfferProposed     = "fixit.offer.proposed"
	OfferDenied       = "fixit.offer.denied"
	OfferConfirmed    = "fixit.offer.confirmed"
	Navigated         = "fixit.navigation.transition"
)

// Event is the payload sent for every subject.
type Event struct {
	Subject string            `json:"subject"`
	ItemID  string            `json:"item_id,omitempty"`
	Attrs   map[string]string `json:"attrs,omitempty"`
	At      time.Time         `json:"at"`
}

// New builds an event stamped with the current time. attrs are key/value pairs.
func New(subject, itemID string, attrs ...string) Event {
	e := Event{Subject: subject, ItemID: itemID, At: time.Now().UTC()}
	if len(attrs) > 1 {
		e.Attrs = make(map[string]string, len(attrs)/2)
		for i := 0; i+1 < len(attrs); i += 2 {
			e.Attrs[attrs[i]] = attrs[i+1]
		}
	}
	return e
}

// Publisher delivers events. Publishing happens after the state change
// has been applied; a failed publish never rolls it back.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi fans an event out to several publishers and returns the first error.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var first error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Recorder keeps events in memory. Used by tests and the demo command.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	return nil
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Subjects returns the recorded subjects in order.
func (r *Recorder) Subjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Subject
	}
	return out
}
