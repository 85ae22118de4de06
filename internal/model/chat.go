package model

import "time"

// Sender identifies which side of a chat wrote a message.
type Sender string

// Chat participants, relative to the local user.
const (
	SenderSelf  Sender = "self"
	SenderOther Sender = "other"
)

// Valid reports whether s is a known sender.
func (s Sender) Valid() bool {
	return s == SenderSelf || s == SenderOther
}

// Message is a single chat line. IDs sort in posting order.
type Message struct {
	ID     string    `json:"id"`
	ItemID string    `json:"item_id"`
	Text   string    `json:"text"`
	Sender Sender    `json:"sender"`
	SentAt time.Time `json:"sent_at"`
}

// Thread is the negotiation state attached to one item.
type Thread struct {
	ItemID   string    `json:"item_id"`
	Messages []Message `json:"messages"`

	// PendingOffer is the amount being composed, not yet proposed.
	PendingOffer string `json:"pending_offer,omitempty"`

	// AgreedOffer is the proposed price awaiting confirm or deny.
	AgreedOffer string `json:"agreed_offer,omitempty"`
}

// Clone returns a deep copy so callers can't mutate stored state.
func (t *Thread) Clone() *Thread {
	if t == nil {
		return nil
	}
	c := *t
	c.Messages = make([]Message, len(t.Messages))
	copy(c.Messages, t.Messages)
	return &c
}
