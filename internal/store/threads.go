package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/fixitforward/internal/model"
)

// LoadThread returns the chat of an item, creating an empty one on first use.
func LoadThread(ctx context.Context, db *sql.DB, itemID string) (*model.Thread, error) {
	if err := ensureThread(ctx, db, itemID); err != nil {
		return nil, err
	}

	t := &model.Thread{ItemID: itemID, Messages: []model.Message{}}
	err := db.QueryRowContext(ctx,
		`SELECT pending_offer, agreed_offer FROM chat_threads WHERE item_id = ?`, itemID,
	).Scan(&t.PendingOffer, &t.AgreedOffer)
	if err != nil {
		return nil, fmt.Errorf("getting thread: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, item_id, text, sender, sent_at FROM chat_messages
		 WHERE item_id = ? ORDER BY id`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m model.Message
		var sender string
		if err := rows.Scan(&m.ID, &m.ItemID, &m.Text, &sender, &m.SentAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.Sender = model.Sender(sender)
		m.SentAt = m.SentAt.UTC()
		t.Messages = append(t.Messages, m)
	}
	return t, rows.Err()
}

// AppendMessage adds a message to its item's chat.
func AppendMessage(ctx context.Context, db *sql.DB, msg *model.Message) error {
	if err := ensureThread(ctx, db, msg.ItemID); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO chat_messages (id, item_id, text, sender, sent_at) VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.ItemID, msg.Text, string(msg.Sender), formatTime(msg.SentAt),
	)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}
	return nil
}

// SetOffers overwrites the pending and agreed offers of an item's chat.
func SetOffers(ctx context.Context, db *sql.DB, itemID, pending, agreed string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO chat_threads (item_id, pending_offer, agreed_offer) VALUES (?, ?, ?)
		 ON CONFLICT (item_id) DO UPDATE SET pending_offer = excluded.pending_offer,
		                                     agreed_offer = excluded.agreed_offer`,
		itemID, pending, agreed,
	)
	if err != nil {
		return fmt.Errorf("setting offers: %w", err)
	}
	return nil
}

func ensureThread(ctx context.Context, db *sql.DB, itemID string) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO chat_threads (item_id) VALUES (?)`, itemID,
	)
	if err != nil {
		return fmt.Errorf("creating thread: %w", err)
	}
	return nil
}

// Threads adapts the chat functions to negotiation.Repository.
type Threads struct {
	DB *sql.DB
}

// NewThreads returns a thread repository on db.
func NewThreads(db *sql.DB) *Threads {
	return &Threads{DB: db}
}

func (s *Threads) LoadThread(ctx context.Context, itemID string) (*model.Thread, error) {
	return LoadThread(ctx, s.DB, itemID)
}

func (s *Threads) AppendMessage(ctx context.Context, msg *model.Message) error {
	return AppendMessage(ctx, s.DB, msg)
}

func (s *Threads) SetOffers(ctx context.Context, itemID, pending, agreed string) error {
	return SetOffers(ctx, s.DB, itemID, pending, agreed)
}
