// Package redisdb stores chat threads in Redis: a list of JSON messages and
// a hash of offers per item.
package redisdb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/erazemk/fixitforward/internal/model"
)

// Options selects the Redis server.
type Options struct {
	Address  string
	Password string
	DB       int
}

// Connect opens a client and checks the server answers.
func Connect(ctx context.Context, o Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     o.Address,
		Password: o.Password,
		DB:       o.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

// Threads is a thread repository. Keys are namespaced by a prefix.
type Threads struct {
	client *redis.Client
	prefix string
}

// NewThreads returns a repository using keys under prefix.
func NewThreads(client *redis.Client, prefix string) *Threads {
	return &Threads{client: client, prefix: prefix}
}

func (r *Threads) messagesKey(itemID string) string {
	return r.prefix + "chat:" + itemID + ":messages"
}

func (r *Threads) offersKey(itemID string) string {
	return r.prefix + "chat:" + itemID + ":offers"
}

func (r *Threads) LoadThread(ctx context.Context, itemID string) (*model.Thread, error) {
	pipe := r.client.Pipeline()
	msgs := pipe.LRange(ctx, r.messagesKey(itemID), 0, -1)
	offers := pipe.HGetAll(ctx, r.offersKey(itemID))
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("loading thread: %w", err)
	}

	t := &model.Thread{ItemID: itemID, Messages: []model.Message{}}
	for _, raw := range msgs.Val() {
		var m model.Message
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, fmt.Errorf("decoding message: %w", err)
		}
		t.Messages = append(t.Messages, m)
	}
	o := offers.Val()
	t.PendingOffer = o["pending"]
	t.AgreedOffer = o["agreed"]
	return t, nil
}

func (r *Threads) AppendMessage(ctx context.Context, msg *model.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}
	if err := r.client.RPush(ctx, r.messagesKey(msg.ItemID), data).Err(); err != nil {
		return fmt.Errorf("appending message: %w", err)
	}
	return nil
}

func (r *Threads) SetOffers(ctx context.Context, itemID, pending, agreed string) error {
	err := r.client.HSet(ctx, r.offersKey(itemID), "pending", pending, "agreed", agreed).Err()
	if err != nil {
		return fmt.Errorf("setting offers: %w", err)
	}
	return nil
}
