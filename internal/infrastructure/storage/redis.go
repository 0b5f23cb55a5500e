package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const snapshotPrefix = "session:"

// Redis is a SnapshotStorage backed by a shared Redis instance, letting
// sibling gateway instances rehydrate the same session.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (s *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.client.Get(ctx, snapshotPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("snapshot get %s: %w", key, err)
	}
	return b, true, nil
}

func (s *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, snapshotPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("snapshot set %s: %w", key, err)
	}
	return nil
}

func (s *Redis) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, snapshotPrefix+key).Err(); err != nil {
		return fmt.Errorf("snapshot delete %s: %w", key, err)
	}
	return nil
}

// RedisBus carries the sign-out signal between instances. Publish writes the
// timestamp under the shared signal key (last-write-wins, per contract) and
// broadcasts it on a pub/sub channel named after the same key.
type RedisBus struct {
	client  *redis.Client
	channel string
	log     zerolog.Logger

	mu   sync.Mutex
	subs []*redis.PubSub
}

func NewRedisBus(client *redis.Client, channel string, log zerolog.Logger) *RedisBus {
	return &RedisBus{client: client, channel: channel, log: log}
}

func (b *RedisBus) Publish(ctx context.Context, payload string) error {
	if err := b.client.Set(ctx, b.channel, payload, 0).Err(); err != nil {
		return fmt.Errorf("signal set: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("signal publish: %w", err)
	}
	return nil
}

// Subscribe starts a receive loop on the signal channel. The loop ends when
// the returned unsubscribe function closes the underlying subscription.
func (b *RedisBus) Subscribe(fn func(string)) (func(), error) {
	sub := b.client.Subscribe(context.Background(), b.channel)
	if _, err := sub.Receive(context.Background()); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("signal subscribe: %w", err)
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	go func() {
		for msg := range sub.Channel() {
			fn(msg.Payload)
		}
	}()

	return func() {
		if err := sub.Close(); err != nil {
			b.log.Warn().Err(err).Msg("closing signal subscription")
		}
	}, nil
}

// Close shuts down all live subscriptions.
func (b *RedisBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		_ = sub.Close()
	}
	b.subs = nil
}
