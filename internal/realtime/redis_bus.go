package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"one-os/internal/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// RedisBus relays events through a Redis pub/sub channel so every instance
// sees every change. Local subscribers get their own events immediately;
// the echo coming back from Redis is dropped by origin.
type RedisBus struct {
	local   *LocalBus
	rdb     *redis.Client
	channel string
	origin  string
	log     *logger.Logger
}

func NewRedisBus(rdb *redis.Client, channel string, log *logger.Logger) (*RedisBus, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if channel == "" {
		channel = "oneos_changes"
	}
	return &RedisBus{
		local:   NewLocalBus(),
		rdb:     rdb,
		channel: channel,
		origin:  uuid.New().String(),
		log:     log.With("service", "RedisBus"),
	}, nil
}

func (b *RedisBus) Subscribe(entity EntityType, fn Handler) func() {
	return b.local.Subscribe(entity, fn)
}

func (b *RedisBus) Publish(ctx context.Context, ev ChangeEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	ev.Origin = b.origin
	b.local.deliver(ev)

	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return b.rdb.Publish(ctx, b.channel, data).Err()
}

// StartForwarder subscribes to the channel and delivers remote events to local
// subscribers until ctx is done.
func (b *RedisBus) StartForwarder(ctx context.Context) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				b.handleMessage(msg.Payload)
			}
		}
	}()
	return nil
}

func (b *RedisBus) handleMessage(payload string) {
	var ev ChangeEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		b.log.Warn("bad change event payload", "error", err)
		return
	}
	if ev.Origin == b.origin {
		return
	}
	b.local.deliver(ev)
}

func (b *RedisBus) Close() error {
	return b.local.Close()
}
