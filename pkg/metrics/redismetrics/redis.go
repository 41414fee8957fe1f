// Package redismetrics reports Emolog session counters into Redis, the way
// librescoot-bluetooth-service/pkg/redis/client.go reports BLE/battery
// state: an HSET per counter plus a pub/sub notification so a dashboard can
// react without polling. Unlike that client, this one never stores protocol
// state for Emolog itself to read back — spec.md's "Persisted state: none"
// still holds; Redis here is purely an outbound observability sink.
package redismetrics

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
)

// DefaultKey is the Redis hash these counters are written under.
const DefaultKey = "emolog:counters"

// Channel is published to on every counter update, carrying "field:value".
const Channel = "emolog:counters:updates"

// Sink reports Emolog session counters to a Redis hash, matching the
// metrics.Sink interface.
type Sink struct {
	client *redis.Client
	ctx    context.Context
	key    string

	droppedSamples   int64
	droppedResponses int64
	rxBytesDropped   int64
}

// New connects to addr and returns a Sink that writes counters under key
// (DefaultKey if empty).
func New(addr, password string, db int, key string) (*Sink, error) {
	if key == "" {
		key = DefaultKey
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redismetrics: connect to redis: %w", err)
	}
	return &Sink{client: client, ctx: ctx, key: key}, nil
}

func (s *Sink) publish(field string, value int64) {
	pipe := s.client.Pipeline()
	pipe.HSet(s.ctx, s.key, field, value)
	pipe.Publish(s.ctx, Channel, fmt.Sprintf("%s:%d", field, value))
	_, _ = pipe.Exec(s.ctx)
}

// IncDroppedSamples adds n to the dropped-samples counter.
func (s *Sink) IncDroppedSamples(n int) {
	v := atomic.AddInt64(&s.droppedSamples, int64(n))
	s.publish("dropped_samples", v)
}

// IncDroppedResponses adds n to the dropped-responses counter.
func (s *Sink) IncDroppedResponses(n int) {
	v := atomic.AddInt64(&s.droppedResponses, int64(n))
	s.publish("dropped_responses", v)
}

// IncRXBytesDropped adds n to the RX-bytes-dropped counter.
func (s *Sink) IncRXBytesDropped(n int) {
	v := atomic.AddInt64(&s.rxBytesDropped, int64(n))
	s.publish("rx_bytes_dropped", v)
}

// SetTXOccupancy reports the TX ring's current fill level as a gauge pair.
func (s *Sink) SetTXOccupancy(occupied, capacity int) {
	pipe := s.client.Pipeline()
	pipe.HSet(s.ctx, s.key, "tx_occupied", occupied)
	pipe.HSet(s.ctx, s.key, "tx_capacity", capacity)
	_, _ = pipe.Exec(s.ctx)
}

// Close closes the underlying Redis client.
func (s *Sink) Close() error {
	return s.client.Close()
}
