// Package queue is the producer side of the hand-off to the analysis
// worker. Jobs are JSON envelopes pushed onto the tail of a Redis list;
// the worker blocks on the head with BRPOP. Ordering and at-least-once
// delivery are the broker's contract; the gateway's obligation ends at a
// successful push.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultName is the list the analysis worker listens on.
const DefaultName = "pr_queue"

// Job is the envelope handed to the worker. Payload is the raw webhook
// body, passed through untouched; the worker resolves which user and
// repository own the event.
type Job struct {
	EventType string          `json:"eventType"`
	Payload   json.RawMessage `json:"payload"`
}

// Queue is what the event-intake service depends on. The Redis client
// implements it; tests use an in-memory fake.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Ping(ctx context.Context) error
}

// Redis pushes jobs onto a named Redis list.
type Redis struct {
	client *redis.Client
	name   string
}

// NewRedis connects to the broker at redisURL (redis://host:port/db) and
// produces onto the list called name.
func NewRedis(redisURL, name string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("queue: parsing redis URL: %w", err)
	}
	if name == "" {
		name = DefaultName
	}
	return &Redis{
		client: redis.NewClient(opts),
		name:   name,
	}, nil
}

// Enqueue serializes the job and LPUSHes it. The worker BRPOPs the other
// end, so the list behaves as a FIFO.
func (q *Redis) Enqueue(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue: marshaling job: %w", err)
	}
	if err := q.client.LPush(ctx, q.name, data).Err(); err != nil {
		return fmt.Errorf("queue: pushing job to %s: %w", q.name, err)
	}
	return nil
}

// Ping verifies the broker is reachable. Used by the health endpoint.
func (q *Redis) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Close releases the client's connections.
func (q *Redis) Close() error {
	return q.client.Close()
}
