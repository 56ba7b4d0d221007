package runonce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBarrier elects a leader with SETNX and fans the leader's result out
// through a shared result key. Non-leaders poll the result key until it
// appears or the context ends. The TTL bounds how long a crashed leader can
// stall the cohort.
type RedisBarrier struct {
	client *redis.Client
	nodeID string
	ttl    time.Duration
	poll   time.Duration
}

// envelope is what the leader stores; followers decode it so errors
// propagate to every cohort member, not just the leader.
type envelope struct {
	OK    bool   `json:"ok"`
	Value []byte `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

func NewRedisBarrier(client *redis.Client, nodeID string, ttl, poll time.Duration) *RedisBarrier {
	return &RedisBarrier{client: client, nodeID: nodeID, ttl: ttl, poll: poll}
}

func (b *RedisBarrier) Do(ctx context.Context, name string, fn func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	lockKey := "runonce:lock:" + name
	resultKey := "runonce:result:" + name

	// SET key value NX EX ttl; the value records which node leads,
	// useful when debugging a stalled barrier.
	leader, err := b.client.SetNX(ctx, lockKey, b.nodeID, b.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("runonce: acquire leader lock %s: %w", name, err)
	}

	if leader {
		value, fnErr := fn(ctx)
		env := envelope{OK: fnErr == nil, Value: value}
		if fnErr != nil {
			env.Error = fnErr.Error()
		}
		raw, _ := json.Marshal(env)
		if err := b.client.Set(ctx, resultKey, raw, b.ttl).Err(); err != nil {
			return nil, fmt.Errorf("runonce: store result %s: %w", name, err)
		}
		if fnErr != nil {
			return nil, fnErr
		}
		return value, nil
	}

	return b.await(ctx, name, resultKey)
}

func (b *RedisBarrier) await(ctx context.Context, name, resultKey string) ([]byte, error) {
	ticker := time.NewTicker(b.poll)
	defer ticker.Stop()

	for {
		raw, err := b.client.Get(ctx, resultKey).Bytes()
		switch {
		case err == nil:
			var env envelope
			if err := json.Unmarshal(raw, &env); err != nil {
				return nil, fmt.Errorf("runonce: decode result %s: %w", name, err)
			}
			if !env.OK {
				return nil, errors.New(env.Error)
			}
			return env.Value, nil
		case errors.Is(err, redis.Nil):
			// leader not done yet
		default:
			return nil, fmt.Errorf("runonce: read result %s: %w", name, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
