// Package redis stores per-destination embed policies. A policy is the
// capability decision for a destination: whether it can and should receive
// rich embeds. Absent policies default to allowing embeds.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"proxyembed/internal/domain"
)

// PolicyStore reads and writes embed policies in Redis.
type PolicyStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewPolicyStore creates a PolicyStore. A zero ttl keeps policies until
// they are explicitly changed.
func NewPolicyStore(client *redis.Client, ttl time.Duration, logger *slog.Logger) *PolicyStore {
	return &PolicyStore{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Connect creates a Redis client and verifies connectivity.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// SetEmbedAllowed records whether a destination accepts rich embeds.
func (s *PolicyStore) SetEmbedAllowed(ctx context.Context, destination string, allowed bool) error {
	value := "0"
	if allowed {
		value = "1"
	}
	if err := s.client.Set(ctx, PolicyKey(destination), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("set embed policy: %w", err)
	}
	s.logger.Debug("embed policy updated", "destination", destination, "allowed", allowed)
	return nil
}

// EmbedAllowed reports whether a destination accepts rich embeds.
// Destinations without a stored policy default to true.
func (s *PolicyStore) EmbedAllowed(ctx context.Context, destination string) (bool, error) {
	value, err := s.client.Get(ctx, PolicyKey(destination)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return true, nil
		}
		return false, fmt.Errorf("get embed policy: %w", err)
	}
	return value == "1", nil
}

// Policy returns the stored policy for a destination, or ErrNotFound when
// none has been set.
func (s *PolicyStore) Policy(ctx context.Context, destination string) (bool, error) {
	value, err := s.client.Get(ctx, PolicyKey(destination)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, &domain.NotFoundError{
				Message: fmt.Sprintf("no embed policy for destination %q", destination),
			}
		}
		return false, fmt.Errorf("get embed policy: %w", err)
	}
	return value == "1", nil
}

// ClearPolicy removes a destination's stored policy, restoring the default.
func (s *PolicyStore) ClearPolicy(ctx context.Context, destination string) error {
	if err := s.client.Del(ctx, PolicyKey(destination)).Err(); err != nil {
		return fmt.Errorf("clear embed policy: %w", err)
	}
	return nil
}
