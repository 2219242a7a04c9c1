// Package cache keeps call-to-inquiry correlation metadata in Redis so a
// webhook event that arrives with only a provider call id can still be
// matched to the appointment record it belongs to.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/purvaestates/voice-call-service/internal/config"
	"github.com/purvaestates/voice-call-service/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefix = "purva_call_correlation:"

	// Calls never run this long; the entry only has to outlive the call
	// plus webhook delivery retries.
	correlationTTL = 2 * time.Hour
)

// Correlation is the metadata stored per provider call id.
type Correlation struct {
	InquiryID     string `json:"inquiry_id"`
	CustomerName  string `json:"customer_name"`
	PreferredArea string `json:"preferred_area"`
	Budget        string `json:"budget"`
	Language      string `json:"language"`
}

// CorrelationStore caches call correlations. A nil-client store is valid
// and degrades to misses, keeping Redis optional.
type CorrelationStore struct {
	client *redis.Client
}

// NewCorrelationStore connects to Redis per config. When Redis is not
// configured the store is disabled and every lookup misses.
func NewCorrelationStore(cfg config.RedisConfig) *CorrelationStore {
	if !cfg.Enabled() {
		logger.Base().Info("Redis not configured, call correlation cache disabled")
		return &CorrelationStore{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Base().Warn("Redis unreachable, call correlation cache disabled", zap.Error(err))
		return &CorrelationStore{}
	}

	logger.Base().Info("Connected to Redis", zap.String("addr", client.Options().Addr))
	return &CorrelationStore{client: client}
}

// Enabled reports whether the cache is backed by a live Redis connection.
func (s *CorrelationStore) Enabled() bool {
	return s != nil && s.client != nil
}

// Put stores the correlation for a call id. Failures are logged, never
// surfaced: the cache is an assist for webhook matching, not a dependency.
func (s *CorrelationStore) Put(ctx context.Context, callID string, c Correlation) {
	if !s.Enabled() || callID == "" {
		return
	}

	payload, err := json.Marshal(c)
	if err != nil {
		logger.Base().Error("failed to marshal call correlation", zap.Error(err))
		return
	}
	if err := s.client.Set(ctx, keyPrefix+callID, payload, correlationTTL).Err(); err != nil {
		logger.Base().Warn("failed to cache call correlation",
			zap.String("call_id", callID), zap.Error(err))
	}
}

// Get returns the correlation for a call id, or ok=false on any miss.
func (s *CorrelationStore) Get(ctx context.Context, callID string) (Correlation, bool) {
	if !s.Enabled() || callID == "" {
		return Correlation{}, false
	}

	raw, err := s.client.Get(ctx, keyPrefix+callID).Bytes()
	if err == redis.Nil {
		return Correlation{}, false
	}
	if err != nil {
		logger.Base().Warn("failed to read call correlation",
			zap.String("call_id", callID), zap.Error(err))
		return Correlation{}, false
	}

	var c Correlation
	if err := json.Unmarshal(raw, &c); err != nil {
		logger.Base().Warn("corrupt call correlation entry",
			zap.String("call_id", callID), zap.Error(err))
		return Correlation{}, false
	}
	return c, true
}

// Close releases the Redis connection.
func (s *CorrelationStore) Close() error {
	if !s.Enabled() {
		return nil
	}
	return s.client.Close()
}
