package answercache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/utahisnotastate/utahai-chatbot-api/internal/db"
	"github.com/utahisnotastate/utahai-chatbot-api/internal/domain"
)

var cacheKeyPrefix = domain.KeyPrefix + "answer_cache:"

// store is the consumer interface for the answer cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Answerer is the cached operation.
type Answerer interface {
	Answer(ctx context.Context, query, sessionID string) (domain.AnswerResult, error)
}

// CachedAnswerer serves repeated queries from a key-value store. The session
// id only feeds the backend's personalization signal, not the answer itself,
// so cached answers are shared across sessions. Fallback results are never
// cached: a degraded answer must not outlive the outage that produced it.
type CachedAnswerer struct {
	inner      Answerer
	store      store
	ttl        time.Duration
	mode       domain.AnswerMode
	model      string
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner Answerer,
	s store,
	ttl time.Duration,
	mode domain.AnswerMode,
	model string,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedAnswerer {
	return &CachedAnswerer{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		mode:       mode,
		model:      model,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Answer returns a cached result or calls the inner pipeline.
func (c *CachedAnswerer) Answer(ctx context.Context, query, sessionID string) (domain.AnswerResult, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		// Let the pipeline produce its input error.
		return c.inner.Answer(ctx, query, sessionID)
	}

	key := c.cacheKey(trimmed)
	if res, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return res, nil
	}
	c.incCache("miss")

	res, err := c.inner.Answer(ctx, query, sessionID)
	if err != nil {
		return domain.AnswerResult{}, err
	}

	if res.Err == "" {
		c.putToCache(ctx, key, res)
	}
	return res, nil
}

func (c *CachedAnswerer) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedAnswerer) cacheKey(query string) string {
	h := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%s", c.mode, c.model, query))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}

func (c *CachedAnswerer) getFromCache(ctx context.Context, key string) (domain.AnswerResult, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached answer", zap.String("key", key), zap.Error(err))
		}
		return domain.AnswerResult{}, false
	}

	var res domain.AnswerResult
	if err := json.Unmarshal(data, &res); err != nil {
		c.logger.Warn("Failed to parse cached answer", zap.String("key", key), zap.Error(err))
		return domain.AnswerResult{}, false
	}
	if res.Answer == "" {
		return domain.AnswerResult{}, false
	}
	if res.Citations == nil {
		res.Citations = []domain.Citation{}
	}
	return res, true
}

func (c *CachedAnswerer) putToCache(ctx context.Context, key string, res domain.AnswerResult) {
	data, err := json.Marshal(res)
	if err != nil {
		c.logger.Warn("Failed to encode answer for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache answer", zap.String("key", key), zap.Error(err))
	}
}
