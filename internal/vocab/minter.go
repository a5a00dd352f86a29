package vocab

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	apperrors "github.com/lexiconlabs/resolution-platform/pkg/errors"
	"github.com/lexiconlabs/resolution-platform/pkg/metrics"
	"github.com/lexiconlabs/resolution-platform/pkg/resilience"
)

// Minter assigns token ids to words the resolution engine could not match.
// Store writes run behind a circuit breaker so a struggling database degrades
// minting instead of stalling the resolve pipeline.
type Minter struct {
	store   *Store
	cache   *TokenCache
	breaker *resilience.CircuitBreaker
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewMinter builds a Minter around the store and cache.
func NewMinter(store *Store, cache *TokenCache) *Minter {
	return &Minter{
		store:   store,
		cache:   cache,
		breaker: resilience.NewCircuitBreaker("vocab-mint", resilience.CircuitBreakerConfig{}),
		logger:  slog.Default().With("component", "vocab-minter"),
	}
}

// WithMetrics attaches Prometheus collectors; the breaker state gauge is
// updated after every store write attempt.
func (m *Minter) WithMetrics(mx *metrics.Metrics) *Minter {
	m.metrics = mx
	return m
}

// Mint returns the word's token id, creating one if the word is unknown.
// The returned bool reports whether a new token was minted.
func (m *Minter) Mint(ctx context.Context, word string) (string, bool, error) {
	tokenID, err := m.cache.GetToken(ctx, word)
	if err == nil {
		return tokenID, false, nil
	}
	if !errors.Is(err, apperrors.ErrWordNotFound) {
		return "", false, fmt.Errorf("token lookup before mint: %w", err)
	}

	var minted string
	err = m.breaker.Execute(func() error {
		var mintErr error
		minted, mintErr = m.store.MintToken(ctx, word)
		return mintErr
	})
	if m.metrics != nil {
		m.metrics.CircuitBreakerState.WithLabelValues("vocab-mint").
			Set(float64(m.breaker.GetState()))
	}
	if err != nil {
		if errors.Is(err, resilience.ErrCircuitOpen) {
			m.logger.Warn("mint skipped, circuit open", "word", word)
			return "", false, apperrors.New(apperrors.ErrStoreUnavailable,
				http.StatusServiceUnavailable, "minting temporarily unavailable")
		}
		return "", false, err
	}
	m.cache.Put(ctx, word, minted)
	m.logger.Debug("token minted", "word", word, "token_id", minted)
	return minted, true, nil
}
