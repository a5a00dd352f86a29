// Package consumer reads document events from Kafka and drives them through
// the resolution pipeline: segment the text, resolve every run, mint tokens
// for the unknowns, and publish the outcome events downstream.
package consumer

import (
	"context"
	"log/slog"

	"github.com/lexiconlabs/resolution-platform/internal/events"
	"github.com/lexiconlabs/resolution-platform/internal/resolver"
	"github.com/lexiconlabs/resolution-platform/internal/segmenter"
	"github.com/lexiconlabs/resolution-platform/internal/vocab"
	"github.com/lexiconlabs/resolution-platform/pkg/kafka"
	"github.com/lexiconlabs/resolution-platform/pkg/metrics"
)

// ResolveConsumer wraps a Kafka consumer to drive the resolution pipeline.
type ResolveConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

// New creates a ResolveConsumer backed by the given Kafka consumer.
func New(kafkaConsumer *kafka.Consumer) *ResolveConsumer {
	return &ResolveConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "resolve-consumer"),
	}
}

// Start begins consuming Kafka messages. It blocks until ctx is cancelled.
func (rc *ResolveConsumer) Start(ctx context.Context) error {
	rc.logger.Info("resolve consumer starting")
	return rc.consumer.Start(ctx)
}

// HandleMessage returns a Kafka MessageHandler that resolves one document
// per message. The minter may be nil, in which case unresolved words are
// reported in the resolution event but never minted.
func HandleMessage(
	orch *resolver.Orchestrator,
	minter *vocab.Minter,
	publisher *events.Publisher,
	m *metrics.Metrics,
) kafka.MessageHandler {
	logger := slog.Default().With("component", "resolve-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[events.DocumentEvent](value)
		if err != nil {
			logger.Error("failed to decode document event",
				"error", err,
				"key", string(key),
			)
			return nil
		}

		runs := segmenter.Segment(event.Text)
		manifest := orch.Resolve(runs)
		resolver.RecordMetrics(m, manifest, "kafka")

		outcomes := make([]events.RunOutcome, len(manifest.Results))
		for i, r := range manifest.Results {
			outcomes[i] = events.RunOutcome{
				RunText:      r.RunText,
				Start:        runs[i].Start,
				MatchedToken: r.MatchedToken,
				TierResolved: r.TierResolved,
				Resolved:     r.Resolved,
			}
		}

		var mints []events.MintEvent
		if minter != nil {
			for _, word := range manifest.UnresolvedWords() {
				tokenID, minted, mintErr := minter.Mint(ctx, word)
				if mintErr != nil {
					logger.Error("minting failed",
						"word", word,
						"doc_id", event.DocumentID,
						"error", mintErr,
					)
					continue
				}
				if minted {
					if m != nil {
						m.TokensMintedTotal.Inc()
					}
					mints = append(mints, events.MintEvent{
						Word:       word,
						TokenID:    tokenID,
						DocumentID: event.DocumentID,
					})
				}
			}
		}

		if err := publisher.PublishResolution(ctx, events.ResolutionEvent{
			DocumentID:     event.DocumentID,
			TotalRuns:      manifest.TotalRuns,
			ResolvedRuns:   manifest.ResolvedRuns,
			UnresolvedRuns: manifest.UnresolvedRuns,
			Passes:         manifest.Passes,
			TotalTimeMs:    manifest.TotalTimeMs,
			Outcomes:       outcomes,
		}); err != nil {
			logger.Error("publishing resolution event failed",
				"doc_id", event.DocumentID,
				"error", err,
			)
		}
		if err := publisher.PublishMints(ctx, mints); err != nil {
			logger.Error("publishing mint events failed",
				"doc_id", event.DocumentID,
				"error", err,
			)
		}

		if m != nil {
			m.DocsProcessedTotal.Inc()
		}
		logger.Info("document resolved",
			"doc_id", event.DocumentID,
			"runs", manifest.TotalRuns,
			"resolved", manifest.ResolvedRuns,
			"unresolved", manifest.UnresolvedRuns,
			"minted", len(mints),
			"time_ms", manifest.TotalTimeMs,
		)
		return nil
	}
}
