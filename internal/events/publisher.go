package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexiconlabs/resolution-platform/pkg/kafka"
)

// Publisher emits resolution and mint events to their Kafka topics.
type Publisher struct {
	resolved *kafka.Producer
	mint     *kafka.Producer
	logger   *slog.Logger
}

// NewPublisher wraps the two producers. Either may be nil to disable that
// stream (used by tests and the HTTP-only deployment).
func NewPublisher(resolved, mint *kafka.Producer) *Publisher {
	return &Publisher{
		resolved: resolved,
		mint:     mint,
		logger:   slog.Default().With("component", "event-publisher"),
	}
}

// PublishResolution emits one ResolutionEvent keyed by document id.
func (p *Publisher) PublishResolution(ctx context.Context, event ResolutionEvent) error {
	if p.resolved == nil {
		return nil
	}
	event.ResolvedAt = time.Now().UTC()
	if err := p.resolved.Publish(ctx, kafka.Event{Key: event.DocumentID, Value: event}); err != nil {
		return fmt.Errorf("publishing resolution event for %s: %w", event.DocumentID, err)
	}
	return nil
}

// PublishMints emits a MintEvent per newly minted word in one batch.
func (p *Publisher) PublishMints(ctx context.Context, mints []MintEvent) error {
	if p.mint == nil || len(mints) == 0 {
		return nil
	}
	batch := make([]kafka.Event, 0, len(mints))
	now := time.Now().UTC()
	for _, m := range mints {
		m.MintedAt = now
		batch = append(batch, kafka.Event{Key: m.Word, Value: m})
	}
	if err := p.mint.PublishBatch(ctx, batch); err != nil {
		return fmt.Errorf("publishing %d mint events: %w", len(mints), err)
	}
	p.logger.Debug("mint events published", "count", len(mints))
	return nil
}
