package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/23Serhii/avesint-platform/internal/backend"
	"github.com/23Serhii/avesint-platform/internal/classify"
	"github.com/23Serhii/avesint-platform/internal/core/domain"
	"github.com/23Serhii/avesint-platform/internal/platform/observability"
	"github.com/23Serhii/avesint-platform/internal/source"
)

const (
	statusOK     = "ok"
	statusFailed = "failed"

	previewMaxRunes = 80
	minConcurrency  = 1
)

// Classifier produces a classification for a message text. It never fails;
// every error path inside degrades to the deterministic fallback.
type Classifier interface {
	Classify(ctx context.Context, text string, sourceCategory source.Category) classify.Result
}

// Submitter delivers one finished payload to the backend.
type Submitter interface {
	Ingest(ctx context.Context, p backend.Payload) error
}

// CategoryResolver answers the trust category for a channel handle.
type CategoryResolver interface {
	ResolveCategory(handle string) source.Category
}

// Processor runs one bounded-concurrency unit of work per inbound message:
// admission, classification, payload construction, submission. Failures are
// isolated per message and never affect other in-flight units.
type Processor struct {
	classifier Classifier
	submitter  Submitter
	resolver   CategoryResolver
	sem        chan struct{}
	logger     *zerolog.Logger
}

func NewProcessor(limit int, classifier Classifier, submitter Submitter, resolver CategoryResolver, logger *zerolog.Logger) *Processor {
	if limit < minConcurrency {
		limit = minConcurrency
	}

	return &Processor{
		classifier: classifier,
		submitter:  submitter,
		resolver:   resolver,
		sem:        make(chan struct{}, limit),
		logger:     logger,
	}
}

// HandleMessage is the event-source callback. It discards empty messages,
// then spawns one processing unit without blocking the update stream; the
// unit waits for a free concurrency slot before doing any work.
func (p *Processor) HandleMessage(ctx context.Context, msg domain.InboundMessage) {
	msg.Text = strings.TrimSpace(msg.Text)
	if msg.Text == "" {
		return
	}

	identity := source.Identity(msg.Channel)
	name := source.DisplayName(identity, msg.Channel)

	p.logger.Info().
		Int64("message_id", msg.ID).
		Str("channel", name).
		Str("source", identity.StableExternalID).
		Str("preview", preview(msg.Text)).
		Msg("New message")

	observability.MessagesReceived.WithLabelValues(name).Inc()

	go p.process(ctx, msg, identity, name)
}

func (p *Processor) process(ctx context.Context, msg domain.InboundMessage, identity domain.SourceIdentity, name string) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return
	}

	observability.PipelineInflight.Inc()

	defer func() {
		observability.PipelineInflight.Dec()

		<-p.sem
	}()

	unit := uuid.NewString()

	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Error().
				Int64("message_id", msg.ID).
				Str("unit", unit).
				Interface("panic", rec).
				Msg("Failed to process message")

			observability.PipelineProcessed.WithLabelValues(statusFailed).Inc()
		}
	}()

	sourceCategory := p.resolver.ResolveCategory(name)

	result := p.classifier.Classify(ctx, msg.Text, sourceCategory)

	payload := Build(BuildInput{
		Identity:       identity,
		Message:        msg,
		Classification: result,
		SourceCategory: sourceCategory,
		Now:            time.Now(),
	})

	if err := p.submitter.Ingest(ctx, payload); err != nil {
		p.logger.Error().
			Int64("message_id", msg.ID).
			Str("unit", unit).
			Err(err).
			Msg("Failed to process message")

		observability.PipelineProcessed.WithLabelValues(statusFailed).Inc()

		return
	}

	observability.PipelineProcessed.WithLabelValues(statusOK).Inc()
}

func preview(text string) string {
	flat := strings.ReplaceAll(text, "\n", " ")

	runes := []rune(flat)
	if len(runes) > previewMaxRunes {
		return string(runes[:previewMaxRunes])
	}

	return flat
}
