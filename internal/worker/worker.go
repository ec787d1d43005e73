package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pulsedeck/backend/internal/responses"
	"github.com/pulsedeck/backend/pkg/queue"
)

// EnrichmentProcessor consumes response enrichment jobs: score the response
// text and write the sentiment label back. It runs out of band; nothing in
// the live path waits for it.
type EnrichmentProcessor struct {
	respRepo *responses.Repository
	queue    *queue.Queue
	logger   *zap.Logger
}

// NewEnrichmentProcessor creates an enrichment processor.
func NewEnrichmentProcessor(respRepo *responses.Repository, q *queue.Queue, logger *zap.Logger) *EnrichmentProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrichmentProcessor{respRepo: respRepo, queue: q, logger: logger}
}

// Process executes one enrichment job.
func (p *EnrichmentProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeEnrichment {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.EnrichmentPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	resp, err := p.respRepo.GetByID(ctx, payload.ResponseID)
	if err != nil {
		return fmt.Errorf("response not found: %s", payload.ResponseID)
	}
	if resp.Sentiment != nil {
		p.logger.Info("response already enriched", zap.String("response_id", resp.ID.String()))
		return nil
	}

	label := scoreSentiment(payload.Text)
	if err := p.respRepo.UpdateSentiment(ctx, payload.ResponseID, label); err != nil {
		return fmt.Errorf("update sentiment: %w", err)
	}
	p.logger.Debug("response enriched",
		zap.String("response_id", payload.ResponseID.String()),
		zap.String("sentiment", label))
	return nil
}

// Run consumes jobs until ctx is cancelled. Failed jobs are retried with
// backoff; the queue moves them to the DLQ after MaxRetries.
func (p *EnrichmentProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error("dequeue failed", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		if err := p.Process(ctx, job); err != nil {
			p.logger.Warn("enrichment job failed", zap.Error(err), zap.String("job_id", job.ID))
			_ = p.queue.Retry(ctx, job)
		}
	}
}

// Tiny lexicon scorer standing in for the external NLP service. Good enough
// for the dashboards; swap for a real service call when one exists.
var (
	positiveWords = map[string]struct{}{
		"yes": {}, "good": {}, "great": {}, "love": {}, "excellent": {},
		"helpful": {}, "clear": {}, "awesome": {}, "agree": {}, "like": {},
	}
	negativeWords = map[string]struct{}{
		"no": {}, "bad": {}, "poor": {}, "hate": {}, "confusing": {},
		"boring": {}, "unclear": {}, "disagree": {}, "dislike": {}, "slow": {},
	}
)

func scoreSentiment(text string) string {
	score := 0
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,!?;:\"'()")
		if _, ok := positiveWords[w]; ok {
			score++
		}
		if _, ok := negativeWords[w]; ok {
			score--
		}
	}
	switch {
	case score > 0:
		return "positive"
	case score < 0:
		return "negative"
	default:
		return "neutral"
	}
}
