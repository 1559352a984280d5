package services

import (
	"context"
	"leadchat-backend/internal/metrics"
	"log/slog"
	"time"
)

// LeadPipeline hands finished turns to the extractor as detached background tasks.
// Nothing it does is visible to the request that produced the turn.
type LeadPipeline struct {
	extractor *LeadExtractor
	bg        *Background
	timeout   time.Duration
	logger    *slog.Logger
}

func NewLeadPipeline(extractor *LeadExtractor, bg *Background, timeout time.Duration, logger *slog.Logger) *LeadPipeline {
	return &LeadPipeline{
		extractor: extractor,
		bg:        bg,
		timeout:   timeout,
		logger:    logger.With("component", "LeadPipeline"),
	}
}

// Dispatch schedules extraction for t and returns immediately.
func (p *LeadPipeline) Dispatch(t *Transcript) {
	if p == nil || p.extractor == nil || t == nil {
		return
	}
	p.bg.Go("extract-lead", p.timeout, func(ctx context.Context) error {
		start := time.Now()
		outcome, err := p.extractor.Process(ctx, t)
		metrics.RecordExtraction(string(outcome))
		if err != nil {
			return err
		}
		p.logger.Info("Lead extraction finished", "outcome", outcome, "elapsed", time.Since(start))
		return nil
	})
}

// Wait drains in-flight background work; used on shutdown.
func (p *LeadPipeline) Wait(ctx context.Context) error {
	return p.bg.Wait(ctx)
}
