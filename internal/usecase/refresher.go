package usecase

import (
	"context"
	"fmt"
	"time"

	applogger "FinRatio/pkg/logger"
	"FinRatio/pkg/queue"
)

// Invalidator drops cached upstream data before a forced refresh.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Refresher starts an out of band ratio run, either through the shared queue or in process.
type Refresher struct {
	pipeline    *RatioPipeline
	scheduler   *Scheduler
	pub         queue.Publisher
	invalidator Invalidator
	l           *applogger.Logger
}

func NewRefresher(pipeline *RatioPipeline, scheduler *Scheduler, l *applogger.Logger) *Refresher {
	return &Refresher{pipeline: pipeline, scheduler: scheduler, l: l}
}

// WithQueue routes refreshes through pub so any worker replica can run them.
func (r *Refresher) WithQueue(pub queue.Publisher) *Refresher { r.pub = pub; return r }

// WithInvalidator clears the snapshot cache before each refresh.
func (r *Refresher) WithInvalidator(i Invalidator) *Refresher { r.invalidator = i; return r }

// Trigger requests a run. It returns ErrRunInProgress if this process is already running one.
func (r *Refresher) Trigger(ctx context.Context, source string) error {
	if r.pipeline.Running() {
		return ErrRunInProgress
	}
	if r.invalidator != nil {
		if err := r.invalidator.Invalidate(ctx); err != nil {
			r.l.Warn("snapshot cache invalidation failed", applogger.Error(err))
		}
	}
	if r.pub != nil {
		req := RefreshRequest{Source: source, RequestedAt: time.Now().UTC()}
		if err := r.pub.PublishMessage(ctx, RefreshMessageType, req); err != nil {
			return fmt.Errorf("enqueue refresh: %w", err)
		}
		return nil
	}
	r.scheduler.RunNow()
	return nil
}
