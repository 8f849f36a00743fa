package usecase

import (
	"context"
	"errors"
	"time"

	applogger "FinRatio/pkg/logger"
	"FinRatio/pkg/queue"
)

// RefreshMessageType is the queue message type for a requested ratio run.
const RefreshMessageType = "ratio.refresh"

// RefreshRequest is the payload of a refresh message.
type RefreshRequest struct {
	Source      string    `json:"source"`
	RequestedAt time.Time `json:"requested_at"`
}

// RefreshJob runs the pipeline when a refresh message is consumed.
type RefreshJob struct {
	runner Runner
	l      *applogger.Logger
}

func NewRefreshJob(runner Runner, l *applogger.Logger) *RefreshJob {
	return &RefreshJob{runner: runner, l: l}
}

func (j *RefreshJob) Name() string { return "ratio-refresh" }

func (j *RefreshJob) Type() string { return RefreshMessageType }

func (j *RefreshJob) Handle(ctx context.Context, payload interface{}) error {
	req, err := queue.ParsePayload[RefreshRequest](payload)
	if err != nil {
		return err
	}
	j.l.Info("refresh requested",
		applogger.String("source", req.Source),
		applogger.String("requested_at", req.RequestedAt.Format(time.RFC3339)),
	)
	if _, err := j.runner.Run(ctx); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			return nil
		}
		return err
	}
	return nil
}
