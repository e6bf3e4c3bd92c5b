package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-hr/odyssey-hr/internal/jobs"
)

// TaskTypeAuditPrune removes audit entries past the retention window.
const TaskTypeAuditPrune = "audit:prune"

// AuditPrunePayload carries the retention window in days.
type AuditPrunePayload struct {
	RetentionDays int `json:"retention_days"`
}

// NewAuditPruneTask prepares a prune task for the scheduler.
func NewAuditPruneTask(retentionDays int) (*asynq.Task, error) {
	if retentionDays <= 0 {
		return nil, fmt.Errorf("jobs: audit prune requires a positive retention, got %d", retentionDays)
	}
	data, err := json.Marshal(AuditPrunePayload{RetentionDays: retentionDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAuditPrune, data), nil
}

// AuditPruneOptions is the queue and retry policy for prune tasks, scheduled or manual.
func AuditPruneOptions() []asynq.Option {
	return []asynq.Option{asynq.Queue(QueueMaintenance), asynq.MaxRetry(3), asynq.Timeout(10 * time.Minute)}
}

// AuditPruner deletes audit rows older than a cutoff.
type AuditPruner interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuditPruneJob handles TaskTypeAuditPrune tasks.
type AuditPruneJob struct {
	pruner  AuditPruner
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewAuditPruneJob initialises the prune handler.
func NewAuditPruneJob(pruner AuditPruner, logger *slog.Logger, metrics *jobmetrics.Metrics) *AuditPruneJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditPruneJob{
		pruner:  pruner,
		logger:  logger,
		metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle deletes every audit row older than the payload's retention window.
func (j *AuditPruneJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.pruner == nil {
		return errors.New("audit prune: handler not configured")
	}
	tracker := j.metrics.Track(TaskTypeAuditPrune)
	var payload AuditPrunePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.RetentionDays <= 0 {
		j.logger.Warn("discard malformed audit prune task", slog.Any("error", err))
		return tracker.End(fmt.Errorf("audit prune: bad payload: %w", asynq.SkipRetry))
	}

	cutoff := j.clock().AddDate(0, 0, -payload.RetentionDays)
	removed, err := j.pruner.PruneBefore(ctx, cutoff)
	if err != nil {
		j.logger.Error("audit prune failed", slog.Time("cutoff", cutoff), slog.Any("error", err))
		return tracker.End(err)
	}
	j.logger.Info("audit log pruned", slog.Time("cutoff", cutoff), slog.Int64("removed", removed))
	return tracker.End(nil)
}
