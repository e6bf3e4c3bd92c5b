package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/odyssey-hr/odyssey-hr/jobs"
)

// QueueInspector is the subset of asynq.Inspector used by JobsCLI.
type QueueInspector interface {
	jobs.QueueInspector
	Close() error
}

// JobsCLI wraps manual management helpers for background jobs.
type JobsCLI struct {
	client    *jobs.Client
	inspector QueueInspector
}

// NewJobsCLI initialises the helpers against the Redis at redisAddr.
func NewJobsCLI(redisAddr string) (*JobsCLI, error) {
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	client, err := jobs.NewClient(opts)
	if err != nil {
		return nil, err
	}
	return &JobsCLI{client: client, inspector: asynq.NewInspector(opts)}, nil
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var errs []error
	if c.inspector != nil {
		errs = append(errs, c.inspector.Close())
	}
	if c.client != nil {
		errs = append(errs, c.client.Close())
	}
	return errors.Join(errs...)
}

// TriggerAuditPrune enqueues an immediate audit prune.
func (c *JobsCLI) TriggerAuditPrune(ctx context.Context, retentionDays int) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	return c.client.EnqueueAuditPrune(ctx, retentionDays)
}

// InspectQueues reports every worker queue.
func (c *JobsCLI) InspectQueues() ([]jobs.QueueStats, error) {
	if c == nil || c.inspector == nil {
		return nil, errors.New("jobs cli: inspector not configured")
	}
	return jobs.Inspect(c.inspector)
}

func newJobsCmd() *cobra.Command {
	var redisAddr string
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and trigger background jobs (talks to Redis directly)",
	}
	cmd.PersistentFlags().StringVar(&redisAddr, "redis-addr", "127.0.0.1:6379", "Redis address used by the worker")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show queue counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			jc, err := NewJobsCLI(redisAddr)
			if err != nil {
				return err
			}
			defer jc.Close()
			stats, err := jc.InspectQueues()
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(stats))
			for _, s := range stats {
				rows = append(rows, []string{s.Queue, strconv.Itoa(s.Pending), strconv.Itoa(s.Active), strconv.Itoa(s.Scheduled), strconv.Itoa(s.Retry), strconv.Itoa(s.Failed)})
			}
			return render(cmd, stats, []string{"queue", "pending", "active", "scheduled", "retry", "failed"}, rows)
		},
	}

	var retention int
	prune := &cobra.Command{
		Use:   "prune-audit",
		Short: "Enqueue an immediate audit log prune",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			jc, err := NewJobsCLI(redisAddr)
			if err != nil {
				return err
			}
			defer jc.Close()
			info, err := jc.TriggerAuditPrune(cmd.Context(), retention)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s as %s on %s\n", info.Type, info.ID, info.Queue)
			return err
		},
	}
	prune.Flags().IntVar(&retention, "retention-days", 365, "delete entries older than this many days")

	cmd.AddCommand(stats, prune)
	return cmd
}
