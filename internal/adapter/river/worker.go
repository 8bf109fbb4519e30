package river

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"
)

// EventWorker processes domain event jobs from the River queue.
// For now it logs the event; future versions will dispatch to
// email notifications, search indexing, or partner webhooks.
type EventWorker struct {
	river.WorkerDefaults[EventJobArgs]
}

// Work processes a single event job.
func (w *EventWorker) Work(ctx context.Context, job *river.Job[EventJobArgs]) error {
	slog.InfoContext(ctx, "processing provider event",
		"event", job.Args.Event,
		"provider_id", job.Args.ProviderID,
		"provider_type", job.Args.ProviderType,
		"status", job.Args.Status,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return nil
}
