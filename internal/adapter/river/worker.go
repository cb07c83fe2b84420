package river

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"
)

// EventWorker processes lifecycle event jobs from the River queue.
// For now it logs the event; the notification and audit consumers that
// will hang off this queue live in their own services.
type EventWorker struct {
	river.WorkerDefaults[EventJobArgs]
}

// Work processes a single event job.
func (w *EventWorker) Work(ctx context.Context, job *river.Job[EventJobArgs]) error {
	slog.InfoContext(ctx, "processing lifecycle event",
		"kind", job.Args.EventKind,
		"listing_id", job.Args.ListingID,
		"owner_id", job.Args.OwnerID,
		"status", job.Args.Status,
		"admin", job.Args.Admin,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return nil
}
