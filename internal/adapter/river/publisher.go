package river

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/motorsouq/listings/internal/domain"
)

// Compile-time check: Publisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*Publisher)(nil)

// EventJobArgs carries the data needed to process a lifecycle event
// asynchronously. River serializes this as JSON into its job queue table.
// It includes a snapshot of the listing at the time the event was
// published, so the worker never needs to query the database, and the
// actor origin so notification consumers can tell an admin-forced
// transition from an owner-initiated one.
type EventJobArgs struct {
	EventKind string  `json:"kind"`
	ListingID string  `json:"listing_id"`
	OwnerID   string  `json:"owner_id"`
	Title     string  `json:"title"`
	Status    string  `json:"status"`
	Price     float64 `json:"price"`
	Admin     bool    `json:"admin"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (EventJobArgs) Kind() string { return "listing.lifecycle" }

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.EventPublisher by enqueuing River jobs.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues a lifecycle event as an async job in River.
func (p *Publisher) Publish(ctx context.Context, event domain.Event) error {
	_, err := p.client.Insert(ctx, EventJobArgs{
		EventKind: string(event.Kind),
		ListingID: event.Listing.ID,
		OwnerID:   event.Listing.OwnerID,
		Title:     event.Listing.Title,
		Status:    string(event.Listing.Status),
		Price:     event.Listing.Price,
		Admin:     event.Admin,
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing event job: %w", err)
	}
	return nil
}
