package river

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/tripfolio/providerhub/internal/domain"
)

// Compile-time check: Publisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*Publisher)(nil)

// EventJobArgs carries the data needed to process a domain event asynchronously.
// River serializes this as JSON into its job queue table. It includes a snapshot
// of the provider profile at the time the event was published, so the worker
// never needs to query the database.
type EventJobArgs struct {
	Event           string `json:"event"`
	ProviderID      string `json:"provider_id"`
	OwnerUserID     string `json:"owner_user_id"`
	ProviderType    string `json:"provider_type"`
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (EventJobArgs) Kind() string { return "provider.event" }

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

// Publish enqueues a domain event as an async job in River.
func (p *Publisher) Publish(ctx context.Context, event domain.Event, profile domain.ProviderProfile) error {
	args := EventJobArgs{
		Event:        string(event),
		ProviderID:   profile.ID,
		OwnerUserID:  profile.OwnerUserID,
		ProviderType: string(profile.ProviderType),
		Status:       string(profile.Status),
	}
	if profile.RejectionReason != nil {
		args.RejectionReason = *profile.RejectionReason
	}
	if _, err := p.client.Insert(ctx, args, nil); err != nil {
		return fmt.Errorf("enqueuing event job: %w", err)
	}
	return nil
}
