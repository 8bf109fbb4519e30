package domain

import "context"

// ProfileRepository defines the persistence contract for provider profiles.
//
// UpdateStatusFrom is the load-bearing operation: it writes the full profile
// only where the stored status still equals expected, in a single conditional
// statement. When the predicate fails it returns ErrStaleStatus if the row
// exists with a different status, or ErrProfileNotFound if it is gone. Two
// concurrent decisions racing on one profile therefore produce exactly one
// winner.
type ProfileRepository interface {
	Create(ctx context.Context, profile ProviderProfile) error
	GetByID(ctx context.Context, id string) (ProviderProfile, error)
	GetByOwnerAndType(ctx context.Context, ownerUserID string, providerType ProviderType) (ProviderProfile, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]ProviderProfile, error)
	// ListByStatus returns profiles in any of the given statuses, ordered by
	// submission time ascending (oldest first, for reviewer fairness).
	ListByStatus(ctx context.Context, statuses []Status, providerType *ProviderType) ([]ProviderProfile, error)
	UpdateStatusFrom(ctx context.Context, profile ProviderProfile, expected Status) error
}

// ProgressRepository defines the persistence contract for onboarding trackers.
type ProgressRepository interface {
	Create(ctx context.Context, progress OnboardingProgress) error
	GetByProviderID(ctx context.Context, providerID string) (OnboardingProgress, error)
	Update(ctx context.Context, progress OnboardingProgress) error
}

// PackageRepository defines the persistence contract for sellable packages.
// UpdateStatusFrom follows the same conditional-write discipline as the
// profile repository.
type PackageRepository interface {
	Create(ctx context.Context, pkg Package) error
	GetByID(ctx context.Context, id string) (Package, error)
	ListByProvider(ctx context.Context, providerID string) ([]Package, error)
	UpdateStatusFrom(ctx context.Context, pkg Package, expected PackageStatus) error
}

// EventPublisher defines the contract for emitting audit events. Every
// decision and submission flows through here so a support ticket can be
// traced to one decision in the logs.
type EventPublisher interface {
	Publish(ctx context.Context, event Event, profile ProviderProfile) error
}

// TransitionValidator checks whether an event is legal from the current
// status and returns the destination status.
type TransitionValidator interface {
	Apply(ctx context.Context, current Status, event Event) (Status, error)
}
