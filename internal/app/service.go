package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tripfolio/providerhub/internal/domain"
)

// Decision is a reviewer verdict on a profile in a reviewable state.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// OnboardingStatus is the owner-facing view of a profile and its tracker,
// including derived progress figures.
type OnboardingStatus struct {
	Profile    domain.ProviderProfile
	Progress   domain.OnboardingProgress
	TotalSteps int
	Percent    int
	CanSubmit  bool
}

// ReviewQueueFilter narrows the review queue listing. Zero value means the
// default scope: every profile awaiting a decision.
type ReviewQueueFilter struct {
	Statuses     []domain.Status
	ProviderType *domain.ProviderType
}

// ProviderService orchestrates the provider verification lifecycle and the
// publish gating of packages.
type ProviderService struct {
	profiles  domain.ProfileRepository
	progress  domain.ProgressRepository
	packages  domain.PackageRepository
	publisher domain.EventPublisher
	validator domain.TransitionValidator
}

// NewProviderService creates a service with the given adapters.
func NewProviderService(
	profiles domain.ProfileRepository,
	progress domain.ProgressRepository,
	packages domain.PackageRepository,
	publisher domain.EventPublisher,
	validator domain.TransitionValidator,
) *ProviderService {
	return &ProviderService{
		profiles:  profiles,
		progress:  progress,
		packages:  packages,
		publisher: publisher,
		validator: validator,
	}
}

// Start creates a provider profile and its empty onboarding tracker, or
// returns the existing pair. Idempotent by (owner, providerType): a second
// start never errors and never duplicates.
func (s *ProviderService) Start(ctx context.Context, principal domain.Principal, providerType domain.ProviderType) (domain.ProviderProfile, domain.OnboardingProgress, bool, error) {
	existing, err := s.profiles.GetByOwnerAndType(ctx, principal.UserID, providerType)
	if err == nil {
		progress, perr := s.progress.GetByProviderID(ctx, existing.ID)
		if perr != nil {
			return domain.ProviderProfile{}, domain.OnboardingProgress{}, false, fmt.Errorf("loading onboarding progress: %w", perr)
		}
		return existing, progress, false, nil
	}
	if !errors.Is(err, domain.ErrProfileNotFound) {
		return domain.ProviderProfile{}, domain.OnboardingProgress{}, false, err
	}

	profile := domain.NewProviderProfile(generateID(), principal.UserID, providerType)
	if err := s.profiles.Create(ctx, profile); err != nil {
		// A concurrent start for the same (owner, type) won the insert.
		// Fall back to the winner's row to keep start idempotent.
		if errors.Is(err, domain.ErrProfileExists) {
			winner, gerr := s.profiles.GetByOwnerAndType(ctx, principal.UserID, providerType)
			if gerr != nil {
				return domain.ProviderProfile{}, domain.OnboardingProgress{}, false, gerr
			}
			progress, perr := s.progress.GetByProviderID(ctx, winner.ID)
			if perr != nil {
				return domain.ProviderProfile{}, domain.OnboardingProgress{}, false, perr
			}
			return winner, progress, false, nil
		}
		return domain.ProviderProfile{}, domain.OnboardingProgress{}, false, fmt.Errorf("creating provider profile: %w", err)
	}

	progress := domain.NewOnboardingProgress(profile.ID)
	if err := s.progress.Create(ctx, progress); err != nil {
		return domain.ProviderProfile{}, domain.OnboardingProgress{}, false, fmt.Errorf("creating onboarding progress: %w", err)
	}

	return profile, progress, true, nil
}

// ListOwn returns every profile the principal owns, with its tracker.
func (s *ProviderService) ListOwn(ctx context.Context, principal domain.Principal) ([]OnboardingStatus, error) {
	profiles, err := s.profiles.ListByOwner(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}

	out := make([]OnboardingStatus, 0, len(profiles))
	for _, profile := range profiles {
		progress, err := s.progress.GetByProviderID(ctx, profile.ID)
		if err != nil {
			return nil, fmt.Errorf("loading progress for %s: %w", profile.ID, err)
		}
		out = append(out, statusView(profile, progress))
	}
	return out, nil
}

// GetOnboarding returns the onboarding status view for a profile. Owners see
// their own; reviewers see any.
func (s *ProviderService) GetOnboarding(ctx context.Context, principal domain.Principal, providerID string) (OnboardingStatus, error) {
	profile, err := s.resolveVisible(ctx, principal, providerID)
	if err != nil {
		return OnboardingStatus{}, err
	}
	progress, err := s.progress.GetByProviderID(ctx, profile.ID)
	if err != nil {
		return OnboardingStatus{}, err
	}
	return statusView(profile, progress), nil
}

// SaveStep records step data and marks the step complete. The first save
// moves the profile from NOT_STARTED to IN_PROGRESS. Saving is refused with
// a conflict while the profile is submitted, under review, approved, or
// suspended: the data a reviewer sees must not shift underneath them.
func (s *ProviderService) SaveStep(ctx context.Context, principal domain.Principal, providerID string, step int, payload []byte) (OnboardingStatus, error) {
	profile, err := s.resolveOwned(ctx, principal, providerID)
	if err != nil {
		return OnboardingStatus{}, err
	}

	if !profile.Status.Editable() {
		return OnboardingStatus{}, &domain.ConflictError{Current: profile.Status}
	}

	if step < 1 || step > profile.ProviderType.RequiredSteps() {
		return OnboardingStatus{}, &domain.ValidationError{
			Field:  "stepId",
			Reason: fmt.Sprintf("must be between 1 and %d", profile.ProviderType.RequiredSteps()),
		}
	}

	progress, err := s.progress.GetByProviderID(ctx, profile.ID)
	if err != nil {
		return OnboardingStatus{}, err
	}

	// Steps cannot be skipped ahead of the cursor.
	if step > progress.CurrentStep+1 {
		return OnboardingStatus{}, &domain.ValidationError{
			Field:  "stepId",
			Reason: fmt.Sprintf("complete step %d before proceeding to step %d", progress.CurrentStep, step),
		}
	}

	if profile.Status == domain.StatusNotStarted {
		profile, err = s.transition(ctx, profile, domain.EventStart, func(*domain.ProviderProfile) {})
		if err != nil {
			return OnboardingStatus{}, err
		}
	}

	if progress.StepData == nil {
		progress.StepData = map[string]json.RawMessage{}
	}
	progress.StepData[stepKey(step)] = payload
	progress.MarkStepCompleted(step)
	progress.UpdatedAt = time.Now().UTC()

	if err := s.progress.Update(ctx, progress); err != nil {
		return OnboardingStatus{}, fmt.Errorf("updating onboarding progress: %w", err)
	}

	return statusView(profile, progress), nil
}

// Submit moves a profile into review. Allowed from IN_PROGRESS and, as a
// resubmission, from REJECTED; the rejection reason is unconditionally
// cleared either way and the submission timestamp refreshed.
func (s *ProviderService) Submit(ctx context.Context, principal domain.Principal, providerID string) (OnboardingStatus, error) {
	profile, err := s.resolveOwned(ctx, principal, providerID)
	if err != nil {
		return OnboardingStatus{}, err
	}

	progress, err := s.progress.GetByProviderID(ctx, profile.ID)
	if err != nil {
		return OnboardingStatus{}, err
	}

	required := profile.ProviderType.RequiredSteps()
	if len(progress.CompletedSteps) < required {
		return OnboardingStatus{}, &domain.ValidationError{
			Field:  "completedSteps",
			Reason: fmt.Sprintf("complete all %d steps before submitting, currently completed: %d", required, len(progress.CompletedSteps)),
		}
	}

	now := time.Now().UTC()
	profile, err = s.transition(ctx, profile, domain.EventSubmit, func(p *domain.ProviderProfile) {
		p.SubmittedAt = &now
		p.RejectionReason = nil
		p.ReviewedAt = nil
		p.ReviewedBy = nil
	})
	if err != nil {
		return OnboardingStatus{}, err
	}

	// Mirror the submission onto the tracker for audit redundancy.
	progress.SubmittedAt = &now
	progress.ApprovedAt = nil
	progress.RejectedAt = nil
	progress.UpdatedAt = now
	if err := s.progress.Update(ctx, progress); err != nil {
		return OnboardingStatus{}, fmt.Errorf("updating onboarding progress: %w", err)
	}

	if err := s.publisher.Publish(ctx, domain.EventSubmit, profile); err != nil {
		return OnboardingStatus{}, fmt.Errorf("publishing submit event: %w", err)
	}

	return statusView(profile, progress), nil
}

// ListPending returns profiles awaiting a reviewer decision, oldest
// submission first. The filter is a validated enum; an arbitrary status is
// rejected rather than passed through to the store.
func (s *ProviderService) ListPending(ctx context.Context, principal domain.Principal, filter ReviewQueueFilter) ([]domain.ProviderProfile, error) {
	if err := requireReviewer(principal); err != nil {
		return nil, err
	}

	statuses := filter.Statuses
	if len(statuses) == 0 {
		statuses = domain.ReviewableStatuses
	}
	for _, st := range statuses {
		if !st.Reviewable() {
			return nil, &domain.ValidationError{
				Field:  "status",
				Reason: fmt.Sprintf("%q is not a reviewable status", st),
			}
		}
	}

	return s.profiles.ListByStatus(ctx, statuses, filter.ProviderType)
}

// Decide records a reviewer verdict. It is the single write path by which a
// profile leaves review. Two concurrent decisions on the same profile produce
// exactly one winner; the loser gets a TransitionError.
func (s *ProviderService) Decide(ctx context.Context, principal domain.Principal, providerID string, decision Decision, reason string) (domain.ProviderProfile, error) {
	if err := requireReviewer(principal); err != nil {
		return domain.ProviderProfile{}, err
	}

	var event domain.Event
	switch decision {
	case DecisionApprove:
		event = domain.EventApprove
	case DecisionReject:
		event = domain.EventReject
		reason = strings.TrimSpace(reason)
		if reason == "" {
			return domain.ProviderProfile{}, &domain.ValidationError{
				Field:  "reason",
				Reason: "a non-empty reason is required to reject",
			}
		}
	default:
		return domain.ProviderProfile{}, &domain.ValidationError{
			Field:  "decision",
			Reason: fmt.Sprintf("unknown decision %q", decision),
		}
	}

	profile, err := s.profiles.GetByID(ctx, providerID)
	if err != nil {
		return domain.ProviderProfile{}, err
	}

	now := time.Now().UTC()
	profile, err = s.transition(ctx, profile, event, func(p *domain.ProviderProfile) {
		p.ReviewedAt = &now
		p.ReviewedBy = &principal.UserID
		if event == domain.EventReject {
			p.RejectionReason = &reason
		} else {
			p.RejectionReason = nil
		}
	})
	if err != nil {
		return domain.ProviderProfile{}, err
	}

	// Mirror decision timestamps onto the tracker for audit redundancy.
	if progress, perr := s.progress.GetByProviderID(ctx, profile.ID); perr == nil {
		if event == domain.EventApprove {
			progress.ApprovedAt = &now
			progress.RejectedAt = nil
		} else {
			progress.RejectedAt = &now
			progress.ApprovedAt = nil
		}
		progress.UpdatedAt = now
		if uerr := s.progress.Update(ctx, progress); uerr != nil {
			return domain.ProviderProfile{}, fmt.Errorf("updating onboarding progress: %w", uerr)
		}
	}

	if err := s.publisher.Publish(ctx, event, profile); err != nil {
		return domain.ProviderProfile{}, fmt.Errorf("publishing %s event: %w", event, err)
	}

	return profile, nil
}

// Suspend revokes trust from a previously approved provider. Reviewer-only
// policy lever; the onboarding flow never calls it.
func (s *ProviderService) Suspend(ctx context.Context, principal domain.Principal, providerID string) (domain.ProviderProfile, error) {
	if err := requireReviewer(principal); err != nil {
		return domain.ProviderProfile{}, err
	}

	profile, err := s.profiles.GetByID(ctx, providerID)
	if err != nil {
		return domain.ProviderProfile{}, err
	}

	profile, err = s.transition(ctx, profile, domain.EventSuspend, func(*domain.ProviderProfile) {})
	if err != nil {
		return domain.ProviderProfile{}, err
	}

	if err := s.publisher.Publish(ctx, domain.EventSuspend, profile); err != nil {
		return domain.ProviderProfile{}, fmt.Errorf("publishing suspend event: %w", err)
	}

	return profile, nil
}

// transition applies event to the profile through the validator, lets mutate
// adjust the audit fields, and writes the result conditionally on the status
// the profile was read at. A stale predicate means a concurrent actor won;
// the caller observes it as an invalid transition from the actual current
// status, never a silent overwrite.
func (s *ProviderService) transition(ctx context.Context, profile domain.ProviderProfile, event domain.Event, mutate func(*domain.ProviderProfile)) (domain.ProviderProfile, error) {
	newStatus, err := s.validator.Apply(ctx, profile.Status, event)
	if err != nil {
		return domain.ProviderProfile{}, err
	}

	expected := profile.Status
	profile.Status = newStatus
	mutate(&profile)

	if err := s.profiles.UpdateStatusFrom(ctx, profile, expected); err != nil {
		if errors.Is(err, domain.ErrStaleStatus) {
			current := expected
			if fresh, gerr := s.profiles.GetByID(ctx, profile.ID); gerr == nil {
				current = fresh.Status
			}
			return domain.ProviderProfile{}, &domain.TransitionError{Event: event, Current: current}
		}
		return domain.ProviderProfile{}, fmt.Errorf("updating provider status: %w", err)
	}

	return profile, nil
}

func statusView(profile domain.ProviderProfile, progress domain.OnboardingProgress) OnboardingStatus {
	total := profile.ProviderType.RequiredSteps()
	completed := len(progress.CompletedSteps)
	percent := 0
	if total > 0 {
		percent = completed * 100 / total
	}
	return OnboardingStatus{
		Profile:    profile,
		Progress:   progress,
		TotalSteps: total,
		Percent:    percent,
		CanSubmit:  completed >= total && profile.Status.Editable(),
	}
}

func stepKey(step int) string {
	return fmt.Sprintf("step%d", step)
}
