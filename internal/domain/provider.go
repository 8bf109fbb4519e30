package domain

import (
	"encoding/json"
	"time"
)

// ProviderType distinguishes the two kinds of business entities that sell
// through the platform.
type ProviderType string

const (
	TypeHotelManager ProviderType = "HOTEL_MANAGER"
	TypeTourOperator ProviderType = "TOUR_OPERATOR"
)

// ValidProviderType reports whether s is a known provider type.
func ValidProviderType(s string) bool {
	switch ProviderType(s) {
	case TypeHotelManager, TypeTourOperator:
		return true
	}
	return false
}

// RequiredSteps returns the number of onboarding steps a provider of this
// type must complete before submitting for review.
func (t ProviderType) RequiredSteps() int {
	if t == TypeTourOperator {
		return 14
	}
	return 7
}

// Status represents the verification state of a provider. It is the single
// source of truth for whether a provider may publish.
type Status string

const (
	StatusNotStarted  Status = "NOT_STARTED"
	StatusInProgress  Status = "IN_PROGRESS"
	StatusSubmitted   Status = "SUBMITTED"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusApproved    Status = "APPROVED"
	StatusRejected    Status = "REJECTED"
	StatusSuspended   Status = "SUSPENDED"
)

// ValidStatus reports whether s is a known verification status.
func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusNotStarted, StatusInProgress, StatusSubmitted,
		StatusUnderReview, StatusApproved, StatusRejected, StatusSuspended:
		return true
	}
	return false
}

// Reviewable reports whether a reviewer decision is legal from s.
func (s Status) Reviewable() bool {
	return s == StatusSubmitted || s == StatusUnderReview
}

// Editable reports whether the owner may mutate onboarding data while in s.
// Data under review must not change underneath the reviewer.
func (s Status) Editable() bool {
	return s == StatusNotStarted || s == StatusInProgress || s == StatusRejected
}

// ReviewableStatuses is the default scope of the review queue.
var ReviewableStatuses = []Status{StatusSubmitted, StatusUnderReview}

// Event represents an action that triggers a verification state transition.
type Event string

const (
	EventStart       Event = "start"
	EventSubmit      Event = "submit"
	EventBeginReview Event = "begin_review"
	EventApprove     Event = "approve"
	EventReject      Event = "reject"
	EventSuspend     Event = "suspend"
)

// Transition defines a valid state change: an event moves a provider from Src to Dst.
type Transition struct {
	Event Event
	Src   Status
	Dst   Status
}

// Transitions defines all valid state changes in the verification lifecycle.
// This is domain knowledge consumed by the FSM adapter. Submission advances
// straight to UNDER_REVIEW; SUBMITTED remains in the reviewable set so
// profiles seeded by an external system can still be decided.
var Transitions = []Transition{
	{Event: EventStart, Src: StatusNotStarted, Dst: StatusInProgress},
	{Event: EventSubmit, Src: StatusInProgress, Dst: StatusUnderReview},
	{Event: EventSubmit, Src: StatusRejected, Dst: StatusUnderReview},
	{Event: EventBeginReview, Src: StatusSubmitted, Dst: StatusUnderReview},
	{Event: EventApprove, Src: StatusSubmitted, Dst: StatusApproved},
	{Event: EventApprove, Src: StatusUnderReview, Dst: StatusApproved},
	{Event: EventReject, Src: StatusSubmitted, Dst: StatusRejected},
	{Event: EventReject, Src: StatusUnderReview, Dst: StatusRejected},
	{Event: EventSuspend, Src: StatusApproved, Dst: StatusSuspended},
}

// ProviderProfile is the core domain entity: one business identity of a user,
// progressing from unverified to trusted seller.
type ProviderProfile struct {
	ID              string
	OwnerUserID     string
	ProviderType    ProviderType
	Status          Status
	RejectionReason *string
	SubmittedAt     *time.Time
	ReviewedAt      *time.Time
	ReviewedBy      *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewProviderProfile creates a profile in the initial NOT_STARTED state.
func NewProviderProfile(id, ownerUserID string, providerType ProviderType) ProviderProfile {
	now := time.Now().UTC()
	return ProviderProfile{
		ID:           id,
		OwnerUserID:  ownerUserID,
		ProviderType: providerType,
		Status:       StatusNotStarted,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// OnboardingProgress tracks per-step data and completion markers for a
// provider. It is created together with the profile and never deleted while
// the profile exists. Step payloads are stored opaquely; the tracker never
// interprets their contents.
type OnboardingProgress struct {
	ProviderID     string
	CurrentStep    int
	CompletedSteps []int
	StepData       map[string]json.RawMessage
	SubmittedAt    *time.Time
	ApprovedAt     *time.Time
	RejectedAt     *time.Time
	UpdatedAt      time.Time
}

// NewOnboardingProgress creates the empty tracker for a freshly created profile.
func NewOnboardingProgress(providerID string) OnboardingProgress {
	return OnboardingProgress{
		ProviderID:     providerID,
		CurrentStep:    1,
		CompletedSteps: []int{},
		StepData:       map[string]json.RawMessage{},
		UpdatedAt:      time.Now().UTC(),
	}
}

// StepCompleted reports whether step is already in the completed set.
func (p OnboardingProgress) StepCompleted(step int) bool {
	for _, s := range p.CompletedSteps {
		if s == step {
			return true
		}
	}
	return false
}

// MarkStepCompleted records step as completed and advances the step cursor.
// Idempotent: completing the same step twice leaves one entry.
func (p *OnboardingProgress) MarkStepCompleted(step int) {
	if !p.StepCompleted(step) {
		p.CompletedSteps = append(p.CompletedSteps, step)
	}
	if step > p.CurrentStep {
		p.CurrentStep = step
	}
}
