package domain_test

import (
	"testing"
	"time"

	"github.com/tripfolio/providerhub/internal/domain"
)

func TestNewProviderProfile(t *testing.T) {
	before := time.Now().UTC()
	profile := domain.NewProviderProfile("p-1", "user-1", domain.TypeHotelManager)
	after := time.Now().UTC()

	if profile.ID != "p-1" {
		t.Errorf("ID = %q, want %q", profile.ID, "p-1")
	}
	if profile.OwnerUserID != "user-1" {
		t.Errorf("OwnerUserID = %q, want %q", profile.OwnerUserID, "user-1")
	}
	if profile.Status != domain.StatusNotStarted {
		t.Errorf("Status = %q, want %q", profile.Status, domain.StatusNotStarted)
	}
	if profile.RejectionReason != nil {
		t.Errorf("RejectionReason = %v, want nil", *profile.RejectionReason)
	}
	if profile.CreatedAt.Before(before) || profile.CreatedAt.After(after) {
		t.Errorf("CreatedAt = %v, want between %v and %v", profile.CreatedAt, before, after)
	}
	if profile.UpdatedAt != profile.CreatedAt {
		t.Errorf("UpdatedAt should equal CreatedAt on new profile")
	}
}

func TestTransitions_AllEventsHaveEntries(t *testing.T) {
	events := []domain.Event{
		domain.EventStart,
		domain.EventSubmit,
		domain.EventBeginReview,
		domain.EventApprove,
		domain.EventReject,
		domain.EventSuspend,
	}

	for _, event := range events {
		found := false
		for _, tr := range domain.Transitions {
			if tr.Event == event {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("event %q has no transition defined", event)
		}
	}
}

func TestStatus_Reviewable(t *testing.T) {
	cases := []struct {
		status domain.Status
		want   bool
	}{
		{domain.StatusNotStarted, false},
		{domain.StatusInProgress, false},
		{domain.StatusSubmitted, true},
		{domain.StatusUnderReview, true},
		{domain.StatusApproved, false},
		{domain.StatusRejected, false},
		{domain.StatusSuspended, false},
	}

	for _, c := range cases {
		if got := c.status.Reviewable(); got != c.want {
			t.Errorf("%s.Reviewable() = %v, want %v", c.status, got, c.want)
		}
	}
}

func TestStatus_Editable(t *testing.T) {
	cases := []struct {
		status domain.Status
		want   bool
	}{
		{domain.StatusNotStarted, true},
		{domain.StatusInProgress, true},
		{domain.StatusRejected, true},
		{domain.StatusSubmitted, false},
		{domain.StatusUnderReview, false},
		{domain.StatusApproved, false},
		{domain.StatusSuspended, false},
	}

	for _, c := range cases {
		if got := c.status.Editable(); got != c.want {
			t.Errorf("%s.Editable() = %v, want %v", c.status, got, c.want)
		}
	}
}

func TestProviderType_RequiredSteps(t *testing.T) {
	if got := domain.TypeHotelManager.RequiredSteps(); got != 7 {
		t.Errorf("hotel manager steps = %d, want 7", got)
	}
	if got := domain.TypeTourOperator.RequiredSteps(); got != 14 {
		t.Errorf("tour operator steps = %d, want 14", got)
	}
}

func TestMarkStepCompleted_Idempotent(t *testing.T) {
	progress := domain.NewOnboardingProgress("p-1")

	progress.MarkStepCompleted(2)
	progress.MarkStepCompleted(2)
	progress.MarkStepCompleted(3)

	if len(progress.CompletedSteps) != 2 {
		t.Fatalf("CompletedSteps = %v, want 2 entries", progress.CompletedSteps)
	}
	if progress.CurrentStep != 3 {
		t.Errorf("CurrentStep = %d, want 3", progress.CurrentStep)
	}
}

func TestMarkStepCompleted_DoesNotRegressCursor(t *testing.T) {
	progress := domain.NewOnboardingProgress("p-1")

	progress.MarkStepCompleted(5)
	progress.MarkStepCompleted(2)

	if progress.CurrentStep != 5 {
		t.Errorf("CurrentStep = %d, want 5", progress.CurrentStep)
	}
	if !progress.StepCompleted(2) || !progress.StepCompleted(5) {
		t.Errorf("steps 2 and 5 should both be completed: %v", progress.CompletedSteps)
	}
}

func TestValidStatus(t *testing.T) {
	if !domain.ValidStatus("UNDER_REVIEW") {
		t.Error("UNDER_REVIEW should be valid")
	}
	if domain.ValidStatus("PENDING") {
		t.Error("PENDING should not be valid")
	}
	if domain.ValidStatus("") {
		t.Error("empty status should not be valid")
	}
}

func TestValidProviderType(t *testing.T) {
	if !domain.ValidProviderType("TOUR_OPERATOR") {
		t.Error("TOUR_OPERATOR should be valid")
	}
	if domain.ValidProviderType("AIRLINE") {
		t.Error("AIRLINE should not be valid")
	}
}
