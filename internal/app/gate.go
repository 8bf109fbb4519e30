package app

import (
	"context"

	"github.com/tripfolio/providerhub/internal/domain"
)

// resolveVisible is the ownership gate for read paths: the profile must exist
// and the principal must be its owner or a reviewer. The resolved profile is
// returned so downstream logic never re-fetches it.
func (s *ProviderService) resolveVisible(ctx context.Context, principal domain.Principal, providerID string) (domain.ProviderProfile, error) {
	profile, err := s.profiles.GetByID(ctx, providerID)
	if err != nil {
		return domain.ProviderProfile{}, err
	}
	if principal.IsReviewer() || profile.OwnerUserID == principal.UserID {
		return profile, nil
	}
	return domain.ProviderProfile{}, &domain.ForbiddenError{Reason: "provider profile does not belong to current user"}
}

// resolveOwned is the ownership gate for mutation paths: reviewers read the
// queue but never mutate onboarding data, so only the owner passes.
func (s *ProviderService) resolveOwned(ctx context.Context, principal domain.Principal, providerID string) (domain.ProviderProfile, error) {
	profile, err := s.profiles.GetByID(ctx, providerID)
	if err != nil {
		return domain.ProviderProfile{}, err
	}
	if profile.OwnerUserID != principal.UserID {
		return domain.ProviderProfile{}, &domain.ForbiddenError{Reason: "provider profile does not belong to current user"}
	}
	return profile, nil
}

// requireVerified is the verified-provider gate: the wrapped action may only
// execute once the profile is APPROVED. The gate knows nothing about what it
// protects, only the trust precondition. It fails closed.
func requireVerified(profile domain.ProviderProfile) error {
	if profile.Status != domain.StatusApproved {
		return &domain.ForbiddenError{Reason: "provider is not verified"}
	}
	return nil
}

// requireReviewer guards the review queue and decision surface.
func requireReviewer(principal domain.Principal) error {
	if !principal.IsReviewer() {
		return &domain.ForbiddenError{Reason: "reviewer role required"}
	}
	return nil
}
