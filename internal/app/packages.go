package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tripfolio/providerhub/internal/domain"
)

// CreatePackage drafts a new package for the provider. Drafting needs only
// ownership; verification is enforced at publish time.
func (s *ProviderService) CreatePackage(ctx context.Context, principal domain.Principal, providerID, name string) (domain.Package, error) {
	profile, err := s.resolveOwned(ctx, principal, providerID)
	if err != nil {
		return domain.Package{}, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Package{}, &domain.ValidationError{Field: "name", Reason: "must not be empty"}
	}

	pkg := domain.NewPackage(generateID(), profile.ID, name)
	if err := s.packages.Create(ctx, pkg); err != nil {
		return domain.Package{}, fmt.Errorf("creating package: %w", err)
	}
	return pkg, nil
}

// ListPackages returns the provider's packages. Owners see their own,
// reviewers any.
func (s *ProviderService) ListPackages(ctx context.Context, principal domain.Principal, providerID string) ([]domain.Package, error) {
	profile, err := s.resolveVisible(ctx, principal, providerID)
	if err != nil {
		return nil, err
	}
	return s.packages.ListByProvider(ctx, profile.ID)
}

// PublishPackage makes a DRAFT package live. The verified-provider gate runs
// before the package is even looked up, so an unverified provider always sees
// a 403 and never learns whether the package exists; a verified provider with
// a bad package id sees a plain not-found.
func (s *ProviderService) PublishPackage(ctx context.Context, principal domain.Principal, providerID, packageID string) (domain.Package, error) {
	profile, err := s.resolveOwned(ctx, principal, providerID)
	if err != nil {
		return domain.Package{}, err
	}
	if err := requireVerified(profile); err != nil {
		return domain.Package{}, err
	}

	now := time.Now().UTC()
	pkg, err := s.changePackageStatus(ctx, profile.ID, packageID, "publish", domain.PackagePublished,
		func(p domain.Package) bool { return p.Status == domain.PackageDraft },
		func(p *domain.Package) { p.PublishedAt = &now },
	)
	if err != nil {
		return domain.Package{}, err
	}

	if err := s.publisher.Publish(ctx, domain.EventPackagePublished, profile); err != nil {
		return domain.Package{}, fmt.Errorf("publishing package event: %w", err)
	}
	return pkg, nil
}

// PausePackage takes a PUBLISHED package off the shelf without archiving it.
func (s *ProviderService) PausePackage(ctx context.Context, principal domain.Principal, providerID, packageID string) (domain.Package, error) {
	profile, err := s.resolveOwned(ctx, principal, providerID)
	if err != nil {
		return domain.Package{}, err
	}
	if err := requireVerified(profile); err != nil {
		return domain.Package{}, err
	}

	return s.changePackageStatus(ctx, profile.ID, packageID, "pause", domain.PackagePaused,
		func(p domain.Package) bool { return p.Status == domain.PackagePublished },
		func(*domain.Package) {},
	)
}

// ResumePackage puts a PAUSED package back on sale.
func (s *ProviderService) ResumePackage(ctx context.Context, principal domain.Principal, providerID, packageID string) (domain.Package, error) {
	profile, err := s.resolveOwned(ctx, principal, providerID)
	if err != nil {
		return domain.Package{}, err
	}
	if err := requireVerified(profile); err != nil {
		return domain.Package{}, err
	}

	return s.changePackageStatus(ctx, profile.ID, packageID, "resume", domain.PackagePublished,
		func(p domain.Package) bool { return p.Status == domain.PackagePaused },
		func(*domain.Package) {},
	)
}

// ArchivePackage retires a package permanently.
func (s *ProviderService) ArchivePackage(ctx context.Context, principal domain.Principal, providerID, packageID string) (domain.Package, error) {
	profile, err := s.resolveOwned(ctx, principal, providerID)
	if err != nil {
		return domain.Package{}, err
	}
	if err := requireVerified(profile); err != nil {
		return domain.Package{}, err
	}

	return s.changePackageStatus(ctx, profile.ID, packageID, "archive", domain.PackageArchived,
		func(p domain.Package) bool { return p.Status != domain.PackageArchived },
		func(*domain.Package) {},
	)
}

// changePackageStatus fetches the package, checks ownership and the allowed
// source states, and applies the same conditional-write discipline as profile
// transitions. A package belonging to another provider reads as not found.
func (s *ProviderService) changePackageStatus(ctx context.Context, providerID, packageID, action string, target domain.PackageStatus, allowed func(domain.Package) bool, mutate func(*domain.Package)) (domain.Package, error) {
	pkg, err := s.packages.GetByID(ctx, packageID)
	if err != nil {
		return domain.Package{}, err
	}
	if pkg.ProviderID != providerID {
		return domain.Package{}, domain.ErrPackageNotFound
	}
	if !allowed(pkg) {
		return domain.Package{}, &domain.PackageStateError{Action: action, Current: pkg.Status}
	}

	expected := pkg.Status
	pkg.Status = target
	mutate(&pkg)
	pkg.UpdatedAt = time.Now().UTC()

	if err := s.packages.UpdateStatusFrom(ctx, pkg, expected); err != nil {
		if errors.Is(err, domain.ErrStaleStatus) {
			current := expected
			if fresh, gerr := s.packages.GetByID(ctx, pkg.ID); gerr == nil {
				current = fresh.Status
			}
			return domain.Package{}, &domain.PackageStateError{Action: action, Current: current}
		}
		return domain.Package{}, fmt.Errorf("updating package status: %w", err)
	}

	return pkg, nil
}
