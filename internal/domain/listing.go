package domain

import "time"

// PackageStatus represents the publishing state of a sellable package.
type PackageStatus string

const (
	PackageDraft     PackageStatus = "DRAFT"
	PackagePublished PackageStatus = "PUBLISHED"
	PackagePaused    PackageStatus = "PAUSED"
	PackageArchived  PackageStatus = "ARCHIVED"
)

// EventPackagePublished is the audit event emitted when a gated publish
// succeeds. It is not part of the verification transition table.
const EventPackagePublished Event = "package_published"

// Package is a sellable listing (a stay or a tour) owned by a provider.
// Every status-changing action on it is gated on the owning profile's
// verification status.
type Package struct {
	ID          string
	ProviderID  string
	Name        string
	Status      PackageStatus
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewPackage creates a package in the DRAFT state. Drafting does not require
// a verified provider; publishing does.
func NewPackage(id, providerID, name string) Package {
	now := time.Now().UTC()
	return Package{
		ID:         id,
		ProviderID: providerID,
		Name:       name,
		Status:     PackageDraft,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
