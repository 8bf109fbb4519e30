package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tripfolio/providerhub/internal/domain"
)

// PackageRepository implements domain.PackageRepository using SQLite.
type PackageRepository struct {
	db *sql.DB
}

// Compile-time check: PackageRepository implements domain.PackageRepository.
var _ domain.PackageRepository = (*PackageRepository)(nil)

const packageColumns = `id, provider_id, name, status, published_at, created_at, updated_at`

func (r *PackageRepository) Create(ctx context.Context, p domain.Package) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO packages (`+packageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.ProviderID, p.Name, string(p.Status),
		formatTimePtr(p.PublishedAt), formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting package: %w", err)
	}
	return nil
}

func (r *PackageRepository) GetByID(ctx context.Context, id string) (domain.Package, error) {
	var p domain.Package
	var status, createdAt, updatedAt string
	var publishedAt sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT `+packageColumns+` FROM packages WHERE id = ?`, id,
	).Scan(&p.ID, &p.ProviderID, &p.Name, &status, &publishedAt, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Package{}, domain.ErrPackageNotFound
		}
		return domain.Package{}, fmt.Errorf("scanning package: %w", err)
	}

	p.Status = domain.PackageStatus(status)
	p.PublishedAt = parseTimePtr(publishedAt)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return p, nil
}

func (r *PackageRepository) ListByProvider(ctx context.Context, providerID string) ([]domain.Package, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+packageColumns+` FROM packages WHERE provider_id = ? ORDER BY created_at ASC`,
		providerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing packages: %w", err)
	}
	defer rows.Close()

	var packages []domain.Package
	for rows.Next() {
		var p domain.Package
		var status, createdAt, updatedAt string
		var publishedAt sql.NullString

		if err := rows.Scan(&p.ID, &p.ProviderID, &p.Name, &status, &publishedAt, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning package row: %w", err)
		}

		p.Status = domain.PackageStatus(status)
		p.PublishedAt = parseTimePtr(publishedAt)
		p.CreatedAt = parseTime(createdAt)
		p.UpdatedAt = parseTime(updatedAt)
		packages = append(packages, p)
	}
	return packages, rows.Err()
}

// UpdateStatusFrom follows the same conditional-write discipline as the
// profile repository: the write lands only if the status has not moved.
func (r *PackageRepository) UpdateStatusFrom(ctx context.Context, p domain.Package, expected domain.PackageStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE packages SET status = ?, published_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		string(p.Status), formatTimePtr(p.PublishedAt), formatTime(time.Now()),
		p.ID, string(expected),
	)
	if err != nil {
		return fmt.Errorf("updating package: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	var current string
	err = r.db.QueryRowContext(ctx, `SELECT status FROM packages WHERE id = ?`, p.ID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrPackageNotFound
	}
	if err != nil {
		return fmt.Errorf("checking current package status: %w", err)
	}
	return domain.ErrStaleStatus
}
