package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tripfolio/providerhub/internal/domain"
)

// ProfileRepository implements domain.ProfileRepository using SQLite.
type ProfileRepository struct {
	db *sql.DB
}

// Compile-time check: ProfileRepository implements domain.ProfileRepository.
var _ domain.ProfileRepository = (*ProfileRepository)(nil)

const profileColumns = `id, owner_user_id, provider_type, status, rejection_reason,
	 submitted_at, reviewed_at, reviewed_by, created_at, updated_at`

func (r *ProfileRepository) Create(ctx context.Context, p domain.ProviderProfile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO provider_profiles (`+profileColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OwnerUserID, string(p.ProviderType), string(p.Status),
		p.RejectionReason,
		formatTimePtr(p.SubmittedAt), formatTimePtr(p.ReviewedAt), p.ReviewedBy,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrProfileExists
		}
		return fmt.Errorf("inserting provider profile: %w", err)
	}
	return nil
}

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (domain.ProviderProfile, error) {
	return scanProfile(r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM provider_profiles WHERE id = ?`, id,
	))
}

func (r *ProfileRepository) GetByOwnerAndType(ctx context.Context, ownerUserID string, providerType domain.ProviderType) (domain.ProviderProfile, error) {
	return scanProfile(r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM provider_profiles
		 WHERE owner_user_id = ? AND provider_type = ?`,
		ownerUserID, string(providerType),
	))
}

func (r *ProfileRepository) ListByOwner(ctx context.Context, ownerUserID string) ([]domain.ProviderProfile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM provider_profiles
		 WHERE owner_user_id = ? ORDER BY created_at ASC`,
		ownerUserID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing profiles by owner: %w", err)
	}
	defer rows.Close()

	return collectProfiles(rows)
}

// ListByStatus returns profiles in any of the given statuses, oldest
// submission first so reviewers work the queue fairly. Profiles that have
// never been submitted sort last.
func (r *ProfileRepository) ListByStatus(ctx context.Context, statuses []domain.Status, providerType *domain.ProviderType) ([]domain.ProviderProfile, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?, ", len(statuses)-1) + "?"
	query := `SELECT ` + profileColumns + ` FROM provider_profiles
		 WHERE status IN (` + placeholders + `)`

	args := make([]any, 0, len(statuses)+1)
	for _, st := range statuses {
		args = append(args, string(st))
	}

	if providerType != nil {
		query += ` AND provider_type = ?`
		args = append(args, string(*providerType))
	}

	query += ` ORDER BY submitted_at IS NULL, submitted_at ASC, created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing profiles by status: %w", err)
	}
	defer rows.Close()

	return collectProfiles(rows)
}

// UpdateStatusFrom writes the profile only where the stored status still
// equals expected. This single conditional statement is what makes two
// racing decisions produce exactly one winner.
func (r *ProfileRepository) UpdateStatusFrom(ctx context.Context, p domain.ProviderProfile, expected domain.Status) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE provider_profiles
		 SET status = ?, rejection_reason = ?, submitted_at = ?, reviewed_at = ?,
		     reviewed_by = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		string(p.Status), p.RejectionReason,
		formatTimePtr(p.SubmittedAt), formatTimePtr(p.ReviewedAt), p.ReviewedBy,
		formatTime(time.Now()),
		p.ID, string(expected),
	)
	if err != nil {
		return fmt.Errorf("updating provider profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	// The predicate failed: either the row is gone or its status moved.
	var current string
	err = r.db.QueryRowContext(ctx,
		`SELECT status FROM provider_profiles WHERE id = ?`, p.ID,
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrProfileNotFound
	}
	if err != nil {
		return fmt.Errorf("checking current status: %w", err)
	}
	return domain.ErrStaleStatus
}

func scanProfile(row *sql.Row) (domain.ProviderProfile, error) {
	var p domain.ProviderProfile
	var providerType, status, createdAt, updatedAt string
	var rejectionReason, submittedAt, reviewedAt, reviewedBy sql.NullString

	err := row.Scan(&p.ID, &p.OwnerUserID, &providerType, &status, &rejectionReason,
		&submittedAt, &reviewedAt, &reviewedBy, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ProviderProfile{}, domain.ErrProfileNotFound
		}
		return domain.ProviderProfile{}, fmt.Errorf("scanning provider profile: %w", err)
	}

	fillProfile(&p, providerType, status, rejectionReason, submittedAt, reviewedAt, reviewedBy, createdAt, updatedAt)
	return p, nil
}

func collectProfiles(rows *sql.Rows) ([]domain.ProviderProfile, error) {
	var profiles []domain.ProviderProfile
	for rows.Next() {
		var p domain.ProviderProfile
		var providerType, status, createdAt, updatedAt string
		var rejectionReason, submittedAt, reviewedAt, reviewedBy sql.NullString

		err := rows.Scan(&p.ID, &p.OwnerUserID, &providerType, &status, &rejectionReason,
			&submittedAt, &reviewedAt, &reviewedBy, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning provider profile row: %w", err)
		}

		fillProfile(&p, providerType, status, rejectionReason, submittedAt, reviewedAt, reviewedBy, createdAt, updatedAt)
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func fillProfile(p *domain.ProviderProfile, providerType, status string, rejectionReason, submittedAt, reviewedAt, reviewedBy sql.NullString, createdAt, updatedAt string) {
	p.ProviderType = domain.ProviderType(providerType)
	p.Status = domain.Status(status)
	p.RejectionReason = stringPtr(rejectionReason)
	p.SubmittedAt = parseTimePtr(submittedAt)
	p.ReviewedAt = parseTimePtr(reviewedAt)
	p.ReviewedBy = stringPtr(reviewedBy)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
}
