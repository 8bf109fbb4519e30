package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tripfolio/providerhub/internal/domain"
)

// ProgressRepository implements domain.ProgressRepository using SQLite.
// Completed steps and step data are stored as JSON columns; the tracker
// never interprets step payloads.
type ProgressRepository struct {
	db *sql.DB
}

// Compile-time check: ProgressRepository implements domain.ProgressRepository.
var _ domain.ProgressRepository = (*ProgressRepository)(nil)

func (r *ProgressRepository) Create(ctx context.Context, p domain.OnboardingProgress) error {
	steps, data, err := marshalProgress(p)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO onboarding_progress
		 (provider_id, current_step, completed_steps, step_data, submitted_at, approved_at, rejected_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ProviderID, p.CurrentStep, steps, data,
		formatTimePtr(p.SubmittedAt), formatTimePtr(p.ApprovedAt), formatTimePtr(p.RejectedAt),
		formatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting onboarding progress: %w", err)
	}
	return nil
}

func (r *ProgressRepository) GetByProviderID(ctx context.Context, providerID string) (domain.OnboardingProgress, error) {
	var p domain.OnboardingProgress
	var steps, data, updatedAt string
	var submittedAt, approvedAt, rejectedAt sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT provider_id, current_step, completed_steps, step_data,
		        submitted_at, approved_at, rejected_at, updated_at
		 FROM onboarding_progress WHERE provider_id = ?`, providerID,
	).Scan(&p.ProviderID, &p.CurrentStep, &steps, &data,
		&submittedAt, &approvedAt, &rejectedAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.OnboardingProgress{}, domain.ErrProfileNotFound
		}
		return domain.OnboardingProgress{}, fmt.Errorf("scanning onboarding progress: %w", err)
	}

	if err := json.Unmarshal([]byte(steps), &p.CompletedSteps); err != nil {
		return domain.OnboardingProgress{}, fmt.Errorf("decoding completed steps: %w", err)
	}
	if err := json.Unmarshal([]byte(data), &p.StepData); err != nil {
		return domain.OnboardingProgress{}, fmt.Errorf("decoding step data: %w", err)
	}
	p.SubmittedAt = parseTimePtr(submittedAt)
	p.ApprovedAt = parseTimePtr(approvedAt)
	p.RejectedAt = parseTimePtr(rejectedAt)
	p.UpdatedAt = parseTime(updatedAt)

	return p, nil
}

func (r *ProgressRepository) Update(ctx context.Context, p domain.OnboardingProgress) error {
	steps, data, err := marshalProgress(p)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE onboarding_progress
		 SET current_step = ?, completed_steps = ?, step_data = ?,
		     submitted_at = ?, approved_at = ?, rejected_at = ?, updated_at = ?
		 WHERE provider_id = ?`,
		p.CurrentStep, steps, data,
		formatTimePtr(p.SubmittedAt), formatTimePtr(p.ApprovedAt), formatTimePtr(p.RejectedAt),
		formatTime(p.UpdatedAt),
		p.ProviderID,
	)
	if err != nil {
		return fmt.Errorf("updating onboarding progress: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

func marshalProgress(p domain.OnboardingProgress) (steps, data string, err error) {
	completed := p.CompletedSteps
	if completed == nil {
		completed = []int{}
	}
	stepsBytes, err := json.Marshal(completed)
	if err != nil {
		return "", "", fmt.Errorf("encoding completed steps: %w", err)
	}

	stepData := p.StepData
	if stepData == nil {
		stepData = map[string]json.RawMessage{}
	}
	dataBytes, err := json.Marshal(stepData)
	if err != nil {
		return "", "", fmt.Errorf("encoding step data: %w", err)
	}

	return string(stepsBytes), string(dataBytes), nil
}
