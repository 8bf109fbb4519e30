package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tripfolio/providerhub/internal/domain"
)

const tracerName = "github.com/tripfolio/providerhub/internal/adapter/otel"

// TracingProfileRepository wraps a domain.ProfileRepository with OpenTelemetry
// tracing. Each method creates a span with semantic attributes and records
// errors, including lost conditional updates.
type TracingProfileRepository struct {
	next   domain.ProfileRepository
	tracer trace.Tracer
}

// Compile-time check: TracingProfileRepository implements domain.ProfileRepository.
var _ domain.ProfileRepository = (*TracingProfileRepository)(nil)

// NewTracingProfileRepository creates a tracing decorator around the given repository.
func NewTracingProfileRepository(next domain.ProfileRepository) *TracingProfileRepository {
	return &TracingProfileRepository{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (r *TracingProfileRepository) Create(ctx context.Context, profile domain.ProviderProfile) error {
	ctx, span := r.tracer.Start(ctx, "ProfileRepository.Create",
		trace.WithAttributes(
			attribute.String("provider.id", profile.ID),
			attribute.String("provider.type", string(profile.ProviderType)),
		),
	)
	defer span.End()

	err := r.next.Create(ctx, profile)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *TracingProfileRepository) GetByID(ctx context.Context, id string) (domain.ProviderProfile, error) {
	ctx, span := r.tracer.Start(ctx, "ProfileRepository.GetByID",
		trace.WithAttributes(attribute.String("provider.id", id)),
	)
	defer span.End()

	profile, err := r.next.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return profile, err
}

func (r *TracingProfileRepository) GetByOwnerAndType(ctx context.Context, ownerUserID string, providerType domain.ProviderType) (domain.ProviderProfile, error) {
	ctx, span := r.tracer.Start(ctx, "ProfileRepository.GetByOwnerAndType",
		trace.WithAttributes(
			attribute.String("provider.owner", ownerUserID),
			attribute.String("provider.type", string(providerType)),
		),
	)
	defer span.End()

	profile, err := r.next.GetByOwnerAndType(ctx, ownerUserID, providerType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return profile, err
}

func (r *TracingProfileRepository) ListByOwner(ctx context.Context, ownerUserID string) ([]domain.ProviderProfile, error) {
	ctx, span := r.tracer.Start(ctx, "ProfileRepository.ListByOwner",
		trace.WithAttributes(attribute.String("provider.owner", ownerUserID)),
	)
	defer span.End()

	profiles, err := r.next.ListByOwner(ctx, ownerUserID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("result.count", len(profiles)))
	}
	return profiles, err
}

func (r *TracingProfileRepository) ListByStatus(ctx context.Context, statuses []domain.Status, providerType *domain.ProviderType) ([]domain.ProviderProfile, error) {
	attrs := make([]string, len(statuses))
	for i, st := range statuses {
		attrs[i] = string(st)
	}

	ctx, span := r.tracer.Start(ctx, "ProfileRepository.ListByStatus",
		trace.WithAttributes(attribute.StringSlice("filter.statuses", attrs)),
	)
	defer span.End()

	if providerType != nil {
		span.SetAttributes(attribute.String("filter.type", string(*providerType)))
	}

	profiles, err := r.next.ListByStatus(ctx, statuses, providerType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("result.count", len(profiles)))
	}
	return profiles, err
}

func (r *TracingProfileRepository) UpdateStatusFrom(ctx context.Context, profile domain.ProviderProfile, expected domain.Status) error {
	ctx, span := r.tracer.Start(ctx, "ProfileRepository.UpdateStatusFrom",
		trace.WithAttributes(
			attribute.String("provider.id", profile.ID),
			attribute.String("provider.status", string(profile.Status)),
			attribute.String("provider.expected_status", string(expected)),
		),
	)
	defer span.End()

	err := r.next.UpdateStatusFrom(ctx, profile, expected)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
