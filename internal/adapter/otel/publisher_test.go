package otel_test

import (
	"context"
	"fmt"
	"testing"

	"go.opentelemetry.io/otel/codes"

	adapter "github.com/tripfolio/providerhub/internal/adapter/otel"
	"github.com/tripfolio/providerhub/internal/domain"
)

// --- Mock publisher ---

type mockPublisher struct {
	events []publishedEvent
}

type publishedEvent struct {
	event   domain.Event
	profile domain.ProviderProfile
}

func (m *mockPublisher) Publish(_ context.Context, e domain.Event, p domain.ProviderProfile) error {
	m.events = append(m.events, publishedEvent{event: e, profile: p})
	return nil
}

type failingPublisher struct{}

func (p *failingPublisher) Publish(_ context.Context, _ domain.Event, _ domain.ProviderProfile) error {
	return fmt.Errorf("publish failed")
}

// --- Tests ---

func TestTracingPublisher_Publish_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := &mockPublisher{}
	pub := adapter.NewTracingPublisher(inner)

	profile := domain.NewProviderProfile("p-1", "user-1", domain.TypeHotelManager)
	profile.Status = domain.StatusUnderReview
	if err := pub.Publish(context.Background(), domain.EventSubmit, profile); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "EventPublisher.Publish" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "EventPublisher.Publish")
	}

	assertAttribute(t, spans[0], "event.type", "submit")
	assertAttribute(t, spans[0], "provider.id", "p-1")
	assertAttribute(t, spans[0], "provider.status", "UNDER_REVIEW")

	if len(inner.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(inner.events))
	}
}

func TestTracingPublisher_Publish_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)
	pub := adapter.NewTracingPublisher(&failingPublisher{})

	profile := domain.NewProviderProfile("p-1", "user-1", domain.TypeHotelManager)
	err := pub.Publish(context.Background(), domain.EventApprove, profile)
	if err == nil {
		t.Fatal("expected error")
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}

	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want %v", spans[0].Status.Code, codes.Error)
	}
}
