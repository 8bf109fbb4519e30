package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tripfolio/providerhub/internal/domain"
)

// Stable machine-readable error codes. Clients branch on these, never on the
// human message.
const (
	codeUnauthorized      = "UNAUTHORIZED"
	codeForbidden         = "FORBIDDEN"
	codeNotFound          = "NOT_FOUND"
	codeInvalidTransition = "INVALID_TRANSITION"
	codeValidation        = "VALIDATION_ERROR"
	codeConflict          = "CONFLICT"
	codePackageState      = "INVALID_PACKAGE_STATE"
)

// APIError is the error body for every non-2xx response:
// {statusCode, message, requestId, code?}. The correlation id is in the body,
// not header-only, because clients and support tooling read it from there
// first.
type APIError struct {
	StatusCode int    `json:"statusCode" doc:"HTTP status code"`
	Message    string `json:"message" doc:"Human-readable message"`
	RequestID  string `json:"requestId,omitempty" doc:"Correlation id for support tickets"`
	Code       string `json:"code,omitempty" doc:"Stable machine-readable code"`
}

func (e *APIError) Error() string { return e.Message }

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int { return e.StatusCode }

// ContentType implements huma.ContentTypeFilter so errors serialize as plain
// application/json rather than problem+json.
func (e *APIError) ContentType(string) string { return "application/json" }

// installErrorModel rewires huma's error constructors so framework-generated
// errors (validation failures, panics recovered by huma) also carry the
// correlation id and the stable body shape.
func installErrorModel() {
	huma.NewError = func(status int, msg string, _ ...error) huma.StatusError {
		return &APIError{StatusCode: status, Message: msg}
	}
	huma.NewErrorWithContext = func(ctx huma.Context, status int, msg string, _ ...error) huma.StatusError {
		return &APIError{
			StatusCode: status,
			Message:    msg,
			RequestID:  RequestIDFromContext(ctx.Context()),
		}
	}
}

// toAPIError translates domain errors into the API error body. Anything not
// in the expected taxonomy becomes an opaque 500: no storage detail ever
// reaches the response.
func toAPIError(ctx context.Context, err error) *APIError {
	requestID := RequestIDFromContext(ctx)

	apiErr := func(status int, code, msg string) *APIError {
		return &APIError{StatusCode: status, Message: msg, RequestID: requestID, Code: code}
	}

	switch {
	case errors.Is(err, domain.ErrProfileNotFound):
		return apiErr(http.StatusNotFound, codeNotFound, "provider profile not found")
	case errors.Is(err, domain.ErrPackageNotFound):
		return apiErr(http.StatusNotFound, codeNotFound, "package not found")
	}

	var forbidden *domain.ForbiddenError
	if errors.As(err, &forbidden) {
		return apiErr(http.StatusForbidden, codeForbidden, forbidden.Reason)
	}

	var transition *domain.TransitionError
	if errors.As(err, &transition) {
		return apiErr(http.StatusConflict, codeInvalidTransition, transition.Error())
	}

	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		return apiErr(http.StatusBadRequest, codeValidation, validation.Error())
	}

	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		return apiErr(http.StatusConflict, codeConflict, conflict.Error())
	}

	var pkgState *domain.PackageStateError
	if errors.As(err, &pkgState) {
		return apiErr(http.StatusBadRequest, codePackageState, pkgState.Error())
	}

	return apiErr(http.StatusInternalServerError, "", "internal server error")
}
