package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tripfolio/providerhub/internal/app"
	"github.com/tripfolio/providerhub/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05.000Z"

// ProfileResponse is the API representation of a provider profile.
type ProfileResponse struct {
	ID                 string  `json:"id" doc:"Unique identifier"`
	ProviderType       string  `json:"providerType" doc:"HOTEL_MANAGER or TOUR_OPERATOR"`
	VerificationStatus string  `json:"verificationStatus" doc:"Trust state gating publishing"`
	RejectionReason    *string `json:"rejectionReason" doc:"Reviewer-supplied reason, only while REJECTED"`
	SubmittedAt        *string `json:"submittedAt" doc:"Last submission timestamp (ISO 8601)"`
	ReviewedAt         *string `json:"reviewedAt" doc:"Last decision timestamp (ISO 8601)"`
	ReviewedBy         *string `json:"reviewedBy" doc:"Reviewer principal id"`
	CreatedAt          string  `json:"createdAt" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt          string  `json:"updatedAt" doc:"Last update timestamp (ISO 8601)"`
}

// OnboardingResponse is the owner-facing onboarding status view.
type OnboardingResponse struct {
	Provider       ProfileResponse            `json:"provider"`
	CurrentStep    int                        `json:"currentStep"`
	CompletedSteps []int                      `json:"completedSteps"`
	TotalSteps     int                        `json:"totalSteps"`
	Progress       int                        `json:"progress" doc:"Completion percentage"`
	CanSubmit      bool                       `json:"canSubmit"`
	StepData       map[string]json.RawMessage `json:"stepData,omitempty" doc:"Opaque per-step payloads"`
	SubmittedAt    *string                    `json:"submittedAt"`
	ApprovedAt     *string                    `json:"approvedAt"`
	RejectedAt     *string                    `json:"rejectedAt"`
}

// PackageResponse is the API representation of a sellable package.
type PackageResponse struct {
	ID          string  `json:"id"`
	ProviderID  string  `json:"providerId"`
	Name        string  `json:"name"`
	Status      string  `json:"status" doc:"DRAFT, PUBLISHED, PAUSED or ARCHIVED"`
	PublishedAt *string `json:"publishedAt"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

func fmtTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(timeFormat)
	return &s
}

func toProfileResponse(p domain.ProviderProfile) ProfileResponse {
	return ProfileResponse{
		ID:                 p.ID,
		ProviderType:       string(p.ProviderType),
		VerificationStatus: string(p.Status),
		RejectionReason:    p.RejectionReason,
		SubmittedAt:        fmtTime(p.SubmittedAt),
		ReviewedAt:         fmtTime(p.ReviewedAt),
		ReviewedBy:         p.ReviewedBy,
		CreatedAt:          p.CreatedAt.Format(timeFormat),
		UpdatedAt:          p.UpdatedAt.Format(timeFormat),
	}
}

func toOnboardingResponse(s app.OnboardingStatus, includeStepData bool) OnboardingResponse {
	resp := OnboardingResponse{
		Provider:       toProfileResponse(s.Profile),
		CurrentStep:    s.Progress.CurrentStep,
		CompletedSteps: s.Progress.CompletedSteps,
		TotalSteps:     s.TotalSteps,
		Progress:       s.Percent,
		CanSubmit:      s.CanSubmit,
		SubmittedAt:    fmtTime(s.Progress.SubmittedAt),
		ApprovedAt:     fmtTime(s.Progress.ApprovedAt),
		RejectedAt:     fmtTime(s.Progress.RejectedAt),
	}
	if includeStepData {
		resp.StepData = s.Progress.StepData
	}
	return resp
}

func toPackageResponse(p domain.Package) PackageResponse {
	return PackageResponse{
		ID:          p.ID,
		ProviderID:  p.ProviderID,
		Name:        p.Name,
		Status:      string(p.Status),
		PublishedAt: fmtTime(p.PublishedAt),
		CreatedAt:   p.CreatedAt.Format(timeFormat),
		UpdatedAt:   p.UpdatedAt.Format(timeFormat),
	}
}

// principalFrom pulls the authenticated principal placed by RequireAuth.
func principalFrom(ctx context.Context) (domain.Principal, *APIError) {
	principal, ok := PrincipalFromContext(ctx)
	if !ok {
		return domain.Principal{}, &APIError{
			StatusCode: http.StatusUnauthorized,
			Message:    "authentication required",
			RequestID:  RequestIDFromContext(ctx),
			Code:       codeUnauthorized,
		}
	}
	return principal, nil
}

// --- Start onboarding ---

type StartInput struct {
	Body struct {
		ProviderType string `json:"providerType" doc:"HOTEL_MANAGER or TOUR_OPERATOR"`
	}
}

type StartOutput struct {
	Status int
	Body   OnboardingResponse
}

// --- List own providers ---

type ListOwnOutput struct {
	Body struct {
		Providers []OnboardingResponse `json:"providers"`
		Count     int                  `json:"count"`
	}
}

// --- Get onboarding ---

type GetOnboardingInput struct {
	ProviderID string `path:"providerId" doc:"Provider profile ID"`
}

type GetOnboardingOutput struct {
	Body OnboardingResponse
}

// --- Save step ---

type SaveStepInput struct {
	ProviderID string `path:"providerId" doc:"Provider profile ID"`
	Body       struct {
		StepID  int             `json:"stepId" doc:"Onboarding step number, starting at 1"`
		Payload json.RawMessage `json:"payload" doc:"Opaque step data"`
	}
}

type SaveStepOutput struct {
	Body OnboardingResponse
}

// --- Submit ---

type SubmitInput struct {
	ProviderID string `path:"providerId" doc:"Provider profile ID"`
}

type SubmitOutput struct {
	Body OnboardingResponse
}

// --- Review queue ---

type ReviewQueueInput struct {
	Status string `query:"status" required:"false" doc:"Filter: SUBMITTED or UNDER_REVIEW (default both)"`
	Type   string `query:"type" required:"false" doc:"Filter: HOTEL_MANAGER or TOUR_OPERATOR"`
}

type ReviewQueueOutput struct {
	Body struct {
		Providers []ProfileResponse `json:"providers"`
		Count     int               `json:"count"`
	}
}

// --- Decisions ---

type ApproveInput struct {
	ID string `path:"id" doc:"Provider profile ID"`
}

type RejectInput struct {
	ID   string `path:"id" doc:"Provider profile ID"`
	Body struct {
		Reason string `json:"reason" doc:"Mandatory reason shown to the provider"`
	}
}

type SuspendInput struct {
	ID string `path:"id" doc:"Provider profile ID"`
}

type DecisionOutput struct {
	Body ProfileResponse
}

// --- Packages ---

type CreatePackageInput struct {
	Body struct {
		ProviderID string `json:"providerId" doc:"Owning provider profile ID"`
		Name       string `json:"name" doc:"Display name"`
	}
}

type CreatePackageOutput struct {
	Status int
	Body   PackageResponse
}

type ListPackagesInput struct {
	ProviderID string `path:"providerId" doc:"Provider profile ID"`
}

type ListPackagesOutput struct {
	Body struct {
		Packages []PackageResponse `json:"packages"`
		Count    int               `json:"count"`
	}
}

type PackageActionInput struct {
	ProviderID string `path:"providerId" doc:"Provider profile ID"`
	PackageID  string `path:"packageId" doc:"Package ID"`
}

type PackageActionOutput struct {
	Body PackageResponse
}

// Register adds all provider API routes to the Huma API and installs the
// correlated error model.
func Register(api huma.API, svc *app.ProviderService) {
	installErrorModel()

	huma.Register(api, huma.Operation{
		OperationID: "start-onboarding",
		Method:      http.MethodPost,
		Path:        "/api/v1/providers/start",
		Summary:     "Start (or resume) provider onboarding",
		Tags:        []string{"Onboarding"},
	}, func(ctx context.Context, input *StartInput) (*StartOutput, error) {
		principal, aerr := principalFrom(ctx)
		if aerr != nil {
			return nil, aerr
		}
		if !domain.ValidProviderType(input.Body.ProviderType) {
			return nil, toAPIError(ctx, &domain.ValidationError{
				Field:  "providerType",
				Reason: "must be HOTEL_MANAGER or TOUR_OPERATOR",
			})
		}

		profile, progress, created, err := svc.Start(ctx, principal, domain.ProviderType(input.Body.ProviderType))
		if err != nil {
			return nil, toAPIError(ctx, err)
		}

		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		return &StartOutput{
			Status: status,
			Body: toOnboardingResponse(app.OnboardingStatus{
				Profile:    profile,
				Progress:   progress,
				TotalSteps: profile.ProviderType.RequiredSteps(),
			}, false),
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-own-providers",
		Method:      http.MethodGet,
		Path:        "/api/v1/providers",
		Summary:     "List the caller's provider profiles",
		Tags:        []string{"Onboarding"},
	}, func(ctx context.Context, _ *struct{}) (*ListOwnOutput, error) {
		principal, aerr := principalFrom(ctx)
		if aerr != nil {
			return nil, aerr
		}

		statuses, err := svc.ListOwn(ctx, principal)
		if err != nil {
			return nil, toAPIError(ctx, err)
		}

		out := &ListOwnOutput{}
		out.Body.Providers = make([]OnboardingResponse, len(statuses))
		for i, s := range statuses {
			out.Body.Providers[i] = toOnboardingResponse(s, false)
		}
		out.Body.Count = len(statuses)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-onboarding",
		Method:      http.MethodGet,
		Path:        "/api/v1/providers/{providerId}/onboarding",
		Summary:     "Get onboarding status",
		Tags:        []string{"Onboarding"},
	}, func(ctx context.Context, input *GetOnboardingInput) (*GetOnboardingOutput, error) {
		principal, aerr := principalFrom(ctx)
		if aerr != nil {
			return nil, aerr
		}

		status, err := svc.GetOnboarding(ctx, principal, input.ProviderID)
		if err != nil {
			return nil, toAPIError(ctx, err)
		}
		return &GetOnboardingOutput{Body: toOnboardingResponse(status, true)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "save-onboarding-step",
		Method:      http.MethodPatch,
		Path:        "/api/v1/providers/{providerId}/onboarding",
		Summary:     "Save data for one onboarding step",
		Tags:        []string{"Onboarding"},
	}, func(ctx context.Context, input *SaveStepInput) (*SaveStepOutput, error) {
		principal, aerr := principalFrom(ctx)
		if aerr != nil {
			return nil, aerr
		}

		status, err := svc.SaveStep(ctx, principal, input.ProviderID, input.Body.StepID, input.Body.Payload)
		if err != nil {
			return nil, toAPIError(ctx, err)
		}
		return &SaveStepOutput{Body: toOnboardingResponse(status, true)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "submit-onboarding",
		Method:      http.MethodPost,
		Path:        "/api/v1/providers/{providerId}/onboarding/submit",
		Summary:     "Submit onboarding for review",
		Tags:        []string{"Onboarding"},
	}, func(ctx context.Context, input *SubmitInput) (*SubmitOutput, error) {
		principal, aerr := principalFrom(ctx)
		if aerr != nil {
			return nil, aerr
		}

		status, err := svc.Submit(ctx, principal, input.ProviderID)
		if err != nil {
			return nil, toAPIError(ctx, err)
		}
		return &SubmitOutput{Body: toOnboardingResponse(status, false)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "review-queue",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/providers/review-queue",
		Summary:     "List profiles awaiting a decision, oldest first",
		Tags:        []string{"Review"},
	}, func(ctx context.Context, input *ReviewQueueInput) (*ReviewQueueOutput, error) {
		principal, aerr := principalFrom(ctx)
		if aerr != nil {
			return nil, aerr
		}

		filter := app.ReviewQueueFilter{}
		if input.Status != "" {
			if !domain.ValidStatus(input.Status) {
				return nil, toAPIError(ctx, &domain.ValidationError{
					Field:  "status",
					Reason: "unknown verification status",
				})
			}
			filter.Statuses = []domain.Status{domain.Status(input.Status)}
		}
		if input.Type != "" {
			if !domain.ValidProviderType(input.Type) {
				return nil, toAPIError(ctx, &domain.ValidationError{
					Field:  "type",
					Reason: "must be HOTEL_MANAGER or TOUR_OPERATOR",
				})
			}
			pt := domain.ProviderType(input.Type)
			filter.ProviderType = &pt
		}

		profiles, err := svc.ListPending(ctx, principal, filter)
		if err != nil {
			return nil, toAPIError(ctx, err)
		}

		out := &ReviewQueueOutput{}
		out.Body.Providers = make([]ProfileResponse, len(profiles))
		for i, p := range profiles {
			out.Body.Providers[i] = toProfileResponse(p)
		}
		out.Body.Count = len(profiles)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "approve-provider",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/providers/{id}/approve",
		Summary:     "Approve a provider",
		Tags:        []string{"Review"},
	}, func(ctx context.Context, input *ApproveInput) (*DecisionOutput, error) {
		principal, aerr := principalFrom(ctx)
		if aerr != nil {
			return nil, aerr
		}

		profile, err := svc.Decide(ctx, principal, input.ID, app.DecisionApprove, "")
		if err != nil {
			return nil, toAPIError(ctx, err)
		}
		return &DecisionOutput{Body: toProfileResponse(profile)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reject-provider",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/providers/{id}/reject",
		Summary:     "Reject a provider with a reason",
		Tags:        []string{"Review"},
	}, func(ctx context.Context, input *RejectInput) (*DecisionOutput, error) {
		principal, aerr := principalFrom(ctx)
		if aerr != nil {
			return nil, aerr
		}

		profile, err := svc.Decide(ctx, principal, input.ID, app.DecisionReject, input.Body.Reason)
		if err != nil {
			return nil, toAPIError(ctx, err)
		}
		return &DecisionOutput{Body: toProfileResponse(profile)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "suspend-provider",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/providers/{id}/suspend",
		Summary:     "Suspend a previously approved provider",
		Tags:        []string{"Review"},
	}, func(ctx context.Context, input *SuspendInput) (*DecisionOutput, error) {
		principal, aerr := principalFrom(ctx)
		if aerr != nil {
			return nil, aerr
		}

		profile, err := svc.Suspend(ctx, principal, input.ID)
		if err != nil {
			return nil, toAPIError(ctx, err)
		}
		return &DecisionOutput{Body: toProfileResponse(profile)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-package",
		Method:      http.MethodPost,
		Path:        "/api/v1/packages",
		Summary:     "Create a draft package",
		Tags:        []string{"Packages"},
	}, func(ctx context.Context, input *CreatePackageInput) (*CreatePackageOutput, error) {
		principal, aerr := principalFrom(ctx)
		if aerr != nil {
			return nil, aerr
		}

		pkg, err := svc.CreatePackage(ctx, principal, input.Body.ProviderID, input.Body.Name)
		if err != nil {
			return nil, toAPIError(ctx, err)
		}
		return &CreatePackageOutput{Status: http.StatusCreated, Body: toPackageResponse(pkg)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-packages",
		Method:      http.MethodGet,
		Path:        "/api/v1/packages/{providerId}",
		Summary:     "List a provider's packages",
		Tags:        []string{"Packages"},
	}, func(ctx context.Context, input *ListPackagesInput) (*ListPackagesOutput, error) {
		principal, aerr := principalFrom(ctx)
		if aerr != nil {
			return nil, aerr
		}

		packages, err := svc.ListPackages(ctx, principal, input.ProviderID)
		if err != nil {
			return nil, toAPIError(ctx, err)
		}

		out := &ListPackagesOutput{}
		out.Body.Packages = make([]PackageResponse, len(packages))
		for i, p := range packages {
			out.Body.Packages[i] = toPackageResponse(p)
		}
		out.Body.Count = len(packages)
		return out, nil
	})

	packageAction := func(operationID, action string, call func(context.Context, domain.Principal, string, string) (domain.Package, error)) {
		huma.Register(api, huma.Operation{
			OperationID: operationID,
			Method:      http.MethodPost,
			Path:        "/api/v1/packages/{providerId}/{packageId}/" + action,
			Summary:     "Requires a verified provider",
			Tags:        []string{"Packages"},
		}, func(ctx context.Context, input *PackageActionInput) (*PackageActionOutput, error) {
			principal, aerr := principalFrom(ctx)
			if aerr != nil {
				return nil, aerr
			}

			pkg, err := call(ctx, principal, input.ProviderID, input.PackageID)
			if err != nil {
				return nil, toAPIError(ctx, err)
			}
			return &PackageActionOutput{Body: toPackageResponse(pkg)}, nil
		})
	}

	packageAction("publish-package", "publish", svc.PublishPackage)
	packageAction("pause-package", "pause", svc.PausePackage)
	packageAction("resume-package", "resume", svc.ResumePackage)
	packageAction("archive-package", "archive", svc.ArchivePackage)
}
