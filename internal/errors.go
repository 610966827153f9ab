package internal

import (
	"errors"

	"github.com/NYCU-SDC/summer/pkg/problem"
)

var (
	// Auth Errors
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrUnauthorizedError   = errors.New("unauthorized error")
	ErrInternalServerError = errors.New("internal server error")
	ErrForbiddenError      = errors.New("forbidden error")
	ErrNotFound            = errors.New("not found")

	// JWT Authentication Errors
	ErrMissingAuthHeader       = errors.New("missing access token")
	ErrInvalidAuthHeaderFormat = errors.New("invalid access token")
	ErrInvalidJWTToken         = errors.New("invalid JWT token")

	// User Errors
	ErrUserNotFound            = errors.New("user not found")
	ErrNoUserInContext         = errors.New("no user found in request context")
	ErrTwoFactorNotEnabled     = errors.New("two factor authentication is not enabled for this user")
	ErrAdminTwoFactorProtected = errors.New("cannot disable two factor authentication for an admin user")

	// Workspace Errors
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrNotWorkspaceAdmin = errors.New("user is not a workspace admin")

	// Provider Errors
	ErrProviderNotFound = errors.New("provider not found")

	// Form Errors
	ErrFormNotFound              = errors.New("form not found")
	ErrFormNotPublic             = errors.New("form is not public")
	ErrFormNotEditable           = errors.New("form does not allow editing submissions")
	ErrEmptyPartialSubmission    = errors.New("at least one field must have a value for partial submissions")
	ErrPartialSubmissionDisabled = errors.New("form does not accept partial submissions")
	ErrInvalidExportColumns      = errors.New("the columns contain invalid values")

	// Submission Errors
	ErrSubmissionNotFound = errors.New("submission not found")

	// OIDC Link Errors
	ErrLinkTokenExpired      = errors.New("link request has expired")
	ErrLinkEmailMismatch     = errors.New("link request does not match this account")
	ErrIdentityAlreadyLinked = errors.New("SSO identity is already linked to another user")

	// AI Errors
	ErrAssistantOutputInvalid = errors.New("assistant returned an unusable form draft")

	// Billing Errors
	ErrNotSubscribed       = errors.New("user is not subscribed")
	ErrAlreadySubscribed   = errors.New("user already has an active subscription")
	ErrPastDueSubscription = errors.New("subscription is past due")
	ErrUnknownPlan         = errors.New("unknown subscription plan")
)

func NewProblemWriter() *problem.HttpWriter {
	return problem.NewWithMapping(ErrorHandler)
}

func ErrorHandler(err error) problem.Problem {
	switch {
	// Auth Errors
	case errors.Is(err, ErrInvalidRefreshToken):
		return problem.NewNotFoundProblem("refresh token not found")
	case errors.Is(err, ErrPermissionDenied):
		return problem.NewForbiddenProblem("permission denied")
	case errors.Is(err, ErrUnauthorizedError):
		return problem.NewUnauthorizedProblem("unauthorized error")
	case errors.Is(err, ErrInternalServerError):
		return problem.NewInternalServerProblem("internal server error")
	case errors.Is(err, ErrForbiddenError):
		return problem.NewForbiddenProblem("forbidden error")
	case errors.Is(err, ErrNotFound):
		return problem.NewNotFoundProblem("not found")

	// JWT Authentication Errors
	case errors.Is(err, ErrMissingAuthHeader):
		return problem.NewUnauthorizedProblem("missing access token")
	case errors.Is(err, ErrInvalidAuthHeaderFormat):
		return problem.NewUnauthorizedProblem("invalid access token")
	case errors.Is(err, ErrInvalidJWTToken):
		return problem.NewUnauthorizedProblem("invalid JWT token")

	// User Errors
	case errors.Is(err, ErrUserNotFound):
		return problem.NewNotFoundProblem("user not found")
	case errors.Is(err, ErrNoUserInContext):
		return problem.NewUnauthorizedProblem("no user found in request context")
	case errors.Is(err, ErrTwoFactorNotEnabled):
		return problem.NewValidateProblem("two factor authentication is not enabled for this user")
	case errors.Is(err, ErrAdminTwoFactorProtected):
		return problem.NewForbiddenProblem("cannot disable two factor authentication for an admin user")

	// Workspace Errors
	case errors.Is(err, ErrWorkspaceNotFound):
		return problem.NewNotFoundProblem("workspace not found")
	case errors.Is(err, ErrNotWorkspaceAdmin):
		return problem.NewForbiddenProblem("user is not a workspace admin")

	// Provider Errors
	case errors.Is(err, ErrProviderNotFound):
		return problem.NewNotFoundProblem("provider not found")

	// Form Errors
	case errors.Is(err, ErrFormNotFound):
		return problem.NewNotFoundProblem("form not found")
	case errors.Is(err, ErrFormNotPublic):
		return problem.NewNotFoundProblem("form not found")
	case errors.Is(err, ErrFormNotEditable):
		return problem.NewForbiddenProblem("form does not allow editing submissions")
	case errors.Is(err, ErrEmptyPartialSubmission):
		return problem.NewValidateProblem("at least one field must have a value for partial submissions")
	case errors.Is(err, ErrPartialSubmissionDisabled):
		return problem.NewForbiddenProblem("form does not accept partial submissions")
	case errors.Is(err, ErrInvalidExportColumns):
		return problem.NewValidateProblem("the columns contain invalid values")

	// Submission Errors
	case errors.Is(err, ErrSubmissionNotFound):
		return problem.NewNotFoundProblem("submission not found")

	// OIDC Link Errors
	case errors.Is(err, ErrLinkTokenExpired):
		return problem.NewNotFoundProblem("this link request has expired, please try again")
	case errors.Is(err, ErrLinkEmailMismatch):
		return problem.NewForbiddenProblem("this link request does not match your account")
	case errors.Is(err, ErrIdentityAlreadyLinked):
		return problem.NewValidateProblem("this SSO identity is already linked to another user")

	// AI Errors
	case errors.Is(err, ErrAssistantOutputInvalid):
		return problem.NewInternalServerProblem("the assistant returned an unusable form draft, please try again")

	// Billing Errors
	case errors.Is(err, ErrNotSubscribed):
		return problem.NewForbiddenProblem("please subscribe before accessing this resource")
	case errors.Is(err, ErrAlreadySubscribed):
		return problem.NewValidateProblem("user already has an active subscription")
	case errors.Is(err, ErrPastDueSubscription):
		return problem.NewValidateProblem("you already have a past due subscription, please verify your billing details")
	case errors.Is(err, ErrUnknownPlan):
		return problem.NewValidateProblem("unknown subscription plan")
	}
	return problem.Problem{}
}
