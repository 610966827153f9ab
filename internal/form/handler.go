package form

import (
	"context"
	"errors"
	"net/http"

	"github.com/sheikharifulislam/OpnForm/internal"
	"github.com/sheikharifulislam/OpnForm/internal/user"

	handlerutil "github.com/NYCU-SDC/summer/pkg/handler"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/NYCU-SDC/summer/pkg/problem"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Request struct {
	Title                    string           `json:"title" validate:"required"`
	Slug                     string           `json:"slug"`
	Properties               []map[string]any `json:"properties"`
	Visibility               string           `json:"visibility" validate:"omitempty,oneof=public draft closed"`
	EditableSubmissions      bool             `json:"editable_submissions"`
	EnablePartialSubmissions bool             `json:"enable_partial_submissions"`
}

type Response struct {
	Form
	ShareURL string `json:"share_url"`
}

type Store interface {
	Create(ctx context.Context, arg CreateParams) (Form, error)
	Update(ctx context.Context, arg UpdateParams, workspaceID uuid.UUID) (Form, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (Form, error)
	GetPublic(ctx context.Context, slug string) (Form, error)
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]Form, error)
	ShareURL(f Form) string
}

type Handler struct {
	logger *zap.Logger
	tracer trace.Tracer

	validator     *validator.Validate
	problemWriter *problem.HttpWriter

	store Store
}

func NewHandler(
	logger *zap.Logger,
	validator *validator.Validate,
	problemWriter *problem.HttpWriter,
	store Store,
) *Handler {
	return &Handler{
		logger:        logger,
		tracer:        otel.Tracer("form/handler"),
		validator:     validator,
		problemWriter: problemWriter,
		store:         store,
	}
}

func (h *Handler) CreateFormHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "CreateFormHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	var req Request
	if err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	workspaceID, err := internal.GetWorkspaceIDFromContext(traceCtx)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	currentUser, ok := user.GetFromContext(traceCtx)
	if !ok {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrNoUserInContext, logger)
		return
	}

	created, err := h.store.Create(traceCtx, CreateParams{
		WorkspaceID:              workspaceID,
		CreatorID:                currentUser.ID,
		Title:                    req.Title,
		Slug:                     req.Slug,
		Properties:               req.Properties,
		Visibility:               Visibility(req.Visibility),
		EditableSubmissions:      req.EditableSubmissions,
		EnablePartialSubmissions: req.EnablePartialSubmissions,
	})
	if err != nil {
		h.writeError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusCreated, Response{Form: created, ShareURL: h.store.ShareURL(created)})
}

func (h *Handler) UpdateFormHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "UpdateFormHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	formID, err := handlerutil.ParseUUID(r.PathValue("id"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	var req Request
	if err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	workspaceID, err := internal.GetWorkspaceIDFromContext(traceCtx)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	updated, err := h.store.Update(traceCtx, UpdateParams{
		ID:                       formID,
		Title:                    req.Title,
		Slug:                     req.Slug,
		Properties:               req.Properties,
		Visibility:               Visibility(req.Visibility),
		EditableSubmissions:      req.EditableSubmissions,
		EnablePartialSubmissions: req.EnablePartialSubmissions,
	}, workspaceID)
	if err != nil {
		h.writeError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, Response{Form: updated, ShareURL: h.store.ShareURL(updated)})
}

func (h *Handler) DeleteFormHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "DeleteFormHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	formID, err := handlerutil.ParseUUID(r.PathValue("id"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	if err := h.store.Delete(traceCtx, formID); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}
	handlerutil.WriteJSONResponse(w, http.StatusNoContent, nil)
}

func (h *Handler) GetFormHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "GetFormHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	formID, err := handlerutil.ParseUUID(r.PathValue("id"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	currentForm, err := h.store.GetByID(traceCtx, formID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}
	handlerutil.WriteJSONResponse(w, http.StatusOK, Response{Form: currentForm, ShareURL: h.store.ShareURL(currentForm)})
}

func (h *Handler) ListFormsHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "ListFormsHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	workspaceID, err := internal.GetWorkspaceIDFromContext(traceCtx)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	forms, err := h.store.ListByWorkspace(traceCtx, workspaceID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}
	handlerutil.WriteJSONResponse(w, http.StatusOK, forms)
}

// GetPublicFormHandler serves a form to anonymous respondents by share slug.
func (h *Handler) GetPublicFormHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "GetPublicFormHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	currentForm, err := h.store.GetPublic(traceCtx, r.PathValue("slug"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}
	handlerutil.WriteJSONResponse(w, http.StatusOK, Response{Form: currentForm, ShareURL: h.store.ShareURL(currentForm)})
}

// writeError routes property validation failures to a Laravel style 422 body
// with the full error map, everything else to the problem writer.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, logger *zap.Logger) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		handlerutil.WriteJSONResponse(w, http.StatusUnprocessableEntity, map[string]any{
			"message": validationErr.Error(),
			"errors":  validationErr.Errors,
		})
		return
	}
	h.problemWriter.WriteError(ctx, w, err, logger)
}
