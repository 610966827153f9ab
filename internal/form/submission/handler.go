package submission

import (
	"context"
	"net"
	"net/http"

	"github.com/sheikharifulislam/OpnForm/internal"
	"github.com/sheikharifulislam/OpnForm/internal/form"
	"github.com/sheikharifulislam/OpnForm/internal/form/property"

	handlerutil "github.com/NYCU-SDC/summer/pkg/handler"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/NYCU-SDC/summer/pkg/problem"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type AnswerRequest struct {
	SubmissionID string         `json:"submission_id"`
	IsPartial    bool           `json:"is_partial"`
	Data         map[string]any `json:"data" validate:"required"`
}

type AnswerResponse struct {
	SubmissionID string `json:"submission_id"`
	IsPartial    bool   `json:"is_partial"`
	EditURL      string `json:"edit_url,omitempty"`
}

type ExportRequest struct {
	Columns map[string]bool `json:"columns" validate:"required"`
}

type Store interface {
	Create(ctx context.Context, arg CreateParams) (Submission, error)
	Update(ctx context.Context, formID uuid.UUID, rawIdentifier string, data map[string]any, isPartial bool) (Submission, error)
	Resolve(ctx context.Context, formID uuid.UUID, raw string) (Submission, error)
	Identifier(sub Submission) string
	BuildEditURL(shareURL string, sub Submission) string
	ListByFormID(ctx context.Context, formID uuid.UUID) ([]Submission, error)
	CountByFormID(ctx context.Context, formID uuid.UUID) (int64, error)
}

type FormStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (form.Form, error)
	GetPublic(ctx context.Context, slug string) (form.Form, error)
	ShareURL(f form.Form) string
}

type Handler struct {
	logger *zap.Logger
	tracer trace.Tracer

	validator     *validator.Validate
	problemWriter *problem.HttpWriter

	store Store
	forms FormStore
}

func NewHandler(
	logger *zap.Logger,
	validator *validator.Validate,
	problemWriter *problem.HttpWriter,
	store Store,
	forms FormStore,
) *Handler {
	return &Handler{
		logger:        logger,
		tracer:        otel.Tracer("submission/handler"),
		validator:     validator,
		problemWriter: problemWriter,
		store:         store,
		forms:         forms,
	}
}

// AnswerFormHandler accepts a submission to a public form. An existing
// submission identifier turns the call into an edit, which the form must allow.
func (h *Handler) AnswerFormHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "AnswerFormHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	currentForm, err := h.forms.GetPublic(traceCtx, r.PathValue("slug"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	var req AnswerRequest
	if err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	if req.IsPartial {
		if !currentForm.EnablePartialSubmissions {
			h.problemWriter.WriteError(traceCtx, w, internal.ErrPartialSubmissionDisabled, logger)
			return
		}
		if !HasAnsweredField(req.Data) {
			h.problemWriter.WriteError(traceCtx, w, internal.ErrEmptyPartialSubmission, logger)
			return
		}
	}

	var sub Submission
	if req.SubmissionID != "" {
		if !currentForm.EditableSubmissions && !currentForm.EnablePartialSubmissions {
			h.problemWriter.WriteError(traceCtx, w, internal.ErrFormNotEditable, logger)
			return
		}
		sub, err = h.store.Update(traceCtx, currentForm.ID, req.SubmissionID, req.Data, req.IsPartial)
	} else {
		sub, err = h.store.Create(traceCtx, CreateParams{
			FormID:      currentForm.ID,
			Data:        req.Data,
			IsPartial:   req.IsPartial,
			SubmitterIP: submitterIP(r),
		})
	}
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	resp := AnswerResponse{
		SubmissionID: h.store.Identifier(sub),
		IsPartial:    sub.IsPartial,
	}
	if currentForm.EditableSubmissions {
		resp.EditURL = h.store.BuildEditURL(h.forms.ShareURL(currentForm), sub)
	}

	handlerutil.WriteJSONResponse(w, http.StatusCreated, resp)
}

// GetSubmissionHandler returns a previously stored submission so an editable
// form can prefill its answers.
func (h *Handler) GetSubmissionHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "GetSubmissionHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	currentForm, err := h.forms.GetPublic(traceCtx, r.PathValue("slug"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	if !currentForm.EditableSubmissions {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrFormNotEditable, logger)
		return
	}

	sub, err := h.store.Resolve(traceCtx, currentForm.ID, r.PathValue("submissionId"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, map[string]any{
		"submission_id": h.store.Identifier(sub),
		"data":          sub.Data,
	})
}

// ListSubmissionsHandler returns a form's completed submissions with their
// outgoing identifiers, for the authenticated owner.
func (h *Handler) ListSubmissionsHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "ListSubmissionsHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	formID, err := handlerutil.ParseUUID(r.PathValue("id"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	submissions, err := h.store.ListByFormID(traceCtx, formID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	count, err := h.store.CountByFormID(traceCtx, formID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	rows := make([]map[string]any, 0, len(submissions))
	for _, sub := range submissions {
		rows = append(rows, map[string]any{
			"submission_id": h.store.Identifier(sub),
			"data":          sub.Data,
			"created_at":    sub.CreatedAt,
		})
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, map[string]any{
		"count":       count,
		"submissions": rows,
	})
}

// ExportSubmissionsHandler returns submission rows trimmed to the requested
// columns. Unknown columns reject the whole request.
func (h *Handler) ExportSubmissionsHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "ExportSubmissionsHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	formID, err := handlerutil.ParseUUID(r.PathValue("id"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	var req ExportRequest
	if err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	currentForm, err := h.forms.GetByID(traceCtx, formID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	if err := ValidateExportColumns(req.Columns, asProperties(currentForm.Properties), asProperties(currentForm.RemovedProperties)); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	submissions, err := h.store.ListByFormID(traceCtx, formID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	rows := make([]map[string]any, 0, len(submissions))
	for _, sub := range submissions {
		row := make(map[string]any)
		for column, include := range req.Columns {
			if !include {
				continue
			}
			if column == "created_at" {
				row[column] = sub.CreatedAt
				continue
			}
			row[column] = sub.Data[column]
		}
		rows = append(rows, row)
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, rows)
}

func asProperties(raw []map[string]any) []property.Property {
	out := make([]property.Property, len(raw))
	for i, m := range raw {
		out[i] = m
	}
	return out
}

func submitterIP(r *http.Request) pgtype.Text {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return pgtype.Text{String: host, Valid: host != ""}
}
