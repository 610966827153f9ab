package ai

import (
	"context"
	"net/http"

	handlerutil "github.com/NYCU-SDC/summer/pkg/handler"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/NYCU-SDC/summer/pkg/problem"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type GenerateRequest struct {
	Description string `json:"description" validate:"required,max=4000"`
}

type Drafter interface {
	GenerateDraft(ctx context.Context, description string) (Draft, error)
}

type Handler struct {
	logger        *zap.Logger
	validator     *validator.Validate
	problemWriter *problem.HttpWriter
	drafter       Drafter
	tracer        trace.Tracer
}

func NewHandler(logger *zap.Logger, validator *validator.Validate, problemWriter *problem.HttpWriter, drafter Drafter) *Handler {
	return &Handler{
		logger:        logger,
		validator:     validator,
		problemWriter: problemWriter,
		drafter:       drafter,
		tracer:        otel.Tracer("ai/handler"),
	}
}

// GenerateFormHandler proposes a form draft from a natural language
// description. The draft is not persisted; the caller creates the form with
// the returned properties.
func (h *Handler) GenerateFormHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "GenerateFormHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	var request GenerateRequest
	err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &request)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	draft, err := h.drafter.GenerateDraft(traceCtx, request.Description)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, draft)
}
