package provider

import (
	"context"
	"net/http"

	"github.com/sheikharifulislam/OpnForm/internal"
	"github.com/sheikharifulislam/OpnForm/internal/user"

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

type ConnectRequest struct {
	Type           string   `json:"type" validate:"required,oneof=stripe"`
	ProviderUserID string   `json:"provider_user_id" validate:"required"`
	AccessToken    string   `json:"access_token"`
	RefreshToken   string   `json:"refresh_token"`
	Scopes         []string `json:"scopes"`
}

// Response never carries the stored tokens.
type Response struct {
	ID             uuid.UUID `json:"id"`
	Type           string    `json:"type"`
	ProviderUserID string    `json:"provider_user_id"`
	Scopes         []string  `json:"scopes"`
}

type Store interface {
	Connect(ctx context.Context, arg CreateParams) (Provider, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]Provider, error)
	Disconnect(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
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
		tracer:        otel.Tracer("provider/handler"),
		validator:     validator,
		problemWriter: problemWriter,
		store:         store,
	}
}

func (h *Handler) ConnectProviderHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "ConnectProviderHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	var req ConnectRequest
	if err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	currentUser, ok := user.GetFromContext(traceCtx)
	if !ok {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrNoUserInContext, logger)
		return
	}

	created, err := h.store.Connect(traceCtx, CreateParams{
		UserID:         currentUser.ID,
		Type:           req.Type,
		ProviderUserID: req.ProviderUserID,
		AccessToken:    pgtype.Text{String: req.AccessToken, Valid: req.AccessToken != ""},
		RefreshToken:   pgtype.Text{String: req.RefreshToken, Valid: req.RefreshToken != ""},
		Scopes:         req.Scopes,
	})
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) ListProvidersHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "ListProvidersHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	currentUser, ok := user.GetFromContext(traceCtx)
	if !ok {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrNoUserInContext, logger)
		return
	}

	providers, err := h.store.ListForUser(traceCtx, currentUser.ID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	response := make([]Response, 0, len(providers))
	for _, p := range providers {
		response = append(response, toResponse(p))
	}
	handlerutil.WriteJSONResponse(w, http.StatusOK, response)
}

func (h *Handler) DisconnectProviderHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "DisconnectProviderHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	providerID, err := handlerutil.ParseUUID(r.PathValue("id"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	currentUser, ok := user.GetFromContext(traceCtx)
	if !ok {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrNoUserInContext, logger)
		return
	}

	if err := h.store.Disconnect(traceCtx, providerID, currentUser.ID); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}
	handlerutil.WriteJSONResponse(w, http.StatusNoContent, nil)
}

func toResponse(p Provider) Response {
	return Response{
		ID:             p.ID,
		Type:           p.Type,
		ProviderUserID: p.ProviderUserID,
		Scopes:         p.Scopes,
	}
}
