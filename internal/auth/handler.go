package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sheikharifulislam/OpnForm/internal"
	"github.com/sheikharifulislam/OpnForm/internal/jwt"
	"github.com/sheikharifulislam/OpnForm/internal/oidc"
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

const (
	AccessTokenCookieName  = "access_token"
	RefreshTokenCookieName = "refresh_token"
)

type JWTIssuer interface {
	New(ctx context.Context, user user.User) (string, error)
	Parse(ctx context.Context, tokenString string) (user.User, error)
	GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (jwt.RefreshToken, error)
	GetUserIDByRefreshToken(ctx context.Context, refreshTokenID uuid.UUID) (uuid.UUID, error)
	InactivateRefreshToken(ctx context.Context, id uuid.UUID) error
}

type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	FindOrCreate(ctx context.Context, name, email, avatarURL string) (user.User, error)
}

type IdentityStore interface {
	FindIdentity(ctx context.Context, connectionID string, subject string) (oidc.Identity, error)
	BeginLink(ctx context.Context, connectionID string, claims oidc.Claims) (string, error)
	ConfirmLink(ctx context.Context, currentUser user.User, token string) (oidc.Identity, error)
	LinkIdentity(ctx context.Context, userID uuid.UUID, connectionID string, claims oidc.Claims) (oidc.Identity, error)
}

type ConfirmLinkRequest struct {
	Token string `json:"token" validate:"required"`
}

type Handler struct {
	logger *zap.Logger
	tracer trace.Tracer

	validator     *validator.Validate
	problemWriter *problem.HttpWriter

	userStore     UserStore
	identityStore IdentityStore
	jwtIssuer     JWTIssuer
	connections   map[string]*oidc.Connection

	frontURL               string
	accessTokenExpiration  time.Duration
	refreshTokenExpiration time.Duration
}

func NewHandler(
	logger *zap.Logger,
	validator *validator.Validate,
	problemWriter *problem.HttpWriter,
	userStore UserStore,
	identityStore IdentityStore,
	jwtIssuer JWTIssuer,
	connections map[string]*oidc.Connection,

	frontURL string,
	accessTokenExpiration time.Duration,
	refreshTokenExpiration time.Duration,
) *Handler {
	return &Handler{
		logger: logger,
		tracer: otel.Tracer("auth/handler"),

		validator:     validator,
		problemWriter: problemWriter,

		userStore:     userStore,
		identityStore: identityStore,
		jwtIssuer:     jwtIssuer,
		connections:   connections,

		frontURL:               frontURL,
		accessTokenExpiration:  accessTokenExpiration,
		refreshTokenExpiration: refreshTokenExpiration,
	}
}

// OidcStart initiates the SSO flow by redirecting the user to the connection's
// authorization URL
func (h *Handler) OidcStart(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "OidcStart")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	connectionID := r.PathValue("connection")
	connection := h.connections[connectionID]
	if connection == nil {
		h.problemWriter.WriteError(traceCtx, w, fmt.Errorf("%w: connection not found: %s", internal.ErrProviderNotFound, connectionID), logger)
		return
	}

	redirectTo := r.URL.Query().Get("r")
	if redirectTo == "" {
		redirectTo = h.frontURL
	}
	state := base64.StdEncoding.EncodeToString([]byte(redirectTo))

	authURL := connection.AuthCodeURL(state)
	http.Redirect(w, r, authURL, http.StatusFound)

	logger.Info("Redirecting to OIDC provider", zap.String("connection", connectionID))
}

// OidcCallback handles the provider callback: known identities sign in
// directly, a subject whose email matches an existing account gets a pending
// link request, and everyone else gets a fresh account.
func (h *Handler) OidcCallback(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "OidcCallback")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	connectionID := r.PathValue("connection")
	connection := h.connections[connectionID]
	if connection == nil {
		h.problemWriter.WriteError(traceCtx, w, fmt.Errorf("%w: connection not found: %s", internal.ErrProviderNotFound, connectionID), logger)
		return
	}

	redirectTo, err := decodeState(r.URL.Query().Get("state"))
	if err != nil {
		redirectTo = h.frontURL
	}

	if oauthError := r.URL.Query().Get("error"); oauthError != "" {
		http.Redirect(w, r, fmt.Sprintf("%s?error=%s", redirectTo, url.QueryEscape(oauthError)), http.StatusFound)
		return
	}

	token, err := connection.Exchange(traceCtx, r.URL.Query().Get("code"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, fmt.Errorf("failed to exchange authorization code: %v", err), logger)
		return
	}

	claims, err := connection.GetClaims(token)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	identity, err := h.identityStore.FindIdentity(traceCtx, connectionID, claims.Sub)
	if err == nil {
		h.signIn(traceCtx, w, r, identity.UserID, redirectTo, logger)
		return
	}
	if !errors.Is(err, internal.ErrNotFound) {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	// Unknown subject. An existing account with the same email must confirm
	// the link explicitly before the identity attaches to it.
	existing, err := h.userStore.GetByEmail(traceCtx, claims.Email)
	if err == nil {
		linkToken, err := h.identityStore.BeginLink(traceCtx, connectionID, claims)
		if err != nil {
			h.problemWriter.WriteError(traceCtx, w, err, logger)
			return
		}
		logger.Info("SSO identity matches existing account, link confirmation required",
			zap.String("connection", connectionID),
			zap.String("user_id", existing.ID.String()))
		http.Redirect(w, r, fmt.Sprintf("%s?link_token=%s", redirectTo, linkToken), http.StatusFound)
		return
	}
	if !errors.Is(err, internal.ErrUserNotFound) {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	newUser, err := h.userStore.FindOrCreate(traceCtx, claims.Name, claims.Email, "")
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	if _, err := h.identityStore.LinkIdentity(traceCtx, newUser.ID, connectionID, claims); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	h.signIn(traceCtx, w, r, newUser.ID, redirectTo, logger)
}

// ConfirmLink consumes a pending link token for the authenticated user.
func (h *Handler) ConfirmLink(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "ConfirmLink")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	var req ConfirmLinkRequest
	if err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	currentUser, ok := user.GetFromContext(traceCtx)
	if !ok {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrNoUserInContext, logger)
		return
	}

	identity, err := h.identityStore.ConfirmLink(traceCtx, *currentUser, req.Token)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, map[string]string{
		"connection_id": identity.ConnectionID,
		"subject":       identity.Subject,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "Logout")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	refreshTokenCookie, err := r.Cookie(RefreshTokenCookieName)
	if err == nil && refreshTokenCookie.Value != "" {
		refreshTokenID, err := uuid.Parse(refreshTokenCookie.Value)
		if err == nil {
			err = h.jwtIssuer.InactivateRefreshToken(traceCtx, refreshTokenID)
			if err != nil {
				logger.Warn("Failed to inactivate refresh token during logout", zap.Error(err))
			}
		}
	}

	h.clearAccessAndRefreshCookies(w)

	handlerutil.WriteJSONResponse(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "RefreshToken")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	refreshTokenCookie, err := r.Cookie(RefreshTokenCookieName)
	if err != nil || refreshTokenCookie.Value == "" {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrInvalidRefreshToken, logger)
		return
	}

	refreshTokenID, err := uuid.Parse(refreshTokenCookie.Value)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrInvalidRefreshToken, logger)
		return
	}

	userID, err := h.jwtIssuer.GetUserIDByRefreshToken(traceCtx, refreshTokenID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrInvalidRefreshToken, logger)
		return
	}

	if err := h.jwtIssuer.InactivateRefreshToken(traceCtx, refreshTokenID); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	accessToken, refreshToken, err := h.generateJWT(traceCtx, userID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	h.setAccessAndRefreshCookies(w, accessToken, refreshToken)

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) signIn(ctx context.Context, w http.ResponseWriter, r *http.Request, userID uuid.UUID, redirectTo string, logger *zap.Logger) {
	accessToken, refreshToken, err := h.generateJWT(ctx, userID)
	if err != nil {
		h.problemWriter.WriteError(ctx, w, err, logger)
		return
	}

	h.setAccessAndRefreshCookies(w, accessToken, refreshToken)
	http.Redirect(w, r, redirectTo, http.StatusFound)
}

func (h *Handler) generateJWT(ctx context.Context, userID uuid.UUID) (string, string, error) {
	traceCtx, span := h.tracer.Start(ctx, "generateJWT")
	defer span.End()

	userEntity, err := h.userStore.GetByID(traceCtx, userID)
	if err != nil {
		return "", "", err
	}

	jwtToken, err := h.jwtIssuer.New(traceCtx, userEntity)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := h.jwtIssuer.GenerateRefreshToken(traceCtx, userID)
	if err != nil {
		return "", "", err
	}

	return jwtToken, refreshToken.ID.String(), nil
}

func decodeState(state string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(state)
	if err != nil {
		return "", err
	}
	target, err := url.Parse(string(decoded))
	if err != nil {
		return "", err
	}
	return target.String(), nil
}

// setAccessAndRefreshCookies sets the access/refresh cookies with HTTP-only and secure flags
func (h *Handler) setAccessAndRefreshCookies(w http.ResponseWriter, accessToken, refreshTokenID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookieName,
		Value:    accessToken,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   int(h.accessTokenExpiration.Seconds()),
	})

	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookieName,
		Value:    refreshTokenID,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		Path:     "/api/auth/refresh",
		MaxAge:   int(h.refreshTokenExpiration.Seconds()),
	})
}

// clearAccessAndRefreshCookies sets the access/refresh cookies to empty values and negative MaxAge
func (h *Handler) clearAccessAndRefreshCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookieName,
		Value:    "",
		Path:     "/api/auth/refresh",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}
