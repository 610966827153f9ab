package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sheikharifulislam/OpnForm/internal"
	"github.com/sheikharifulislam/OpnForm/internal/ai"
	"github.com/sheikharifulislam/OpnForm/internal/auth"
	"github.com/sheikharifulislam/OpnForm/internal/billing"
	"github.com/sheikharifulislam/OpnForm/internal/config"
	"github.com/sheikharifulislam/OpnForm/internal/cors"
	"github.com/sheikharifulislam/OpnForm/internal/form"
	"github.com/sheikharifulislam/OpnForm/internal/form/property"
	"github.com/sheikharifulislam/OpnForm/internal/form/submission"
	"github.com/sheikharifulislam/OpnForm/internal/jwt"
	"github.com/sheikharifulislam/OpnForm/internal/oidc"
	"github.com/sheikharifulislam/OpnForm/internal/provider"
	"github.com/sheikharifulislam/OpnForm/internal/trace"
	"github.com/sheikharifulislam/OpnForm/internal/user"
	"github.com/sheikharifulislam/OpnForm/internal/workspace"

	databaseutil "github.com/NYCU-SDC/summer/pkg/database"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/NYCU-SDC/summer/pkg/middleware"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.6.1"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

var AppName = "no-app-name"

var Version = "no-version"

var BuildTime = "no-build-time"

var CommitHash = "no-commit-hash"

func main() {
	AppName = os.Getenv("APP_NAME")
	if AppName == "" {
		AppName = "opnform-backend"
	}

	if BuildTime == "no-build-time" {
		now := time.Now()
		BuildTime = "not provided (now: " + now.Format(time.RFC3339) + ")"
	}

	cfg, cfgLog := config.Load()
	err := cfg.Validate()
	if err != nil {
		switch {
		case errors.Is(err, config.ErrDatabaseURLRequired):
			title := "Database URL is required"
			message := "Please set the DATABASE_URL environment variable or provide a config file with the database_url key."
			log.Fatal(EarlyApplicationFailed(title, message))
		case errors.Is(err, config.ErrHashidsSaltRequired):
			title := "Hashids salt is required"
			message := "Please set the HASHIDS_SALT environment variable so legacy submission identifiers stay stable across restarts."
			log.Fatal(EarlyApplicationFailed(title, message))
		default:
			log.Fatalf("Failed to validate config: %v, exiting...", err)
		}
	}

	appMetadata := []zap.Field{
		zap.String("app_name", AppName),
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("commit_hash", CommitHash),
		zap.String("environment", cfg.Environment),
	}

	logger, err := initLogger(&cfg, appMetadata)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v, exiting...", err)
	}

	cfgLog.FlushToZap(logger)

	if cfg.Secret == config.DefaultSecret && !cfg.Debug {
		logger.Warn("Default secret detected in production environment, replace it with a secure random string")
		cfg.Secret = uuid.New().String()
	}

	logger.Info("Starting application...")

	logger.Info("Starting database migration...")

	err = databaseutil.MigrationUp(cfg.MigrationSource, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("Failed to run database migration", zap.Error(err))
	}

	dbPool, err := initDatabasePool(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to initialize database pool", zap.Error(err))
	}
	defer dbPool.Close()

	shutdown, err := initOpenTelemetry(AppName, Version, BuildTime, CommitHash, cfg.Environment, cfg.OtelCollectorUrl)
	if err != nil {
		logger.Fatal("Failed to initialize OpenTelemetry", zap.Error(err))
	}

	validator := internal.NewValidator()
	problemWriter := internal.NewProblemWriter()

	submissionCodec, err := submission.NewCodec(cfg.HashidsSalt)
	if err != nil {
		logger.Fatal("Failed to initialize submission identifier codec", zap.Error(err))
	}

	billingCatalog, err := billing.NewCatalog(cfg.Pricing, cfg.Environment)
	if err != nil {
		logger.Fatal("Failed to initialize billing catalog", zap.Error(err))
	}

	connections := map[string]*oidc.Connection{
		"default": oidc.NewConnection("default", cfg.Oidc, cfg.BaseURL+"/api/auth/login/oidc/default/callback"),
	}

	// Service
	userService := user.NewService(logger, dbPool)
	jwtService := jwt.NewService(logger, dbPool, cfg.Secret, cfg.AccessTokenExpiration, cfg.RefreshTokenExpiration)
	workspaceService := workspace.NewService(logger, dbPool)
	providerService := provider.NewService(logger, dbPool)
	propertyRule := property.NewRule(logger, providerService, cfg.SelfHosted)
	formService := form.NewService(logger, dbPool, propertyRule, cfg.FrontURL)
	submissionService := submission.NewService(logger, dbPool, submissionCodec)
	oidcService := oidc.NewService(logger, dbPool, oidc.NewLinkTokenCache())
	billingService := billing.NewService(logger, dbPool, billingCatalog, billing.NewHostedPageGateway(cfg.BillingCheckoutURL, cfg.BillingPortalURL))
	aiService := ai.NewService(logger, ai.NewClient(logger, cfg.GeminiAPIKey), propertyRule)

	// Handler
	authHandler := auth.NewHandler(logger, validator, problemWriter, userService, oidcService, jwtService, connections, cfg.FrontURL, cfg.AccessTokenExpiration, cfg.RefreshTokenExpiration)
	userHandler := user.NewHandler(logger, validator, problemWriter, userService)
	workspaceHandler := workspace.NewHandler(logger, validator, problemWriter, workspaceService)
	providerHandler := provider.NewHandler(logger, validator, problemWriter, providerService)
	formHandler := form.NewHandler(logger, validator, problemWriter, formService)
	submissionHandler := submission.NewHandler(logger, validator, problemWriter, submissionService, formService)
	billingHandler := billing.NewHandler(logger, validator, problemWriter, billingService)
	aiHandler := ai.NewHandler(logger, validator, problemWriter, aiService)

	// Middleware
	traceMiddleware := trace.NewMiddleware(logger, cfg.Debug)
	corsMiddleware := cors.NewMiddleware(logger, cfg.FrontURL, cfg.AllowOrigins)
	jwtMiddleware := jwt.NewMiddleware(logger, problemWriter, jwtService, userService)
	workspaceMiddleware := workspace.NewMiddleware(logger, dbPool, workspaceService)

	// Basic Middleware (Tracing, Recovery and CORS)
	basicMiddleware := middleware.NewSet(traceMiddleware.RecoverMiddleware)
	basicMiddleware = basicMiddleware.Append(traceMiddleware.TraceMiddleWare)
	basicMiddleware = basicMiddleware.Append(corsMiddleware.HandlerFunc)

	// Auth Middleware
	authMiddleware := middleware.NewSet(traceMiddleware.RecoverMiddleware)
	authMiddleware = authMiddleware.Append(traceMiddleware.TraceMiddleWare)
	authMiddleware = authMiddleware.Append(corsMiddleware.HandlerFunc)
	authMiddleware = authMiddleware.Append(jwtMiddleware.AuthenticateMiddleware)

	// Workspace Middleware (authentication plus slug resolution)
	workspaceScoped := middleware.NewSet(traceMiddleware.RecoverMiddleware)
	workspaceScoped = workspaceScoped.Append(traceMiddleware.TraceMiddleWare)
	workspaceScoped = workspaceScoped.Append(corsMiddleware.HandlerFunc)
	workspaceScoped = workspaceScoped.Append(jwtMiddleware.AuthenticateMiddleware)
	workspaceScoped = workspaceScoped.Append(workspaceMiddleware.Middleware)

	// HTTP Server
	mux := http.NewServeMux()

	// Health check route
	mux.HandleFunc("GET /api/healthz", basicMiddleware.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("OK"))
		if err != nil {
			logger.Error("Failed to write response", zap.Error(err))
		}
	}))

	// OIDC authentication routes
	mux.HandleFunc("GET /api/auth/login/oidc/{connection}", basicMiddleware.HandlerFunc(authHandler.OidcStart))
	mux.HandleFunc("GET /api/auth/login/oidc/{connection}/callback", basicMiddleware.HandlerFunc(authHandler.OidcCallback))
	mux.HandleFunc("POST /api/auth/link/confirm", authMiddleware.HandlerFunc(authHandler.ConfirmLink))

	// JWT refresh route
	mux.HandleFunc("POST /api/auth/refresh", basicMiddleware.HandlerFunc(authHandler.RefreshToken))

	mux.HandleFunc("GET /api/auth/logout", basicMiddleware.HandlerFunc(authHandler.Logout))
	mux.HandleFunc("POST /api/auth/logout", basicMiddleware.HandlerFunc(authHandler.Logout))

	// User authenticated routes
	mux.HandleFunc("GET /api/users/me", authMiddleware.HandlerFunc(userHandler.GetMe))
	mux.HandleFunc("PUT /api/users/me", authMiddleware.HandlerFunc(userHandler.UpdateMe))

	// Workspace routes
	mux.HandleFunc("POST /api/workspaces", authMiddleware.HandlerFunc(workspaceHandler.CreateWorkspaceHandler))
	mux.HandleFunc("GET /api/workspaces", authMiddleware.HandlerFunc(workspaceHandler.ListWorkspacesHandler))
	mux.HandleFunc("GET /api/workspaces/{slug}", authMiddleware.HandlerFunc(workspaceHandler.GetWorkspaceHandler))

	// Workspace scoped form routes
	mux.HandleFunc("POST /api/workspaces/{slug}/forms", workspaceScoped.HandlerFunc(formHandler.CreateFormHandler))
	mux.HandleFunc("GET /api/workspaces/{slug}/forms", workspaceScoped.HandlerFunc(formHandler.ListFormsHandler))
	mux.HandleFunc("GET /api/workspaces/{slug}/forms/{id}", workspaceScoped.HandlerFunc(formHandler.GetFormHandler))
	mux.HandleFunc("PUT /api/workspaces/{slug}/forms/{id}", workspaceScoped.HandlerFunc(formHandler.UpdateFormHandler))
	mux.HandleFunc("DELETE /api/workspaces/{slug}/forms/{id}", workspaceScoped.HandlerFunc(formHandler.DeleteFormHandler))

	// Submission management routes
	mux.HandleFunc("GET /api/workspaces/{slug}/forms/{id}/submissions", workspaceScoped.HandlerFunc(submissionHandler.ListSubmissionsHandler))
	mux.HandleFunc("POST /api/workspaces/{slug}/forms/{id}/submissions/export", workspaceScoped.HandlerFunc(submissionHandler.ExportSubmissionsHandler))

	// Public form routes for anonymous respondents
	mux.HandleFunc("GET /api/forms/{slug}", basicMiddleware.HandlerFunc(formHandler.GetPublicFormHandler))
	mux.HandleFunc("POST /api/forms/{slug}/answer", basicMiddleware.HandlerFunc(submissionHandler.AnswerFormHandler))
	mux.HandleFunc("GET /api/forms/{slug}/submissions/{submissionId}", basicMiddleware.HandlerFunc(submissionHandler.GetSubmissionHandler))

	// AI form drafting
	mux.HandleFunc("POST /api/forms/ai/generate", authMiddleware.HandlerFunc(aiHandler.GenerateFormHandler))

	// Provider routes
	mux.HandleFunc("POST /api/providers", authMiddleware.HandlerFunc(providerHandler.ConnectProviderHandler))
	mux.HandleFunc("GET /api/providers", authMiddleware.HandlerFunc(providerHandler.ListProvidersHandler))
	mux.HandleFunc("DELETE /api/providers/{id}", authMiddleware.HandlerFunc(providerHandler.DisconnectProviderHandler))

	// Billing routes
	mux.HandleFunc("GET /api/billing/subscription", authMiddleware.HandlerFunc(billingHandler.GetSubscriptionHandler))
	mux.HandleFunc("POST /api/billing/checkout", authMiddleware.HandlerFunc(billingHandler.CheckoutHandler))
	mux.HandleFunc("GET /api/billing/portal", authMiddleware.HandlerFunc(billingHandler.BillingPortalHandler))

	// handle interrupt signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:    cfg.Host + ":" + cfg.Port,
		Handler: mux,
	}

	go func() {
		logger.Info("Starting listening request", zap.String("host", cfg.Host), zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Fail to start server with error", zap.Error(err))
		}
	}()

	// wait for context close
	<-ctx.Done()
	logger.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	otelCtx, otelCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer otelCancel()
	if err := shutdown(otelCtx); err != nil {
		logger.Error("Forced to shutdown OpenTelemetry", zap.Error(err))
	}

	logger.Info("Successfully shutdown")
}

func initLogger(cfg *config.Config, appMetadata []zap.Field) (*zap.Logger, error) {
	var err error
	var logger *zap.Logger
	if cfg.Debug {
		logger, err = logutil.ZapDevelopmentConfig().Build()
		if err != nil {
			return nil, err
		}
		logger.Info("Running in debug mode", appMetadata...)
	} else {
		logger, err = logutil.ZapProductionConfig().Build()
		if err != nil {
			return nil, err
		}

		logger = logger.With(appMetadata...)
	}
	defer func() {
		err := logger.Sync()
		if err != nil {
			zap.S().Errorw("Failed to sync logger", zap.Error(err))
		}
	}()

	return logger, nil
}

func initDatabasePool(databaseURL string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	dbPool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, err
	}
	return dbPool, nil
}

func initOpenTelemetry(appName, version, buildTime, commitHash, environment, otelCollectorUrl string) (func(context.Context) error, error) {
	ctx := context.Background()

	serviceName := semconv.ServiceNameKey.String(appName)
	serviceVersion := semconv.ServiceVersionKey.String(version)
	serviceNamespace := semconv.ServiceNamespaceKey.String("opnform")
	serviceCommitHash := semconv.ServiceVersionKey.String(commitHash)
	serviceEnvironment := semconv.DeploymentEnvironmentKey.String(environment)

	res, err := resource.New(ctx,
		resource.WithAttributes(
			serviceName,
			serviceVersion,
			serviceNamespace,
			serviceCommitHash,
			serviceEnvironment,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	options := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	}

	if otelCollectorUrl != "" {
		conn, err := initGrpcConn(otelCollectorUrl)
		if err != nil {
			return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
		}

		traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}

		bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
		options = append(options, sdktrace.WithSpanProcessor(bsp))
	}

	tracerProvider := sdktrace.NewTracerProvider(options...)

	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tracerProvider.Shutdown, nil
}

func initGrpcConn(target string) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	return conn, nil
}

func EarlyApplicationFailed(title, action string) string {
	result := `
-----------------------------------------
Application Failed to Start
-----------------------------------------

# What's wrong?
%s

# How to fix it?
%s

`

	result = fmt.Sprintf(result, title, action)
	return result
}
