package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pwaburton/portal-backend/idp"
	"github.com/pwaburton/portal-backend/idp/idpfactory"
	"github.com/pwaburton/portal-backend/pkg/monitoring"
	sharedutils "github.com/pwaburton/portal-backend/shared/utils"
	v1 "github.com/pwaburton/portal-backend/v1"
	v1handlers "github.com/pwaburton/portal-backend/v1/handlers"
	v1middleware "github.com/pwaburton/portal-backend/v1/middleware"
)

func main() {
	// Load .env file if it exists (optional - fails silently if not found)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
	slog.SetDefault(logger)

	slog.Info("Starting membership portal backend initialization")

	ctx := context.Background()
	shutdownMetrics, err := monitoring.Setup(ctx, monitoring.Config{ServiceName: "portal-backend"})
	if err != nil {
		slog.Error("Failed to initialize metrics", "error", err)
		os.Exit(1)
	}

	// Initialize GORM database connection
	dbConfig := v1.NewDatabaseConfig()
	gormDB, err := v1.ConnectGormDB(dbConfig)
	if err != nil {
		slog.Error("Failed to connect to GORM database", "error", err)
		os.Exit(1)
	}

	// Initialize the identity provider client
	provider, err := idpfactory.NewIdpAPIProvider(idpfactory.FactoryConfig{
		ProviderType: idp.ProviderType(getEnvOrDefault("IDP_PROVIDER", string(idp.ProviderGoTrue))),
		BaseURL:      os.Getenv("IDP_BASE_URL"),
		ClientID:     os.Getenv("IDP_CLIENT_ID"),
		ClientSecret: os.Getenv("IDP_CLIENT_SECRET"),
		Scopes:       []string{"admin"},
	})
	if err != nil {
		slog.Error("Failed to initialize identity provider client", "error", err)
		os.Exit(1)
	}

	// Initialize handlers
	v1Handler := v1handlers.NewV1Handler(gormDB, provider)

	// Setup routes
	mux := http.NewServeMux()
	v1Handler.SetupV1Routes(mux)

	mux.HandleFunc("/health", sharedutils.HealthHandler("portal-backend"))
	mux.Handle("/metrics", monitoring.Handler())

	// Debug endpoint
	mux.HandleFunc("/debug", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"debug":"enabled","service":"portal-backend","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
	})

	// JWT authentication middleware
	jwtMiddleware := v1middleware.NewJWTAuthMiddleware(v1middleware.JWTAuthConfig{
		JWKSURL:          os.Getenv("JWT_JWKS_URL"),
		ExpectedIssuer:   os.Getenv("JWT_ISSUER"),
		ExpectedAudience: os.Getenv("JWT_AUDIENCE"),
	})

	authzMiddleware := v1middleware.NewAuthorizationMiddleware()
	auditMiddleware := v1middleware.NewAuditMiddleware()

	// Middleware chain, outermost first: CORS -> metrics -> JWT -> request
	// context -> authorization -> audit -> routes
	var handler http.Handler = mux
	handler = auditMiddleware.AuditLoggingMiddleware(handler)
	handler = authzMiddleware.AuthorizeRequest(handler)
	handler = v1middleware.RequestContextMiddleware(handler)
	handler = jwtMiddleware.AuthenticateJWT(handler)
	handler = monitoring.HTTPMetricsMiddleware(handler)
	handler = v1middleware.NewCORSMiddleware()(handler)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	addr := ":" + port
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Portal backend starting", "port", port, "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down portal backend...")

	// Create a deadline to wait for
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if err := shutdownMetrics(shutdownCtx); err != nil {
		slog.Warn("Metrics shutdown failed", "error", err)
	}

	slog.Info("Portal backend exited")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
