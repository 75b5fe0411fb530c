package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"pagecraft/internal/config"
	"pagecraft/internal/domain/models"
	"pagecraft/internal/domain/repositories"
	"pagecraft/internal/editor"
	"pagecraft/internal/handler"
	"pagecraft/internal/middleware"
	"pagecraft/internal/repository/memory"
	"pagecraft/internal/repository/postgres"
	"pagecraft/internal/service"
	"pagecraft/internal/share"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	// Optionally tee logs into rotated files alongside stdout
	var logOut io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, cfg.MaxLogFiles)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create per-kind document stores. Without a database URL the server
	// runs on in-memory stores: state lives for the process only, which is
	// fine for local frontend development.
	stores := make(map[models.DocumentKind]repositories.DocumentStore)
	if cfg.DatabaseURL != "" {
		ctx := context.Background()
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to create connection pool: %v", err)
		}
		defer pool.Close()

		tables := postgres.NewTableNames(cfg.TablePrefix)
		repoConfig := &postgres.RepositoryConfig{
			Pool:   pool,
			Tables: tables,
			Logger: logger,
		}
		stores[models.KindProject] = postgres.NewDocumentStore(repoConfig, models.KindProject)
		stores[models.KindTemplate] = postgres.NewDocumentStore(repoConfig, models.KindTemplate)

		logger.Info("database connected",
			"max_conns", 25,
			"min_conns", 5,
		)
	} else {
		stores[models.KindProject] = memory.NewDocumentStore(models.KindProject, logger)
		stores[models.KindTemplate] = memory.NewDocumentStore(models.KindTemplate, logger)
		logger.Warn("DATABASE_URL not set, using in-memory stores (state is not durable)")
	}

	// Create services
	docService := service.NewDocumentService(stores, logger)
	issuer := share.NewIssuer(stores, logger)
	registry := editor.NewRegistry(stores, logger, cfg.FlushDebounce)

	// Create handlers
	docHandler := handler.NewDocumentHandler(docService, logger)
	shareHandler := handler.NewShareHandler(issuer, docService, logger)
	editorHandler := handler.NewEditorHandler(registry, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", docHandler.HealthCheck)

	// Document routes, registered once per kind
	kinds := map[string]models.DocumentKind{
		"projects":  models.KindProject,
		"templates": models.KindTemplate,
	}
	for path, kind := range kinds {
		mux.HandleFunc("GET /api/"+path, docHandler.List(kind))
		mux.HandleFunc("POST /api/"+path, docHandler.Create(kind))
		mux.HandleFunc("GET /api/"+path+"/{id}", docHandler.Get(kind))
		mux.HandleFunc("PATCH /api/"+path+"/{id}", docHandler.Update(kind))
		mux.HandleFunc("DELETE /api/"+path+"/{id}", docHandler.Delete(kind))
		mux.HandleFunc("GET /api/"+path+"/{id}/elements", docHandler.GetElements(kind))
		mux.HandleFunc("POST /api/"+path+"/{id}/publish", docHandler.Publish(kind))
		mux.HandleFunc("POST /api/"+path+"/{id}/unpublish", docHandler.Unpublish(kind))

		// Share credential routes
		mux.HandleFunc("POST /api/"+path+"/{id}/share", shareHandler.Issue(kind))
		mux.HandleFunc("GET /api/"+path+"/{id}/share", shareHandler.Get(kind))
		mux.HandleFunc("PATCH /api/"+path+"/{id}/share", shareHandler.Update(kind))
		mux.HandleFunc("DELETE /api/"+path+"/{id}/share", shareHandler.Revoke(kind))
	}

	// Editor session routes
	mux.HandleFunc("POST /api/editor/open", editorHandler.Open)
	mux.HandleFunc("GET /api/editor/{kind}/state", editorHandler.State)
	mux.HandleFunc("GET /api/editor/{kind}/elements", editorHandler.Children)
	mux.HandleFunc("POST /api/editor/{kind}/elements", editorHandler.AddElement)
	mux.HandleFunc("PATCH /api/editor/{kind}/elements/{id}", editorHandler.UpdateElement)
	mux.HandleFunc("DELETE /api/editor/{kind}/elements/{id}", editorHandler.DeleteElement)
	mux.HandleFunc("POST /api/editor/{kind}/select", editorHandler.Select)
	mux.HandleFunc("POST /api/editor/{kind}/undo", editorHandler.Undo)
	mux.HandleFunc("POST /api/editor/{kind}/redo", editorHandler.Redo)
	mux.HandleFunc("POST /api/editor/{kind}/flush", editorHandler.Flush)
	mux.HandleFunc("POST /api/editor/{kind}/clear", editorHandler.Clear)

	// Public share resolution (anonymous rendering)
	mux.HandleFunc("GET /share/{slug}", shareHandler.ResolveSlug)
	mux.HandleFunc("GET /share/token/{token}", shareHandler.ResolveToken)

	// Build middleware chain
	var root http.Handler = mux
	root = middleware.Recovery(logger)(root)

	// CORS - must be outermost to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Editor-ID"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
