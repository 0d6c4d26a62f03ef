// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"google.golang.org/grpc/credentials/insecure"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"

	"github.com/AleutianAI/sitechat/services/llm"
	"github.com/AleutianAI/sitechat/services/sitechat/config"
	"github.com/AleutianAI/sitechat/services/sitechat/datatypes"
	"github.com/AleutianAI/sitechat/services/sitechat/handlers"
	"github.com/AleutianAI/sitechat/services/sitechat/middleware"
	"github.com/AleutianAI/sitechat/services/sitechat/observability"
	"github.com/AleutianAI/sitechat/services/sitechat/retrieval"
	"github.com/AleutianAI/sitechat/services/sitechat/routes"
	"github.com/AleutianAI/sitechat/services/sitechat/store"
)

func initTracer(endpoint string) (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("sitechat-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// newWeaviateClient parses the configured URL and connects. An empty
// or invalid URL returns nil: the server then runs in lightweight mode
// where every question refuses but greetings, accounts, and logs work.
func newWeaviateClient(rawURL string) *weaviate.Client {
	rawURL = strings.Trim(rawURL, "\"' ")
	if rawURL == "" || !strings.Contains(rawURL, "http") {
		slog.Info("WEAVIATE_URL not set. Running in lightweight mode (no retrieval).")
		return nil
	}
	parsedURL, err := url.Parse(rawURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		slog.Warn("WEAVIATE_URL is invalid. Running in lightweight mode.", "url", rawURL, "error", err)
		return nil
	}
	client, err := weaviate.NewClient(weaviate.Config{
		Host:   parsedURL.Host,
		Scheme: parsedURL.Scheme,
	})
	if err != nil {
		slog.Error("Failed to create Weaviate client", "error", err)
		return nil
	}
	datatypes.EnsureWeaviateSchema(client)
	return client
}

// ensureAdminUser bootstraps the admin account from the environment so
// a fresh deployment has someone who can read the chat logs.
func ensureAdminUser(users *store.UserStore) {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return
	}
	_, err := users.Create(email, password, store.RoleAdmin)
	if errors.Is(err, store.ErrUserExists) {
		return
	}
	if err != nil {
		slog.Error("Failed to bootstrap admin user", "error", err)
		return
	}
	slog.Info("Bootstrapped admin user", "email", email)
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded environment from .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	if cfg.OTLPEndpoint != "" {
		cleanup, err := initTracer(cfg.OTLPEndpoint)
		if err != nil {
			log.Fatalf("failed to setup the OTLP tracer: %v", err)
		}
		defer cleanup(context.Background())
	}

	// --- Persistence ---
	storeCfg := store.InMemoryConfig()
	if cfg.BadgerPath != "" {
		storeCfg = store.DefaultConfig(cfg.BadgerPath)
	} else {
		slog.Warn("BADGER_PATH not set, sessions and chat logs will not survive restarts")
	}
	db, err := store.Open(storeCfg)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer db.Close()

	users := store.NewUserStore(db)
	sessions := store.NewSessionStore(db, cfg.SessionTTL)
	turns := store.NewTurnStore(db)
	ensureAdminUser(users)

	// --- Retrieval ---
	weaviateClient := newWeaviateClient(cfg.WeaviateURL)
	var engine *retrieval.Engine
	var embedder llm.Embedder
	if weaviateClient != nil {
		embedder, err = llm.NewOpenAIEmbedder()
		if err != nil {
			log.Fatalf("failed to initialize embedder: %v", err)
		}
		index := retrieval.NewWeaviateIndex(weaviateClient, embedder)
		engine = retrieval.NewEngine(index, cfg.TrustedSitePrefix, cfg.RetrieveK, cfg.MaxPassages)
	}

	// --- Generation backend ---
	slog.Info("Configuring the LLM client", "backend", cfg.LLMBackend)
	var llmClient llm.LLMClient
	switch cfg.LLMBackend {
	case "ollama":
		llmClient, err = llm.NewOllamaClient()
	default:
		llmClient, err = llm.NewOpenAIClient()
	}
	if err != nil {
		log.Fatalf("failed to initialize LLM client: %v", err)
	}

	metrics := observability.InitMetrics()

	router := gin.Default()
	router.HandleMethodNotAllowed = true
	router.Use(otelgin.Middleware("sitechat-service"))
	router.Use(middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Handler())

	routes.SetupRoutes(router, routes.Deps{
		Chat: handlers.ChatDeps{
			Config:  cfg,
			LLM:     llmClient,
			Engine:  engine,
			Turns:   turns,
			Metrics: metrics,
		},
		Auth: handlers.AuthDeps{
			Users:         users,
			Sessions:      sessions,
			SecureCookies: os.Getenv("SECURE_COOKIES") == "true",
		},
		Ingest: handlers.IngestDeps{
			Weaviate: weaviateClient,
			Embedder: embedder,
		},
	})

	slog.Info("Starting the sitechat server", "port", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
