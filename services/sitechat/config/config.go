// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads runtime settings from the environment and
// validates them before the service starts serving traffic.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds every tunable the service reads at startup. Fields are
// populated from environment variables; missing values fall back to
// the defaults documented on each field.
type Config struct {
	// Port the HTTP server listens on.
	Port string `validate:"required,numeric"`

	// WeaviateURL is the full URL of the Weaviate instance. Empty
	// means lightweight mode: the server starts without retrieval.
	WeaviateURL string `validate:"omitempty,url"`

	// SiteName is the brand used in prompts and refusal text.
	SiteName string `validate:"required"`

	// TrustedSitePrefix filters retrieved passages to a single site.
	TrustedSitePrefix string `validate:"required,url"`

	// RetrieveK is the per-query passage count requested from the index.
	RetrieveK int `validate:"required,min=1,max=50"`

	// MaxPassages caps the merged passage set after dedup.
	MaxPassages int `validate:"required,min=1"`

	// ContextBudget is the character cap on the assembled context.
	ContextBudget int `validate:"required,min=1000"`

	// LLMBackend selects the generation backend: openai or ollama.
	LLMBackend string `validate:"required,oneof=openai ollama"`

	// BadgerPath is the on-disk location for sessions, users, and
	// chat logs. Empty selects an in-memory store.
	BadgerPath string

	// SessionTTL controls how long login sessions stay valid.
	SessionTTL time.Duration `validate:"required,min=1m"`

	// RateLimitRPS and RateLimitBurst bound per-client request rates.
	RateLimitRPS   float64 `validate:"min=0"`
	RateLimitBurst int     `validate:"min=0"`

	// OTLPEndpoint enables trace export when non-empty.
	OTLPEndpoint string
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("Ignoring non-integer environment value", "key", key, "value", raw)
		return fallback
	}
	return n
}

func envFloatOr(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		slog.Warn("Ignoring non-numeric environment value", "key", key, "value", raw)
		return fallback
	}
	return f
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("Ignoring unparseable duration", "key", key, "value", raw)
		return fallback
	}
	return d
}

// Load reads the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Port:              envOr("PORT", "8080"),
		WeaviateURL:       os.Getenv("WEAVIATE_URL"),
		SiteName:          envOr("SITE_NAME", "Zibtek"),
		TrustedSitePrefix: envOr("TRUSTED_SITE_PREFIX", "https://www.zibtek.com"),
		RetrieveK:         envIntOr("RETRIEVE_K", 4),
		MaxPassages:       envIntOr("MAX_PASSAGES", 8),
		ContextBudget:     envIntOr("CONTEXT_BUDGET", 24000),
		LLMBackend:        envOr("LLM_BACKEND_TYPE", "openai"),
		BadgerPath:        os.Getenv("BADGER_PATH"),
		SessionTTL:        envDurationOr("SESSION_TTL", 7*24*time.Hour),
		RateLimitRPS:      envFloatOr("RATE_LIMIT_RPS", 5),
		RateLimitBurst:    envIntOr("RATE_LIMIT_BURST", 10),
		OTLPEndpoint:      os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	// The merged cap never drops below the per-query K.
	if cfg.MaxPassages < cfg.RetrieveK {
		cfg.MaxPassages = cfg.RetrieveK
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
