// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "Zibtek", cfg.SiteName)
	assert.Equal(t, "https://www.zibtek.com", cfg.TrustedSitePrefix)
	assert.Equal(t, 4, cfg.RetrieveK)
	assert.Equal(t, 8, cfg.MaxPassages)
	assert.Equal(t, 24000, cfg.ContextBudget)
	assert.Equal(t, "openai", cfg.LLMBackend)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SITE_NAME", "Acme")
	t.Setenv("RETRIEVE_K", "6")
	t.Setenv("SESSION_TTL", "48h")
	t.Setenv("LLM_BACKEND_TYPE", "ollama")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "Acme", cfg.SiteName)
	assert.Equal(t, 6, cfg.RetrieveK)
	assert.Equal(t, 48*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "ollama", cfg.LLMBackend)
}

func TestLoad_MaxPassagesNeverBelowK(t *testing.T) {
	t.Setenv("RETRIEVE_K", "12")
	t.Setenv("MAX_PASSAGES", "8")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.MaxPassages)
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	t.Setenv("LLM_BACKEND_TYPE", "skynet")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoad_IgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("RETRIEVE_K", "lots")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.RetrieveK)
}
