// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sitechat/services/sitechat/datatypes"
)

func newTestOllamaClient(serverURL string) *OllamaClient {
	return &OllamaClient{
		baseURL:    serverURL,
		model:      "test-model",
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func TestOllamaChatStream_DeliversTokensInOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.Write([]byte(`{"message":{"role":"assistant","content":"Hello"},"done":false}` + "\n"))
		w.Write([]byte(`{"message":{"role":"assistant","content":" world"},"done":false}` + "\n"))
		w.Write([]byte(`{"message":{"role":"assistant","content":""},"done":true}` + "\n"))
	}))
	defer server.Close()

	client := newTestOllamaClient(server.URL)

	var tokens []string
	var sawDone bool
	err := client.ChatStream(context.Background(),
		[]datatypes.Message{{Role: "user", Content: "hi"}},
		GenerationParams{},
		func(event StreamEvent) error {
			switch event.Type {
			case StreamEventToken:
				tokens = append(tokens, event.Content)
			case StreamEventDone:
				sawDone = true
			}
			return nil
		})

	require.NoError(t, err)
	assert.Equal(t, []string{"Hello", " world"}, tokens)
	assert.True(t, sawDone, "expected a done event after the final chunk")
}

func TestOllamaChatStream_SurfacesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":{"role":"assistant","content":"partial"},"done":false}` + "\n"))
		w.Write([]byte(`{"error":"model crashed"}` + "\n"))
	}))
	defer server.Close()

	client := newTestOllamaClient(server.URL)

	var tokens []string
	err := client.ChatStream(context.Background(), nil, GenerationParams{},
		func(event StreamEvent) error {
			if event.Type == StreamEventToken {
				tokens = append(tokens, event.Content)
			}
			return nil
		})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "model crashed")
	assert.Equal(t, []string{"partial"}, tokens, "tokens before the failure should still be delivered")
}

func TestOllamaChat_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestOllamaClient(server.URL)
	_, err := client.Chat(context.Background(),
		[]datatypes.Message{{Role: "user", Content: "hi"}}, GenerationParams{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
