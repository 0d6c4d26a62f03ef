// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package llm abstracts the text-generation and embedding backends used by
// the sitechat service. Backends are selected once at boot via
// LLM_BACKEND_TYPE and injected into the request pipeline; they are never
// reconstructed per request.
package llm

import (
	"context"

	"github.com/AleutianAI/sitechat/services/sitechat/datatypes"
)

// GenerationParams carries optional sampling parameters. Nil fields fall
// back to backend defaults.
type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopK        *int     `json:"top_k"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// StreamEventType identifies the kind of a streaming event.
type StreamEventType string

const (
	StreamEventToken StreamEventType = "token"
	StreamEventDone  StreamEventType = "done"
	StreamEventError StreamEventType = "error"
)

// StreamEvent is one event emitted during ChatStream. Token events carry
// Content; error events carry Err.
type StreamEvent struct {
	Type    StreamEventType `json:"type"`
	Content string          `json:"content,omitempty"`
	Err     string          `json:"error,omitempty"`
}

// StreamCallback receives stream events in arrival order. Returning a
// non-nil error cancels the stream; the backend stops consuming model
// output and returns that error.
type StreamCallback func(event StreamEvent) error

// LLMClient defines the standard interface for any LLM backend.
type LLMClient interface {
	// Generate produces a completion for a single prompt.
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)

	// Chat produces a completion for a full message history.
	Chat(ctx context.Context, messages []datatypes.Message, params GenerationParams) (string, error)

	// ChatStream streams a completion chunk by chunk through callback.
	// The stream is finite and not restartable; it may fail mid-sequence,
	// in which case the chunks already delivered remain valid.
	ChatStream(ctx context.Context, messages []datatypes.Message, params GenerationParams, callback StreamCallback) error
}

// Embedder computes vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds several texts in one round trip. Implementations
	// must return exactly one vector per input, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
