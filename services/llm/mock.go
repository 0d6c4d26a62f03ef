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
	"strings"
	"sync"

	"github.com/AleutianAI/sitechat/services/sitechat/datatypes"
)

// MockLLMClient is a canned-response client used in tests. When Tokens
// is set, ChatStream emits them one event at a time; otherwise the
// Response string is emitted as a single token.
type MockLLMClient struct {
	mu sync.Mutex

	Response string
	Tokens   []string
	Err      error
	// StreamErrAfter is how many tokens are delivered before StreamErr
	// is returned; it only applies when StreamErr is set. At zero the
	// stream fails before the first token.
	StreamErrAfter int
	StreamErr      error

	ChatCalls   int
	StreamCalls int
	// LastMessages records the conversation from the most recent call.
	LastMessages []datatypes.Message
}

func (m *MockLLMClient) record(messages []datatypes.Message) {
	m.LastMessages = append([]datatypes.Message(nil), messages...)
}

func (m *MockLLMClient) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	return m.Chat(ctx, []datatypes.Message{{Role: "user", Content: prompt}}, params)
}

func (m *MockLLMClient) Chat(ctx context.Context, messages []datatypes.Message, params GenerationParams) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChatCalls++
	m.record(messages)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Tokens) > 0 {
		return strings.Join(m.Tokens, ""), nil
	}
	return m.Response, nil
}

func (m *MockLLMClient) ChatStream(ctx context.Context, messages []datatypes.Message,
	params GenerationParams, callback StreamCallback) error {

	m.mu.Lock()
	m.StreamCalls++
	m.record(messages)
	tokens := m.Tokens
	if len(tokens) == 0 && m.Response != "" {
		tokens = []string{m.Response}
	}
	err := m.Err
	streamErr := m.StreamErr
	streamErrAfter := m.StreamErrAfter
	m.mu.Unlock()

	if err != nil {
		return err
	}
	for i, tok := range tokens {
		if streamErr != nil && i == streamErrAfter {
			return streamErr
		}
		if cbErr := callback(StreamEvent{Type: StreamEventToken, Content: tok}); cbErr != nil {
			return cbErr
		}
	}
	if streamErr != nil && streamErrAfter >= len(tokens) {
		return streamErr
	}
	return callback(StreamEvent{Type: StreamEventDone})
}

// MockEmbedder returns a fixed vector for every input.
type MockEmbedder struct {
	Vector []float32
	Err    error

	Calls int
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Vector, nil
}

func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = m.Vector
	}
	return out, nil
}
