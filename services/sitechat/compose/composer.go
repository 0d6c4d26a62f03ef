// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package compose

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/AleutianAI/sitechat/services/llm"
	"github.com/AleutianAI/sitechat/services/sitechat/datatypes"
)

// StreamErrorMarker is appended to the client response when the model
// stream fails after output has started. It is never part of the
// logged answer.
const StreamErrorMarker = "\n[Error streaming response]"

// GreetingReply is the canned response to pure greetings.
const GreetingReply = "Hello! How can I help you today?"

var dontKnowPattern = regexp.MustCompile(`(?i)i\s+don't\s+know`)

// RefusalMessage is the fixed out-of-scope reply for the given site.
func RefusalMessage(siteName string) string {
	return fmt.Sprintf("Sorry, I can only answer questions related to the provided %s website.", siteName)
}

// NormalizeAnswer maps degenerate model output to the refusal: empty
// answers and "I don't know" variants both refuse rather than leak an
// unhelpful reply into the log.
func NormalizeAnswer(raw, siteName string) string {
	answer := strings.TrimSpace(raw)
	if answer == "" || dontKnowPattern.MatchString(answer) {
		return RefusalMessage(siteName)
	}
	return answer
}

// ChunkWriter receives answer chunks as they arrive. Implementations
// flush each chunk so the client sees tokens immediately.
type ChunkWriter interface {
	WriteChunk(chunk string) error
}

// StreamAnswer streams the model's reply chunk-by-chunk to w while
// accumulating the full text. On a mid-stream failure the error marker
// is written to w, the tokens already delivered are kept, and the
// error is returned alongside them; the caller decides how to log.
func StreamAnswer(ctx context.Context, client llm.LLMClient, messages []datatypes.Message,
	params llm.GenerationParams, w ChunkWriter) (string, error) {

	acc := NewTokenAccumulator()
	defer acc.Destroy()

	streamErr := client.ChatStream(ctx, messages, params, func(event llm.StreamEvent) error {
		if event.Type != llm.StreamEventToken || event.Content == "" {
			return nil
		}
		if err := acc.Write(event.Content); err != nil {
			return err
		}
		return w.WriteChunk(event.Content)
	})

	answer, finErr := acc.Finalize()
	if finErr != nil {
		slog.Error("Failed to finalize answer accumulator", "error", finErr)
	}

	if streamErr != nil {
		// Best-effort close for a stream that already carried output.
		if writeErr := w.WriteChunk(StreamErrorMarker); writeErr != nil {
			slog.Debug("Could not deliver stream error marker", "error", writeErr)
		}
		return answer, fmt.Errorf("model stream failed: %w", streamErr)
	}
	return answer, nil
}
