// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers provides the HTTP request handlers for the chat
// service.
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/sitechat/services/llm"
	"github.com/AleutianAI/sitechat/services/sitechat/compose"
	"github.com/AleutianAI/sitechat/services/sitechat/config"
	"github.com/AleutianAI/sitechat/services/sitechat/datatypes"
	"github.com/AleutianAI/sitechat/services/sitechat/middleware"
	"github.com/AleutianAI/sitechat/services/sitechat/observability"
	"github.com/AleutianAI/sitechat/services/sitechat/retrieval"
	"github.com/AleutianAI/sitechat/services/sitechat/safety"
	"github.com/AleutianAI/sitechat/services/sitechat/store"
)

var chatTracer = otel.Tracer("sitechat.handlers.chat")

// ChatDeps bundles everything the chat handler needs. Engine may be
// nil when the server runs without a vector index; every question then
// refuses, but greetings and logging still work.
type ChatDeps struct {
	Config  *config.Config
	LLM     llm.LLMClient
	Engine  *retrieval.Engine
	Turns   *store.TurnStore
	Metrics *observability.ChatMetrics
}

// streamWriter adapts gin's response writer to compose.ChunkWriter,
// flushing after every chunk so tokens reach the client immediately.
type streamWriter struct {
	c *gin.Context

	// onFirstChunk, when set, fires once before the first write.
	onFirstChunk func()
}

func (w *streamWriter) WriteChunk(chunk string) error {
	if w.onFirstChunk != nil {
		w.onFirstChunk()
		w.onFirstChunk = nil
	}
	if _, err := w.c.Writer.WriteString(chunk); err != nil {
		return err
	}
	w.c.Writer.Flush()
	return nil
}

func setStreamingHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-transform")
	c.Header("X-Accel-Buffering", "no")
}

// HandleChat returns the POST /chat handler. The response is a
// text/plain chunked stream; failures before the first byte return a
// JSON error, failures after it append an in-band error marker.
func HandleChat(deps ChatDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := chatTracer.Start(c.Request.Context(), "HandleChat")
		defer span.End()

		// 1. Parse and validate the request body.
		var req datatypes.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing user message"})
			return
		}
		slog.Info("Chat query received", "chars", len(req.Message))

		// 2. Resolve the effective user: session cookie first, then
		// any id the client passed in the body, else anonymous.
		userId := ""
		if session, ok := middleware.SessionFrom(c); ok {
			userId = session.UserId
		} else if req.UserId != "" {
			userId = req.UserId
		}
		span.SetAttributes(attribute.Bool("chat.authenticated", userId != ""))

		// 3. Classify before touching the index or the model.
		verdict := safety.Classify(req.Message)
		if verdict.Injection {
			slog.Warn("Prompt injection attempt detected, enforcing context-only policy")
			deps.Metrics.InjectionAttemptsTotal.Inc()
		}

		// 4. Greetings short-circuit: canned reply, no retrieval.
		if verdict.Greeting {
			setStreamingHeaders(c)
			w := &streamWriter{c: c}
			if err := w.WriteChunk(compose.GreetingReply); err != nil {
				slog.Debug("Client went away during greeting", "error", err)
			}
			deps.Metrics.RecordRequest(observability.OutcomeGreeting)
			logTurn(deps, datatypes.ChatTurn{
				UserId:            userId,
				Question:          req.Message,
				Answer:            compose.GreetingReply,
				Queries:           []string{},
				Sources:           []datatypes.SourceRef{},
				InjectionDetected: verdict.Injection,
				Kind:              datatypes.TurnKindGreeting,
			})
			return
		}

		// 5. Expand the question and fan out retrieval. Retrieval
		// still runs on flagged requests so the queries get logged.
		queries := retrieval.ExpandQueries(req.Message, deps.Config.SiteName)
		var passages []datatypes.RetrievedPassage
		rawCount := 0
		if deps.Engine != nil {
			passages, rawCount = deps.Engine.Retrieve(ctx, queries, true)
		}
		deps.Metrics.RecordRetrieval(rawCount, len(passages))
		slog.Info("Retrieval complete",
			"queries", len(queries), "raw", rawCount, "merged", len(passages))

		refusal := compose.RefusalMessage(deps.Config.SiteName)

		// 6. No usable context, or an injection attempt: refuse. The
		// injection flag alone is sufficient.
		if len(passages) == 0 || verdict.Injection {
			setStreamingHeaders(c)
			w := &streamWriter{c: c}
			if err := w.WriteChunk(refusal); err != nil {
				slog.Debug("Client went away during refusal", "error", err)
			}
			deps.Metrics.RecordRequest(observability.OutcomeRefused)
			logTurn(deps, datatypes.ChatTurn{
				UserId:            userId,
				Question:          req.Message,
				Answer:            refusal,
				Queries:           queries,
				Sources:           []datatypes.SourceRef{},
				InjectionDetected: verdict.Injection,
				Kind:              datatypes.TurnKindQA,
			})
			return
		}

		// 7. Assemble the grounded prompt.
		contextString, sources := compose.BuildContext(passages, deps.Config.ContextBudget)
		messages := compose.BuildPrompt(deps.Config.SiteName, contextString, req.Message)

		// 8. Stream the answer. Temperature zero keeps answers pinned
		// to the context.
		setStreamingHeaders(c)
		temperature := float32(0)
		start := time.Now()
		w := &streamWriter{c: c, onFirstChunk: func() {
			deps.Metrics.TimeToFirstChunkSeconds.Observe(time.Since(start).Seconds())
		}}

		deps.Metrics.ActiveStreams.Inc()
		answer, streamErr := compose.StreamAnswer(ctx, deps.LLM, messages,
			llm.GenerationParams{Temperature: &temperature}, w)
		elapsed := time.Since(start)
		deps.Metrics.ActiveStreams.Dec()
		deps.Metrics.RecordStreamDuration(elapsed.Seconds(), streamErr == nil)

		if streamErr != nil {
			slog.Error("Streaming failed", "error", streamErr, "elapsed", elapsed)
			deps.Metrics.RecordError("llm")
			deps.Metrics.RecordRequest(observability.OutcomeError)
		} else {
			deps.Metrics.RecordRequest(observability.OutcomeAnswered)
		}
		slog.Info("Answer streamed", "docs", len(passages), "elapsed", elapsed)

		// 9. Log the turn after the response is closed. The logged
		// answer is the normalized accumulation, never the marker.
		logTurn(deps, datatypes.ChatTurn{
			UserId:            userId,
			Question:          req.Message,
			Answer:            compose.NormalizeAnswer(answer, deps.Config.SiteName),
			Queries:           queries,
			Sources:           sources,
			InjectionDetected: verdict.Injection,
			Kind:              datatypes.TurnKindQA,
		})
	}
}

// logTurn persists a turn without blocking the response path. Failures
// are logged and otherwise ignored.
func logTurn(deps ChatDeps, turn datatypes.ChatTurn) {
	if deps.Turns == nil {
		return
	}
	go func() {
		if err := deps.Turns.Log(turn); err != nil {
			slog.Error("Failed to log chat turn", "error", err)
			deps.Metrics.RecordError("store")
			return
		}
		deps.Metrics.RecordTurnLogged(string(turn.Kind))
	}()
}
