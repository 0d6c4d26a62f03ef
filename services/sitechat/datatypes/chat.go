// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes holds the wire and storage types shared across the
// sitechat service: chat requests, persisted chat turns, retrieved passages
// and the Weaviate schema bootstrap.
package datatypes

import "time"

// Message is a single chat message passed to an LLM backend.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /chat.
//
// UserId is a fallback identity only; the session cookie, when present and
// valid, always wins.
type ChatRequest struct {
	Message string `json:"message"`
	UserId  string `json:"userId,omitempty"`
}

// TurnKind distinguishes full question/answer turns from greeting fast paths.
type TurnKind string

const (
	TurnKindQA       TurnKind = "qa"
	TurnKindGreeting TurnKind = "greeting"
)

// SourceRef is one cited source URL attached to a logged turn.
type SourceRef struct {
	URL string `json:"url"`
}

// ChatTurn is the persisted record of one chat interaction. It is written
// exactly once per inbound request, after the response has been fully sent,
// and never mutated afterwards. The admin log viewer reads these.
type ChatTurn struct {
	Id                string      `json:"id"`
	UserId            string      `json:"userId,omitempty"`
	Question          string      `json:"question"`
	Answer            string      `json:"answer"`
	Queries           []string    `json:"queries"`
	Sources           []SourceRef `json:"sources"`
	InjectionDetected bool        `json:"injectionDetected"`
	Kind              TurnKind    `json:"kind"`
	CreatedAt         time.Time   `json:"createdAt"`
}
