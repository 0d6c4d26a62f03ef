// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package retrieval

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/sitechat/services/sitechat/datatypes"
)

var engineTracer = otel.Tracer("sitechat.retrieval.engine")

// dedupPrefixLen is how many leading content characters participate in
// the duplicate key alongside the URL.
const dedupPrefixLen = 80

// Engine fans expanded queries out against a CorpusIndex concurrently
// and merges the results deterministically.
type Engine struct {
	index         CorpusIndex
	trustedPrefix string
	retrieveK     int
	maxPassages   int
}

func NewEngine(index CorpusIndex, trustedPrefix string, retrieveK, maxPassages int) *Engine {
	if maxPassages < retrieveK {
		maxPassages = retrieveK
	}
	return &Engine{
		index:         index,
		trustedPrefix: trustedPrefix,
		retrieveK:     retrieveK,
		maxPassages:   maxPassages,
	}
}

// Retrieve runs every query in parallel and merges results in query
// order, so output is deterministic regardless of completion order.
// Individual query failures are logged and skipped; the merged list
// is filtered to trusted URLs, deduplicated, and capped. The second
// return value counts passages before filtering, for logging.
func (e *Engine) Retrieve(ctx context.Context, queries []string, diverse bool) ([]datatypes.RetrievedPassage, int) {
	ctx, span := engineTracer.Start(ctx, "Engine.Retrieve")
	defer span.End()
	span.SetAttributes(attribute.Int("retrieval.query_count", len(queries)))

	// Results land in a pre-sized slice indexed by query position, so
	// no ordering depends on goroutine scheduling.
	perQuery := make([][]datatypes.RetrievedPassage, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	for i, query := range queries {
		g.Go(func() error {
			passages, err := e.index.Retrieve(gctx, query, e.retrieveK, diverse)
			if err != nil {
				slog.Warn("Retrieval query failed, continuing without it", "query", query, "error", err)
				return nil
			}
			perQuery[i] = passages
			return nil
		})
	}
	// Workers never return errors; Wait is just the join point.
	_ = g.Wait()

	rawCount := 0
	for _, passages := range perQuery {
		rawCount += len(passages)
	}

	seen := make(map[string]struct{})
	merged := make([]datatypes.RetrievedPassage, 0, e.maxPassages)
merge:
	for _, passages := range perQuery {
		for _, p := range passages {
			if strings.TrimSpace(p.Content) == "" {
				continue
			}
			if !strings.HasPrefix(p.SourceURL, e.trustedPrefix) {
				continue
			}
			key := dedupKey(p)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, p)
			if len(merged) >= e.maxPassages {
				break merge
			}
		}
	}
	span.SetAttributes(attribute.Int("retrieval.merged_count", len(merged)))
	return merged, rawCount
}

func dedupKey(p datatypes.RetrievedPassage) string {
	prefix := p.Content
	if len(prefix) > dedupPrefixLen {
		prefix = prefix[:dedupPrefixLen]
	}
	return p.SourceURL + "|" + prefix
}
