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
	"fmt"
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/sitechat/services/llm"
	"github.com/AleutianAI/sitechat/services/sitechat/datatypes"
)

var weaviateTracer = otel.Tracer("sitechat.retrieval.weaviate")

// WeaviateIndex retrieves site passages by vector similarity. Queries
// are embedded on the fly; the stored objects carry their own vectors
// from ingestion time.
type WeaviateIndex struct {
	client   *weaviate.Client
	embedder llm.Embedder
}

func NewWeaviateIndex(client *weaviate.Client, embedder llm.Embedder) *WeaviateIndex {
	return &WeaviateIndex{client: client, embedder: embedder}
}

// Retrieve implements the CorpusIndex interface. In diverse mode the
// query first runs with autocut to trim to natural relevance clusters;
// if that query fails for any reason it silently falls back to the
// plain nearVector search.
func (w *WeaviateIndex) Retrieve(ctx context.Context, query string, k int, diverse bool) ([]datatypes.RetrievedPassage, error) {
	ctx, span := weaviateTracer.Start(ctx, "WeaviateIndex.Retrieve")
	defer span.End()
	span.SetAttributes(
		attribute.String("retrieval.query", query),
		attribute.Int("retrieval.k", k),
		attribute.Bool("retrieval.diverse", diverse),
	)

	vector, err := w.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	if diverse {
		passages, err := w.search(ctx, vector, k, true)
		if err == nil {
			return passages, nil
		}
		slog.Debug("Autocut search failed, falling back to plain nearVector", "error", err)
	}
	return w.search(ctx, vector, k, false)
}

func (w *WeaviateIndex) search(ctx context.Context, vector []float32, k int, autocut bool) ([]datatypes.RetrievedPassage, error) {
	nearVector := w.client.GraphQL().NearVectorArgBuilder().WithVector(vector)

	builder := w.client.GraphQL().Get().
		WithClassName(datatypes.SitePassageClassName).
		WithNearVector(nearVector).
		WithLimit(k).
		WithFields(
			graphql.Field{Name: "content"},
			graphql.Field{Name: "url"},
			graphql.Field{Name: "_additional", Fields: []graphql.Field{{Name: "certainty"}}},
		)
	if autocut {
		builder = builder.WithAutocut(1)
	}

	result, err := builder.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate query failed: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("weaviate query returned errors: %v", result.Errors[0].Message)
	}

	return parseGetResponse(result.Data)
}

func parseGetResponse(data map[string]models.JSONObject) ([]datatypes.RetrievedPassage, error) {
	get, ok := data["Get"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected response shape: missing Get block")
	}
	items, ok := get[datatypes.SitePassageClassName].([]any)
	if !ok {
		// No matches returns null instead of an empty list.
		return nil, nil
	}

	passages := make([]datatypes.RetrievedPassage, 0, len(items))
	for _, raw := range items {
		obj, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		content, _ := obj["content"].(string)
		url, _ := obj["url"].(string)
		passages = append(passages, datatypes.RetrievedPassage{
			Content:   content,
			SourceURL: url,
		})
	}
	return passages, nil
}
