// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/AleutianAI/sitechat/services/llm"
	"github.com/AleutianAI/sitechat/services/sitechat/datatypes"
)

const (
	chunkSize    = 1000
	chunkOverlap = 100

	// minChunkChars drops boilerplate fragments (nav links, footers)
	// that are too short to ground an answer.
	minChunkChars = 50
)

// IngestDeps bundles what the ingestion endpoint needs.
type IngestDeps struct {
	Weaviate *weaviate.Client
	Embedder llm.Embedder
}

type ingestRequest struct {
	Documents []datatypes.IngestDocumentRequest `json:"documents" binding:"required,min=1,dive"`
}

// skippableURL filters page types that pollute retrieval: blog posts
// drift off-topic and PDF extractions are too noisy.
func skippableURL(url string) bool {
	lower := strings.ToLower(url)
	return strings.Contains(lower, "/blog") || strings.HasSuffix(lower, ".pdf")
}

func pageSplitter() textsplitter.TextSplitter {
	return textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
	)
}

// chunkID derives a stable object id from the page URL and chunk text,
// so re-ingesting a page upserts instead of duplicating.
func chunkID(url, chunk string) strfmt.UUID {
	hash := sha256.Sum256([]byte(url + "|" + chunk))
	objUUID, _ := uuid.FromBytes(hash[:16])
	return strfmt.UUID(objUUID.String())
}

// HandleIngestDocuments returns the POST /api/admin/documents handler.
// The body carries pre-extracted page text; each page is chunked,
// embedded in one batch, and imported with deterministic ids so
// re-ingesting a page overwrites instead of duplicating.
func HandleIngestDocuments(deps IngestDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps.Weaviate == nil || deps.Embedder == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Ingestion requires a configured vector index"})
			return
		}

		var req ingestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Body must contain a non-empty documents array"})
			return
		}

		pagesProcessed := 0
		pagesSkipped := 0
		chunksCreated := 0
		for _, doc := range req.Documents {
			if skippableURL(doc.URL) || strings.TrimSpace(doc.Content) == "" {
				pagesSkipped++
				continue
			}
			created, err := ingestPage(c.Request.Context(), deps, doc)
			if err != nil {
				slog.Error("Failed to ingest page", "url", doc.URL, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{
					"error":     fmt.Sprintf("Failed to ingest %s", doc.URL),
					"processed": pagesProcessed,
				})
				return
			}
			pagesProcessed++
			chunksCreated += created
		}

		slog.Info("Ingestion complete",
			"pages", pagesProcessed, "skipped", pagesSkipped, "chunks", chunksCreated)
		c.JSON(http.StatusOK, gin.H{
			"pagesProcessed": pagesProcessed,
			"pagesSkipped":   pagesSkipped,
			"chunksCreated":  chunksCreated,
		})
	}
}

func ingestPage(ctx context.Context, deps IngestDeps, doc datatypes.IngestDocumentRequest) (int, error) {
	chunks, err := pageSplitter().SplitText(doc.Content)
	if err != nil {
		return 0, fmt.Errorf("failed to split page text: %w", err)
	}

	kept := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if len(strings.TrimSpace(chunk)) < minChunkChars {
			continue
		}
		kept = append(kept, chunk)
	}
	if len(kept) == 0 {
		return 0, nil
	}

	vectors, err := deps.Embedder.EmbedBatch(ctx, kept)
	if err != nil {
		return 0, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(kept) {
		return 0, fmt.Errorf("embedding service returned mismatched vector count")
	}

	objects := make([]*models.Object, len(kept))
	for i, chunk := range kept {
		objects[i] = &models.Object{
			Class:  datatypes.SitePassageClassName,
			ID:     chunkID(doc.URL, chunk),
			Vector: vectors[i],
			Properties: map[string]interface{}{
				"content":     chunk,
				"url":         fmt.Sprintf("%s#part_%d", doc.URL, i+1),
				"parent_url":  doc.URL,
				"ingested_at": time.Now().UnixMilli(),
			},
		}
	}

	resp, err := deps.Weaviate.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to save objects to index: %w", err)
	}

	created := 0
	for _, item := range resp {
		if item.Result != nil && item.Result.Status != nil && *item.Result.Status == "SUCCESS" {
			created++
			continue
		}
		if item.Result != nil && item.Result.Errors != nil {
			for _, errItem := range item.Result.Errors.Error {
				slog.Warn("Batch item failed", "url", doc.URL, "error", errItem.Message)
			}
		}
	}
	return created, nil
}
