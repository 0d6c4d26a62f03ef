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
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	"github.com/AleutianAI/sitechat/services/llm"
	"github.com/AleutianAI/sitechat/services/sitechat/datatypes"
)

// shortEmbedder records what it was asked to embed and returns one
// vector too few, to exercise the count-mismatch guard.
type shortEmbedder struct {
	texts []string
}

func (e *shortEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1}, nil
}

func (e *shortEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.texts = append(e.texts, texts...)
	out := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts)-1; i++ {
		out = append(out, []float32{0.1})
	}
	return out, nil
}

func ingestRouter(deps IngestDeps) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/admin/documents", HandleIngestDocuments(deps))
	return router
}

func postDocuments(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/documents", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSkippableURL(t *testing.T) {
	cases := []struct {
		url  string
		skip bool
	}{
		{"https://www.zibtek.com/services", false},
		{"https://www.zibtek.com/blog/how-we-test", true},
		{"https://www.zibtek.com/Blog/post", true},
		{"https://www.zibtek.com/brochure.pdf", true},
		{"https://www.zibtek.com/brochure.PDF", true},
		{"https://www.zibtek.com/pdf-guides", false},
		{"https://www.zibtek.com/weblog", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.skip, skippableURL(tc.url), tc.url)
	}
}

func TestChunkID_Deterministic(t *testing.T) {
	a := chunkID("https://www.zibtek.com/services", "Some passage text")
	b := chunkID("https://www.zibtek.com/services", "Some passage text")
	assert.Equal(t, a, b)
	assert.Len(t, string(a), 36)

	assert.NotEqual(t, a, chunkID("https://www.zibtek.com/services", "Other text"))
	assert.NotEqual(t, a, chunkID("https://www.zibtek.com/about", "Some passage text"))
}

func TestIngestPage_DropsShortChunks(t *testing.T) {
	embedder := &llm.MockEmbedder{Vector: []float32{0.1}}
	deps := IngestDeps{Embedder: embedder}

	created, err := ingestPage(context.Background(), deps, datatypes.IngestDocumentRequest{
		URL:     "https://www.zibtek.com/contact",
		Content: "Call us today.",
	})
	require.NoError(t, err)
	assert.Zero(t, created)
	// Everything was below the minimum chunk length, so no embedding
	// round trip happens.
	assert.Zero(t, embedder.Calls)
}

func TestIngestPage_EmbeddingCountMismatch(t *testing.T) {
	embedder := &shortEmbedder{}
	deps := IngestDeps{Embedder: embedder}

	content := strings.Repeat("Zibtek provides custom software development services. ", 10)
	_, err := ingestPage(context.Background(), deps, datatypes.IngestDocumentRequest{
		URL:     "https://www.zibtek.com/services",
		Content: content,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatched vector count")

	// Only chunks that survived the minimum-length filter reached the
	// embedder.
	require.NotEmpty(t, embedder.texts)
	for _, text := range embedder.texts {
		assert.GreaterOrEqual(t, len(strings.TrimSpace(text)), minChunkChars)
	}
}

func TestIngestDocuments_LightweightModeRejects(t *testing.T) {
	router := ingestRouter(IngestDeps{})
	w := postDocuments(t, router, `{"documents":[{"url":"https://www.zibtek.com/services","content":"text"}]}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestIngestDocuments_Validation(t *testing.T) {
	client, err := weaviate.NewClient(weaviate.Config{Host: "localhost:1", Scheme: "http"})
	require.NoError(t, err)
	router := ingestRouter(IngestDeps{
		Weaviate: client,
		Embedder: &llm.MockEmbedder{Vector: []float32{0.1}},
	})

	assert.Equal(t, http.StatusBadRequest, postDocuments(t, router, `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, postDocuments(t, router, `{"documents":[]}`).Code)
	assert.Equal(t, http.StatusBadRequest, postDocuments(t, router, `{"documents":[{"content":"no url"}]}`).Code)
	assert.Equal(t, http.StatusBadRequest, postDocuments(t, router, `{"documents":[{"url":"not a url","content":"x"}]}`).Code)
}

func TestIngestDocuments_SkipsBlogAndPDF(t *testing.T) {
	client, err := weaviate.NewClient(weaviate.Config{Host: "localhost:1", Scheme: "http"})
	require.NoError(t, err)
	embedder := &llm.MockEmbedder{Vector: []float32{0.1}}
	router := ingestRouter(IngestDeps{Weaviate: client, Embedder: embedder})

	w := postDocuments(t, router,
		`{"documents":[`+
			`{"url":"https://www.zibtek.com/blog/post","content":"blog text"},`+
			`{"url":"https://www.zibtek.com/brochure.pdf","content":"pdf text"},`+
			`{"url":"https://www.zibtek.com/empty","content":"   "}`+
			`]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pagesProcessed":0`)
	assert.Contains(t, w.Body.String(), `"pagesSkipped":3`)
	assert.Contains(t, w.Body.String(), `"chunksCreated":0`)
	// Skipped pages never reach the embedder or the index.
	assert.Zero(t, embedder.Calls)
}
