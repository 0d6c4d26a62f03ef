// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

// RetrievedPassage is one chunk of site text returned by the corpus index.
// It is request-scoped: produced per query, merged and deduplicated by the
// retrieval engine, and discarded once the turn has been logged.
type RetrievedPassage struct {
	Content   string `json:"content"`
	SourceURL string `json:"source_url"`
}

// IngestDocumentRequest is the body of POST /api/admin/documents: the
// pre-extracted text of one site page plus its canonical URL.
type IngestDocumentRequest struct {
	Content string `json:"content"`
	URL     string `json:"url" binding:"required,url"`
}
