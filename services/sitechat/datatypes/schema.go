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

import (
	"context"
	"log"
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// SitePassageClassName is the Weaviate class holding embedded site passages.
const SitePassageClassName = "SitePassage"

// GetSitePassageSchema returns the class definition for embedded site text.
// Vectors are supplied by the ingestion path, so the vectorizer stays off.
func GetSitePassageSchema() *models.Class {
	return &models.Class{
		Class:       SitePassageClassName,
		Description: "A chunk of text extracted from the trusted website, with its source URL.",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{
				Name:        "content",
				DataType:    []string{"text"},
				Description: "The passage text",
			},
			{
				Name:        "url",
				DataType:    []string{"text"},
				Description: "Canonical URL of the page the passage came from",
			},
			{
				Name:        "parent_url",
				DataType:    []string{"text"},
				Description: "URL of the whole page, before chunking",
			},
			{
				Name:        "ingested_at",
				DataType:    []string{"int"},
				Description: "Unix milliseconds timestamp of ingestion",
			},
		},
	}
}

// EnsureWeaviateSchema creates the SitePassage class if it does not exist.
// Called once at boot; a create failure is fatal because every retrieval
// would fail anyway.
func EnsureWeaviateSchema(client *weaviate.Client) {
	class := GetSitePassageSchema()
	slog.Info("Checking schema", "class", class.Class)

	_, err := client.Schema().ClassGetter().WithClassName(class.Class).Do(context.Background())
	if err != nil {
		// The client returns an error when the class is missing.
		slog.Info("Schema not found, creating it...", "class", class.Class)
		if err := client.Schema().ClassCreator().WithClass(class).Do(context.Background()); err != nil {
			log.Fatalf("Failed to create schema for class %s: %v", class.Class, err)
		}
		slog.Info("Successfully created schema", "class", class.Class)
		return
	}
	slog.Info("Schema already exists", "class", class.Class)
}
