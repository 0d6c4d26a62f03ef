// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sitechat/pkg/ux"
	"github.com/AleutianAI/sitechat/services/sitechat/datatypes"
)

// ingestBatchSize keeps each request small enough that one failed page
// doesn't throw away a whole crawl's worth of work.
const ingestBatchSize = 25

type ingestResponse struct {
	PagesProcessed int `json:"pagesProcessed"`
	PagesSkipped   int `json:"pagesSkipped"`
	ChunksCreated  int `json:"chunksCreated"`
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <pages.json>",
	Short: "Ingest crawled site pages into the vector index",
	Long: "Reads a JSON file of crawled pages ([{\"url\": ..., \"content\": ...}]) and uploads\n" +
		"them to the server's ingestion endpoint in batches. Requires admin credentials.",
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading pages file: %w", err)
	}
	var pages []datatypes.IngestDocumentRequest
	if err := json.Unmarshal(raw, &pages); err != nil {
		return fmt.Errorf("parsing pages file: %w", err)
	}
	if len(pages) == 0 {
		return fmt.Errorf("pages file contains no documents")
	}

	client, err := newAPIClient(config.ServerURL)
	if err != nil {
		return err
	}
	if err := client.login(config.AdminEmail, config.AdminPassword); err != nil {
		return err
	}

	ux.Title(fmt.Sprintf("Ingesting %d pages into %s", len(pages), config.ServerURL))

	totals := ingestResponse{}
	for start := 0; start < len(pages); start += ingestBatchSize {
		end := start + ingestBatchSize
		if end > len(pages) {
			end = len(pages)
		}
		var resp ingestResponse
		err := client.postJSON("/api/admin/documents",
			map[string]any{"documents": pages[start:end]}, &resp)
		if err != nil {
			ux.Error(fmt.Sprintf("Batch %d-%d failed: %v", start+1, end, err))
			return err
		}
		totals.PagesProcessed += resp.PagesProcessed
		totals.PagesSkipped += resp.PagesSkipped
		totals.ChunksCreated += resp.ChunksCreated
		ux.Info(fmt.Sprintf("Batch %d-%d: %d pages, %d chunks", start+1, end, resp.PagesProcessed, resp.ChunksCreated))
	}

	ux.Success(fmt.Sprintf("Done: %d pages processed, %d skipped, %d chunks created",
		totals.PagesProcessed, totals.PagesSkipped, totals.ChunksCreated))
	return nil
}
