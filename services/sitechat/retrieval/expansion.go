// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package retrieval turns one user question into a small set of search
// queries, fans them out against the passage index, and merges the
// results into a deterministic, trusted, deduplicated passage list.
package retrieval

import (
	"regexp"
	"strings"
)

// expansionRule appends canned site-flavored queries when the user's
// question touches a known topic.
type expansionRule struct {
	trigger *regexp.Regexp
	queries []string
}

func siteRules(siteName string) []expansionRule {
	return []expansionRule{
		{
			trigger: regexp.MustCompile(`(?i)quality|qa|qc|testing`),
			queries: []string{
				siteName + " quality assurance",
				siteName + " QA services",
				siteName + " software testing",
				siteName + " quality control",
			},
		},
		{
			trigger: regexp.MustCompile(`(?i)efficien|process|delivery|speed|agile`),
			queries: []string{
				siteName + " agile process",
				siteName + " delivery process",
				siteName + " efficiency practices",
				siteName + " best practices",
			},
		},
		{
			trigger: regexp.MustCompile(`(?i)about|overview|tell me`),
			queries: []string{
				"About " + siteName,
				siteName + " overview",
			},
		},
	}
}

// ExpandQueries returns the verbatim question first, followed by any
// rule-derived queries. Duplicates are removed case-insensitively with
// first occurrence winning, so the verbatim question always survives.
func ExpandQueries(question, siteName string) []string {
	question = strings.TrimSpace(question)
	candidates := []string{question}
	for _, rule := range siteRules(siteName) {
		if rule.trigger.MatchString(question) {
			candidates = append(candidates, rule.queries...)
		}
	}

	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, q := range candidates {
		key := strings.ToLower(q)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, q)
	}
	return out
}
