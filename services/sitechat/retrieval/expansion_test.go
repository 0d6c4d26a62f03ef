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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandQueries_VerbatimFirst(t *testing.T) {
	queries := ExpandQueries("what is your QA process?", "Zibtek")

	assert.Equal(t, "what is your QA process?", queries[0])
	assert.Contains(t, queries, "Zibtek quality assurance")
	assert.Contains(t, queries, "Zibtek QA services")
	assert.Contains(t, queries, "Zibtek software testing")
	assert.Contains(t, queries, "Zibtek quality control")
	// Also trips the process rule.
	assert.Contains(t, queries, "Zibtek delivery process")
}

func TestExpandQueries_NoRuleMatch(t *testing.T) {
	queries := ExpandQueries("where are your offices?", "Zibtek")
	assert.Equal(t, []string{"where are your offices?"}, queries)
}

func TestExpandQueries_AboutRule(t *testing.T) {
	queries := ExpandQueries("tell me something", "Zibtek")
	assert.Equal(t, []string{
		"tell me something",
		"About Zibtek",
		"Zibtek overview",
	}, queries)
}

func TestExpandQueries_CaseInsensitiveDedup(t *testing.T) {
	// The verbatim question collides case-insensitively with a canned
	// expansion; the verbatim form wins and order is preserved.
	queries := ExpandQueries("about zibtek", "Zibtek")
	assert.Equal(t, []string{
		"about zibtek",
		"Zibtek overview",
	}, queries)
}

func TestExpandQueries_TrimsWhitespace(t *testing.T) {
	queries := ExpandQueries("  hello there  ", "Zibtek")
	assert.Equal(t, "hello there", queries[0])
}
