// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package compose assembles the grounded prompt from retrieved
// passages and streams the model's answer back to the client.
package compose

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/sitechat/services/sitechat/datatypes"
)

// blockSeparator joins numbered context blocks.
const blockSeparator = "\n\n---\n\n"

// BuildContext renders passages as numbered source blocks and joins
// them under the budget. Blocks are added whole, in order; the first
// block that would push the total past budget characters stops
// assembly. The returned slice holds the URLs of the included blocks,
// in order.
func BuildContext(passages []datatypes.RetrievedPassage, budget int) (string, []datatypes.SourceRef) {
	var sb strings.Builder
	var sources []datatypes.SourceRef

	for i, p := range passages {
		block := fmt.Sprintf("[#%d] %s\n%s", i+1, p.SourceURL, p.Content)
		extra := len(block)
		if sb.Len() > 0 {
			extra += len(blockSeparator)
		}
		if sb.Len()+extra > budget {
			break
		}
		if sb.Len() > 0 {
			sb.WriteString(blockSeparator)
		}
		sb.WriteString(block)
		sources = append(sources, datatypes.SourceRef{URL: p.SourceURL})
	}
	return sb.String(), sources
}
