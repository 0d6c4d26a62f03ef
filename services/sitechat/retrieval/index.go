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

	"github.com/AleutianAI/sitechat/services/sitechat/datatypes"
)

// CorpusIndex is the retrieval surface the engine fans out against.
// Implementations are expected to be safe for concurrent use.
type CorpusIndex interface {
	// Retrieve returns up to k passages relevant to query, most
	// relevant first. When diverse is set the implementation may apply
	// result-set diversification; it must still satisfy the same
	// contract if diversification is unavailable.
	Retrieve(ctx context.Context, query string, k int, diverse bool) ([]datatypes.RetrievedPassage, error)
}
