// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package safety classifies incoming chat messages before any model or
// index is touched: pure greetings get a canned reply, and messages
// carrying prompt-injection phrasing are flagged for refusal.
package safety

import (
	"regexp"
	"strings"
)

// greetingPatterns match messages that are a social opener and nothing
// else. Anchored on both ends so "hi, what does Zibtek do?" is not a
// greeting.
var greetingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(hi|hello|hey|yo|hiya|sup)[!.\s]*$`),
	regexp.MustCompile(`(?i)^good\s*(morning|afternoon|evening|day)[!.\s]*$`),
	regexp.MustCompile(`(?i)^how\s*are\s*you\??\s*$`),
	regexp.MustCompile(`(?i)^(hi|hello|hey)[,\s]*how\s*are\s*you\??\s*$`),
	regexp.MustCompile(`(?i)^what's\s*up\??\s*$`),
}

// injectionPatterns match attempts to steer the model away from the
// retrieved context. Matched anywhere in the message.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(the\s+)?previous`),
	regexp.MustCompile(`(?i)disregard\s+(earlier|above|previous)`),
	regexp.MustCompile(`(?i)do\s+not\s+use\s+context`),
	regexp.MustCompile(`(?i)no\s+need\s+to\s+look\s+into\s+(the\s+)?provided\s+context`),
	regexp.MustCompile(`(?i)answer\s+from\s+(your\s+)?own\s+knowledge`),
	regexp.MustCompile(`(?i)forget.*context`),
	regexp.MustCompile(`(?i)bypass`),
	regexp.MustCompile(`(?i)override\s+instructions?`),
}

// Verdict is the outcome of classifying one message.
type Verdict struct {
	// Greeting means the message is a pure social opener.
	Greeting bool
	// Injection means the message carries instruction-override phrasing.
	Injection bool
}

// IsGreeting reports whether the trimmed message matches a greeting
// pattern exactly.
func IsGreeting(message string) bool {
	trimmed := strings.TrimSpace(message)
	for _, p := range greetingPatterns {
		if p.MatchString(trimmed) {
			return true
		}
	}
	return false
}

// DetectInjection reports whether any injection pattern occurs in the
// message.
func DetectInjection(message string) bool {
	for _, p := range injectionPatterns {
		if p.MatchString(message) {
			return true
		}
	}
	return false
}

// Classify runs both checks. Greeting wins: a greeting is answered
// directly and never reaches the injection path.
func Classify(message string) Verdict {
	if IsGreeting(message) {
		return Verdict{Greeting: true}
	}
	return Verdict{Injection: DetectInjection(message)}
}
