package model

import (
	"encoding/json"
	"strings"
)

// MaxCaptions is the fixed size of the social caption list requested from the
// copy generator. Longer responses are truncated.
const MaxCaptions = 5

// ListingCopy is the structured text payload produced for a kit: a long-form
// listing description, a short promotional summary, and social captions.
type ListingCopy struct {
	Description string   `json:"description"`
	Summary     string   `json:"summary"`
	Captions    []string `json:"captions,omitempty"`
}

// DecodeListingCopy parses raw model output into a ListingCopy. Model output
// is untrusted: it may be valid JSON, JSON wrapped in a markdown code fence,
// or free text. Unparseable output degrades into the long-form description
// field rather than failing, so a sloppy model response never aborts a job.
func DecodeListingCopy(raw string) ListingCopy {
	trimmed := strings.TrimSpace(raw)
	candidate := stripCodeFence(trimmed)

	var lc ListingCopy
	if err := json.Unmarshal([]byte(candidate), &lc); err == nil && lc.Description != "" {
		if len(lc.Captions) > MaxCaptions {
			lc.Captions = lc.Captions[:MaxCaptions]
		}
		return lc
	}

	// Degrade, don't fail: the raw text becomes the description.
	return ListingCopy{Description: trimmed}
}

// stripCodeFence removes a surrounding markdown code fence (``` or ```json).
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		// Drop the language tag line.
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
