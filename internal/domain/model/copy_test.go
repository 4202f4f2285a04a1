package model

import "testing"

func TestDecodeListingCopyJSON(t *testing.T) {
	raw := `{"description":"A charming 3BR home.","summary":"Charming 3BR","captions":["one","two"]}`
	lc := DecodeListingCopy(raw)
	if lc.Description != "A charming 3BR home." {
		t.Errorf("description = %q", lc.Description)
	}
	if lc.Summary != "Charming 3BR" {
		t.Errorf("summary = %q", lc.Summary)
	}
	if len(lc.Captions) != 2 {
		t.Errorf("captions = %v", lc.Captions)
	}
}

func TestDecodeListingCopyCodeFence(t *testing.T) {
	raw := "```json\n{\"description\":\"Fenced.\",\"summary\":\"s\"}\n```"
	lc := DecodeListingCopy(raw)
	if lc.Description != "Fenced." || lc.Summary != "s" {
		t.Errorf("got %+v", lc)
	}
}

func TestDecodeListingCopyDegradesOnFreeText(t *testing.T) {
	raw := "Welcome to 123 Main St, a lovely home."
	lc := DecodeListingCopy(raw)
	if lc.Description != raw {
		t.Errorf("description = %q, want raw text", lc.Description)
	}
	if lc.Summary != "" || len(lc.Captions) != 0 {
		t.Errorf("summary/captions should be empty on degraded parse, got %+v", lc)
	}
}

func TestDecodeListingCopyDegradesOnMalformedJSON(t *testing.T) {
	lc := DecodeListingCopy(`{"description": "broken`)
	if lc.Description == "" {
		t.Error("degraded parse must preserve the raw text")
	}
}

func TestDecodeListingCopyTruncatesCaptions(t *testing.T) {
	raw := `{"description":"d","summary":"s","captions":["1","2","3","4","5","6","7"]}`
	lc := DecodeListingCopy(raw)
	if len(lc.Captions) != MaxCaptions {
		t.Errorf("captions = %d, want %d", len(lc.Captions), MaxCaptions)
	}
}
