package models

import (
	"crypto/sha256"
	"encoding/hex"
)

// Page is one crawled web page: its markdown content and where it came from.
// Title is best-effort and may be empty for non-HTML sources.
type Page struct {
	URL      string `json:"url"`
	Title    string `json:"title,omitempty"`
	Markdown string `json:"markdown"`
}

// PageID creates a deterministic ID from a page URL.
// The ID is the first 16 hex chars of the URL's SHA-256 hash.
func PageID(url string) string {
	hash := sha256.Sum256([]byte(url))
	return hex.EncodeToString(hash[:])[:16]
}
