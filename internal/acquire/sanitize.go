// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire resolves a download strategy per paper record, performs
// verified concurrent PDF downloads, and aggregates per-item outcomes into
// a batch summary.
package acquire

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"
)

// maxNameLen bounds the filename stem so titles cannot overflow path limits.
const maxNameLen = 80

var (
	unsafeChars   = regexp.MustCompile(`[^A-Za-z0-9 _-]`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// SafeName derives a filesystem-safe filename stem from a paper title:
// characters outside [A-Za-z0-9 _-] are stripped, whitespace runs collapse
// to a single underscore, and the result is truncated to 80 characters.
// The transformation is idempotent.
func SafeName(title string) string {
	s := unsafeChars.ReplaceAllString(title, "")
	s = whitespaceRun.ReplaceAllString(strings.TrimSpace(s), "_")
	if len(s) > maxNameLen {
		s = s[:maxNameLen]
	}
	if s == "" {
		return "paper"
	}
	return s
}

// shortHash returns an 8-hex-digit digest of s, used to disambiguate
// distinct papers whose titles sanitize to the same stem.
func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", sum[:4])
}
