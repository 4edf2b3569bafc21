// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pdiddy/scholar-crawler/pkg/types"
)

// FormatSummary writes a human-readable batch report to w.
func FormatSummary(s types.CrawlSummary, w io.Writer) {
	fmt.Fprintf(w, "\nFound %d result(s), attempted %d.\n", s.TotalFound, len(s.Outcomes))

	for i, out := range s.Outcomes {
		if out.Downloaded {
			fmt.Fprintf(w, "%2d. ok:     %s (%s) -> %s\n", i+1, out.Title, out.Method, out.SavedPath)
			continue
		}
		reason := out.Reason
		if reason == "" {
			reason = "no PDF found"
		}
		fmt.Fprintf(w, "%2d. failed: %s (%s)\n", i+1, out.Title, reason)
	}

	fmt.Fprintf(w, "\nDownloaded %d, failed %d in %.1fs.\n",
		s.TotalDownloaded, s.TotalFailed, s.Elapsed.Seconds())
}

// FormatJSON writes the summary as indented JSON to w.
func FormatJSON(s types.CrawlSummary, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
