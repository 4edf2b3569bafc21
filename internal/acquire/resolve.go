// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/scholar-crawler/pkg/types"
)

// Snapshotter captures a page's rendered HTML in an isolated browsing
// context that is released before the call returns. internal/browser
// provides the chromedp implementation.
type Snapshotter interface {
	Snapshot(url string) (string, error)
}

// pdfScanSelectors are tried in order against a paper's landing page. The
// host markup is external and changes independently of this tool, so the
// list is configuration, not contract.
var pdfScanSelectors = []string{
	`a[href$=".pdf"]`,
	`a[href*="/pdf/"]`,
	`a[href*="=pdf"]`,
	`a[href*="filetype=pdf"]`,
	`a.pdf-link`,
	`a[data-format="pdf"]`,
}

// Resolver decides and executes an acquisition strategy for one record.
type Resolver struct {
	Fetcher *Fetcher
	Pages   Snapshotter
	Log     io.Writer
}

// Resolve attempts the direct link first (cheaper and more reliable when
// present), then falls back to visiting the paper page and scanning it for
// a PDF link. All failures are local: the returned outcome is negative and
// no error escapes to abort sibling units.
func (r *Resolver) Resolve(ctx context.Context, rec types.PaperRecord) types.AcquisitionOutcome {
	out := types.AcquisitionOutcome{Title: rec.Title, Method: types.MethodNone}

	if rec.DirectPDFURL != "" {
		path, err := r.Fetcher.Fetch(ctx, rec.DirectPDFURL, rec.Title)
		if err == nil {
			out.Downloaded = true
			out.SavedPath = path
			out.Method = types.MethodDirectLink
			r.writeSidecar(rec, rec.DirectPDFURL, out)
			fmt.Fprintf(r.Log, "downloaded: %q (direct link)\n", rec.Title)
			return out
		}
		out.Reason = err.Error()
		fmt.Fprintf(r.Log, "direct link failed for %q: %v\n", rec.Title, err)
	}

	if rec.PaperPageURL == "" {
		if out.Reason == "" {
			out.Reason = "no download source in record"
		}
		return out
	}

	html, err := r.Pages.Snapshot(rec.PaperPageURL)
	if err != nil {
		// Navigation failure is "no PDF found", not a fatal error.
		out.Reason = fmt.Sprintf("paper page unreachable: %v", err)
		fmt.Fprintf(r.Log, "paper page unreachable for %q: %v\n", rec.Title, err)
		return out
	}

	pdfURL := FindPDFLink(html, rec.PaperPageURL)
	if pdfURL == "" {
		out.Reason = "no PDF link on paper page"
		return out
	}

	path, err := r.Fetcher.Fetch(ctx, pdfURL, rec.Title)
	if err != nil {
		out.Reason = err.Error()
		fmt.Fprintf(r.Log, "page-scan fetch failed for %q: %v\n", rec.Title, err)
		return out
	}

	out.Downloaded = true
	out.SavedPath = path
	out.Method = types.MethodPageScan
	out.Reason = ""
	r.writeSidecar(rec, pdfURL, out)
	fmt.Fprintf(r.Log, "downloaded: %q (page scan)\n", rec.Title)
	return out
}

// FindPDFLink scans a landing page's HTML for a PDF URL, trying the
// structural selectors in order before falling back to any anchor whose
// href contains ".pdf". Relative hrefs are resolved against pageURL. An
// empty return means no candidate was found.
func FindPDFLink(html, pageURL string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	for _, sel := range pdfScanSelectors {
		if href, ok := doc.Find(sel).First().Attr("href"); ok {
			return absoluteURL(href, pageURL)
		}
	}

	var fallback string
	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok || !strings.Contains(strings.ToLower(href), ".pdf") {
			return true
		}
		fallback = absoluteURL(href, pageURL)
		return false
	})
	return fallback
}

// absoluteURL resolves href against base, returning href unchanged when
// either side fails to parse.
func absoluteURL(href, base string) string {
	bu, err := url.Parse(base)
	if err != nil {
		return href
	}
	hu, err := url.Parse(href)
	if err != nil {
		return href
	}
	return bu.ResolveReference(hu).String()
}

// sidecar is the YAML metadata record written next to each downloaded PDF.
type sidecar struct {
	Title        string                  `yaml:"title"`
	AuthorsVenue string                  `yaml:"authors_venue,omitempty"`
	PaperPageURL string                  `yaml:"paper_page_url,omitempty"`
	SourceURL    string                  `yaml:"source_url"`
	Method       types.AcquisitionMethod `yaml:"method"`
	FetchedAt    time.Time               `yaml:"fetched_at"`
}

// writeSidecar records where a PDF came from. Best-effort: a sidecar
// failure is logged, never propagated.
func (r *Resolver) writeSidecar(rec types.PaperRecord, sourceURL string, out types.AcquisitionOutcome) {
	meta := sidecar{
		Title:        rec.Title,
		AuthorsVenue: rec.AuthorsVenue,
		PaperPageURL: rec.PaperPageURL,
		SourceURL:    sourceURL,
		Method:       out.Method,
		FetchedAt:    time.Now().UTC(),
	}
	data, err := yaml.Marshal(meta)
	if err != nil {
		fmt.Fprintf(r.Log, "warning: marshaling metadata for %q: %v\n", rec.Title, err)
		return
	}
	path := strings.TrimSuffix(out.SavedPath, filepath.Ext(out.SavedPath)) + ".yaml"
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fmt.Fprintf(r.Log, "warning: writing metadata for %q: %v\n", rec.Title, err)
	}
}
