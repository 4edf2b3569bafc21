// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the scholar-crawler pipeline.
package types

import "time"

// AcquisitionMethod identifies the strategy that produced a download.
type AcquisitionMethod string

const (
	// MethodDirectLink means the PDF was fetched from a link surfaced
	// directly in the results listing.
	MethodDirectLink AcquisitionMethod = "direct_link"

	// MethodPageScan means the PDF link was found by visiting the paper's
	// landing page and scanning its markup.
	MethodPageScan AcquisitionMethod = "page_scan"

	// MethodNone means no strategy yielded a document.
	MethodNone AcquisitionMethod = "none"
)

// PaperRecord is one search result extracted from a rendered results page.
// Records are created once per parse cycle and never mutated afterwards.
// Empty string fields mean the value was absent from the page.
type PaperRecord struct {
	// Title is the result title, or the "Unknown Title" sentinel when the
	// title anchor could not be parsed.
	Title string `json:"title" yaml:"title"`

	// AuthorsVenue is the free-text author/venue metadata line.
	AuthorsVenue string `json:"authors_venue,omitempty" yaml:"authors_venue,omitempty"`

	// PaperPageURL links to the paper's landing page.
	PaperPageURL string `json:"paper_page_url,omitempty" yaml:"paper_page_url,omitempty"`

	// DirectPDFURL is a link the parser judged to point directly at a PDF.
	DirectPDFURL string `json:"direct_pdf_url,omitempty" yaml:"direct_pdf_url,omitempty"`
}

// AcquisitionOutcome is the result of attempting to obtain one paper's
// document. Downloaded implies SavedPath is set and Method is not MethodNone.
type AcquisitionOutcome struct {
	// Title is copied from the PaperRecord.
	Title string `json:"title" yaml:"title"`

	// Downloaded reports whether a verified PDF was written to disk.
	Downloaded bool `json:"downloaded" yaml:"downloaded"`

	// SavedPath is the local path of the downloaded PDF, empty on failure.
	SavedPath string `json:"saved_path,omitempty" yaml:"saved_path,omitempty"`

	// Method records which acquisition strategy succeeded.
	Method AcquisitionMethod `json:"method" yaml:"method"`

	// Reason holds the local failure cause for reporting, empty on success.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// CrawlSummary is the aggregate report for one batch run, derived purely
// from the outcome list.
type CrawlSummary struct {
	// TotalFound is the number of records extracted from the results page.
	TotalFound int `json:"total_found" yaml:"total_found"`

	// TotalDownloaded is the number of outcomes with Downloaded == true.
	TotalDownloaded int `json:"total_downloaded" yaml:"total_downloaded"`

	// TotalFailed is the number of outcomes with Downloaded == false.
	TotalFailed int `json:"total_failed" yaml:"total_failed"`

	// Outcomes lists per-record outcomes in results-page order.
	Outcomes []AcquisitionOutcome `json:"outcomes" yaml:"outcomes"`

	// Elapsed is the wall-clock duration from batch start to all-settled.
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Valid reports whether the summary counts are internally consistent.
func (s CrawlSummary) Valid() bool {
	if s.TotalDownloaded+s.TotalFailed != len(s.Outcomes) {
		return false
	}
	return s.TotalDownloaded <= s.TotalFound
}
