// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pdiddy/scholar-crawler/internal/httputil"
	"github.com/pdiddy/scholar-crawler/pkg/types"
)

// pdfSignature is the magic prefix every well-formed PDF starts with.
// Paywalled hosts commonly return HTTP 200 with an HTML "access denied"
// page, so the body is verified regardless of status and content type.
var pdfSignature = []byte("%PDF-")

// Fetcher downloads and verifies PDF documents.
type Fetcher struct {
	Client  *http.Client
	Limiter *rate.Limiter
	Config  types.FetchConfig
	Log     io.Writer
}

// NewFetcher builds a Fetcher with a redirect-following client and an
// optional shared politeness limiter.
func NewFetcher(cfg types.FetchConfig, w io.Writer) *Fetcher {
	f := &Fetcher{
		Client: &http.Client{Timeout: cfg.Timeout},
		Config: cfg,
		Log:    w,
	}
	if cfg.RateLimit > 0 {
		f.Limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return f
}

// Fetch downloads rawURL, verifies it is a PDF, and persists it under a
// sanitized name derived from title. It returns the saved path. Any failure
// is returned to the caller for outcome bookkeeping; it never aborts the
// batch.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, title string) (string, error) {
	if err := os.MkdirAll(f.Config.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	if f.Limiter != nil {
		if err := f.Limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, f.Config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.Config.UserAgent)
	req.Header.Set("Accept", "application/pdf,*/*")
	req.Header.Set("Referer", f.Config.Referer)

	resp, err := httputil.DoWithRetry(reqCtx, f.Client, req, f.Config.MaxRetries)
	if err != nil {
		return "", fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
	}

	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.Contains(ct, "pdf") && !strings.Contains(ct, "octet-stream") {
		return "", fmt.Errorf("unexpected content type %q from %s", ct, rawURL)
	}

	sig := make([]byte, len(pdfSignature))
	if _, err := io.ReadFull(resp.Body, sig); err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}
	if !bytes.Equal(sig, pdfSignature) {
		return "", fmt.Errorf("body from %s is not a PDF (starts %q)", rawURL, sig)
	}

	destPath := f.destPath(title, rawURL)

	// Write to a temp file and rename so a failed download never leaves a
	// truncated PDF at the final path.
	tmpFile, err := os.CreateTemp(f.Config.OutputDir, ".fetch-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(sig)
	if writeErr == nil {
		_, writeErr = io.Copy(tmpFile, resp.Body)
	}
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing download: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming temp file: %w", err)
	}
	return destPath, nil
}

// destPath picks the output filename. When two distinct titles sanitize to
// the same stem, the later download gets a source-URL hash suffix instead
// of silently overwriting the earlier one.
func (f *Fetcher) destPath(title, rawURL string) string {
	base := SafeName(title)
	dest := filepath.Join(f.Config.OutputDir, base+".pdf")
	if _, err := os.Stat(dest); err == nil {
		dest = filepath.Join(f.Config.OutputDir, base+"-"+shortHash(rawURL)+".pdf")
	}
	return dest
}
