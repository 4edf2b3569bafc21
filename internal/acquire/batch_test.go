// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scholar-crawler/pkg/types"
)

// countingResolver records which titles were attempted and returns scripted
// outcomes.
type countingResolver struct {
	mu        sync.Mutex
	attempted []string
	succeed   map[string]bool
}

func (c *countingResolver) Resolve(_ context.Context, rec types.PaperRecord) types.AcquisitionOutcome {
	c.mu.Lock()
	c.attempted = append(c.attempted, rec.Title)
	c.mu.Unlock()

	out := types.AcquisitionOutcome{Title: rec.Title, Method: types.MethodNone}
	if c.succeed[rec.Title] {
		out.Downloaded = true
		out.SavedPath = "/tmp/" + SafeName(rec.Title) + ".pdf"
		out.Method = types.MethodDirectLink
	} else {
		out.Reason = "scripted failure"
	}
	return out
}

func makeRecords(n int) []types.PaperRecord {
	records := make([]types.PaperRecord, n)
	for i := range records {
		records[i] = types.PaperRecord{Title: fmt.Sprintf("Paper %d", i+1)}
	}
	return records
}

func TestRunBatchSelectsTopN(t *testing.T) {
	res := &countingResolver{succeed: map[string]bool{}}
	records := makeRecords(5)

	summary := RunBatch(context.Background(), records, 3, res, 0, io.Discard)

	assert.Equal(t, 5, summary.TotalFound)
	require.Len(t, summary.Outcomes, 3)
	assert.ElementsMatch(t, []string{"Paper 1", "Paper 2", "Paper 3"}, res.attempted)

	// Outcomes preserve input order regardless of completion order.
	for i, out := range summary.Outcomes {
		assert.Equal(t, fmt.Sprintf("Paper %d", i+1), out.Title)
	}
}

func TestRunBatchLimitExceedsRecords(t *testing.T) {
	res := &countingResolver{succeed: map[string]bool{}}
	summary := RunBatch(context.Background(), makeRecords(2), 10, res, 0, io.Discard)
	assert.Len(t, summary.Outcomes, 2)
}

func TestRunBatchSummaryCounts(t *testing.T) {
	res := &countingResolver{succeed: map[string]bool{"Paper 1": true, "Paper 3": true}}
	summary := RunBatch(context.Background(), makeRecords(4), 4, res, 2, io.Discard)

	assert.Equal(t, 2, summary.TotalDownloaded)
	assert.Equal(t, 2, summary.TotalFailed)
	assert.True(t, summary.Valid())
	assert.GreaterOrEqual(t, summary.Elapsed, time.Duration(0))
}

// TestRunBatchIsolation runs real resolvers against a server where one
// record yields a corrupt (non-PDF) response, and checks the failure does
// not disturb sibling outcomes.
func TestRunBatchIsolation(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		if strings.HasPrefix(r.URL.Path, "/corrupt/") {
			fmt.Fprint(w, "<html>not a pdf at all</html>")
			return
		}
		fmt.Fprint(w, fakePDF)
	}))
	defer ts.Close()

	r := &Resolver{
		Fetcher: newFetcher(t, t.TempDir()),
		Pages:   &stubPages{},
		Log:     io.Discard,
	}

	records := []types.PaperRecord{
		{Title: "Good One", DirectPDFURL: ts.URL + "/pdf/1.pdf"},
		{Title: "Corrupt", DirectPDFURL: ts.URL + "/corrupt/2.pdf"},
		{Title: "Good Two", DirectPDFURL: ts.URL + "/pdf/3.pdf"},
	}

	summary := RunBatch(context.Background(), records, 3, r, 3, io.Discard)

	require.Len(t, summary.Outcomes, 3)
	assert.True(t, summary.Outcomes[0].Downloaded)
	assert.False(t, summary.Outcomes[1].Downloaded)
	assert.True(t, summary.Outcomes[2].Downloaded)
	assert.Equal(t, 2, summary.TotalDownloaded)
	assert.Equal(t, 1, summary.TotalFailed)
	assert.True(t, summary.Valid())
}

// TestRunBatchScenarioDirectSecond mirrors a five-result page where only
// the second record carries a direct PDF link and the limit is three.
func TestRunBatchScenarioDirectSecond(t *testing.T) {
	var requested []string
	var mu sync.Mutex
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requested = append(requested, r.URL.Path)
		mu.Unlock()
		if r.URL.Path == "/pdf/second.pdf" {
			w.Header().Set("Content-Type", "application/pdf")
			fmt.Fprint(w, "%PDF-1.4 second paper")
			return
		}
		http.NotFound(w, r)
	}))
	defer ts.Close()

	pages := &stubPages{} // all landing pages unreachable
	r := &Resolver{Fetcher: newFetcher(t, t.TempDir()), Pages: pages, Log: io.Discard}

	records := []types.PaperRecord{
		{Title: "First"},
		{Title: "Second", DirectPDFURL: ts.URL + "/pdf/second.pdf"},
		{Title: "Third"},
		{Title: "Fourth", DirectPDFURL: ts.URL + "/pdf/fourth.pdf"},
		{Title: "Fifth"},
	}

	summary := RunBatch(context.Background(), records, 3, r, 0, io.Discard)

	require.Len(t, summary.Outcomes, 3)
	assert.True(t, summary.Outcomes[1].Downloaded)
	assert.Equal(t, types.MethodDirectLink, summary.Outcomes[1].Method)
	assert.False(t, summary.Outcomes[0].Downloaded)
	assert.False(t, summary.Outcomes[2].Downloaded)

	// Records beyond the limit are never attempted.
	for _, path := range requested {
		assert.NotContains(t, path, "fourth")
	}
	assert.Equal(t, 5, summary.TotalFound)
	assert.Equal(t, 1, summary.TotalDownloaded)
}

func TestFormatSummary(t *testing.T) {
	summary := types.CrawlSummary{
		TotalFound:      5,
		TotalDownloaded: 1,
		TotalFailed:     1,
		Outcomes: []types.AcquisitionOutcome{
			{Title: "Won", Downloaded: true, SavedPath: "/out/Won.pdf", Method: types.MethodPageScan},
			{Title: "Lost", Method: types.MethodNone, Reason: "HTTP 404"},
		},
	}

	var buf bytes.Buffer
	FormatSummary(summary, &buf)

	got := buf.String()
	assert.Contains(t, got, "Found 5 result(s), attempted 2.")
	assert.Contains(t, got, "ok:     Won")
	assert.Contains(t, got, "failed: Lost (HTTP 404)")
	assert.Contains(t, got, "Downloaded 1, failed 1")
}

func TestFormatJSON(t *testing.T) {
	summary := types.CrawlSummary{
		TotalFound: 1,
		Outcomes:   []types.AcquisitionOutcome{{Title: "Only", Method: types.MethodNone, Reason: "x"}},
	}
	var buf bytes.Buffer
	require.NoError(t, FormatJSON(summary, &buf))
	assert.Contains(t, buf.String(), `"total_found": 1`)
	assert.Contains(t, buf.String(), `"Only"`)
}
