// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scholar

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scholar-crawler/pkg/types"
)

// fakeSession scripts the browsing surface so the controller can be tested
// without a browser.
type fakeSession struct {
	resultsHTML string

	navigateErr    error
	boxWaitErr     error
	resultsWaitErr error
	typeErr        error
	htmlErr        error

	navigated []string
	typed     string
	submitted bool
}

func (f *fakeSession) Navigate(url string) error {
	f.navigated = append(f.navigated, url)
	return f.navigateErr
}

func (f *fakeSession) WaitVisible(sel string, timeout time.Duration) error {
	if sel == searchBoxSel {
		return f.boxWaitErr
	}
	return f.resultsWaitErr
}

func (f *fakeSession) TypeText(sel, text string) error {
	if f.typeErr != nil {
		return f.typeErr
	}
	f.typed = text
	return nil
}

func (f *fakeSession) PressEnter() error {
	f.submitted = true
	return nil
}

func (f *fakeSession) HTML() (string, error) {
	if f.htmlErr != nil {
		return "", f.htmlErr
	}
	return f.resultsHTML, nil
}

func testController(s *fakeSession) *Controller {
	cfg := types.DefaultConfig()
	// Collapse emulator delays so tests run fast.
	cfg.Timing = types.TimingConfig{}
	return &Controller{
		Session: s,
		Timing:  cfg.Timing,
		Search:  cfg.Search,
		Log:     io.Discard,
	}
}

func TestControllerRun(t *testing.T) {
	s := &fakeSession{resultsHTML: resultsPage(
		resultBlock("First", "https://example.org/1", "A - 2024", "https://example.org/1.pdf", "[PDF]"),
		resultBlock("Second", "https://example.org/2", "B - 2023", "", ""),
	)}

	records, err := testController(s).Run(context.Background(), "deep learning")
	require.NoError(t, err)

	assert.Equal(t, []string{BaseURL}, s.navigated)
	assert.Equal(t, "deep learning", s.typed)
	assert.True(t, s.submitted)

	require.Len(t, records, 2)
	assert.Equal(t, "First", records[0].Title)
	assert.Equal(t, "https://example.org/1.pdf", records[0].DirectPDFURL)
	assert.Equal(t, "Second", records[1].Title)
}

func TestControllerBlocked(t *testing.T) {
	s := &fakeSession{
		resultsHTML: `<html><head><title>captcha</title></head><body></body></html>`,
		// The results container never appears on a challenge page.
		resultsWaitErr: context.DeadlineExceeded,
	}

	records, err := testController(s).Run(context.Background(), "q")
	assert.ErrorIs(t, err, ErrBlocked)
	assert.Nil(t, records)
}

func TestControllerNavigationError(t *testing.T) {
	s := &fakeSession{navigateErr: errors.New("net::ERR_CONNECTION_RESET")}

	_, err := testController(s).Run(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "navigating to search page")
	assert.Empty(t, s.typed, "query must not be typed after a failed navigation")
}

func TestControllerElementNotFound(t *testing.T) {
	s := &fakeSession{boxWaitErr: context.DeadlineExceeded}

	_, err := testController(s).Run(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locating search box")
	assert.False(t, s.submitted)
}

func TestControllerEmptyResults(t *testing.T) {
	s := &fakeSession{resultsHTML: `<html><head><title>q</title></head><body></body></html>`}

	_, err := testController(s).Run(context.Background(), "q")
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestControllerResultsTimeoutSurfacedWhenNotBlocked(t *testing.T) {
	// An empty page plus a results-container timeout means a real
	// navigation failure, not a block.
	s := &fakeSession{
		resultsHTML:    `<html><head><title>q</title></head><body></body></html>`,
		resultsWaitErr: context.DeadlineExceeded,
	}

	_, err := testController(s).Run(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "waiting for results")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
