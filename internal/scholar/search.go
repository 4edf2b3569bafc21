// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scholar

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/scholar-crawler/internal/humanize"
	"github.com/pdiddy/scholar-crawler/pkg/types"
)

// BaseURL is the search-service origin. A var so tests and alternate
// frontends can substitute it.
var BaseURL = "https://scholar.google.com/"

// searchBoxSel locates the query input on the landing page.
var searchBoxSel = `input[name="q"]`

// Session is the browsing surface the controller drives. The chromedp
// implementation lives in internal/browser; tests substitute fakes.
type Session interface {
	// Navigate loads url and waits for structural-parse completion, not
	// full resource load.
	Navigate(url string) error

	// WaitVisible blocks until sel matches a visible element or timeout.
	WaitVisible(sel string, timeout time.Duration) error

	// TypeText emulates human typing into the element matching sel.
	TypeText(sel, text string) error

	// PressEnter issues a simulated Enter key press.
	PressEnter() error

	// HTML returns the current document's outer HTML. The evaluation
	// boundary is a serialization hop: the return value is plain data,
	// never a live reference.
	HTML() (string, error)
}

// Controller submits a query through the interaction emulator and parses
// the resulting page. It does not retry: a one-shot batch tool surfaces
// search failures to the caller.
type Controller struct {
	Session Session
	Timing  types.TimingConfig
	Search  types.SearchConfig
	Log     io.Writer
}

// Run navigates to the search origin, types the query with humanized
// timing, submits it, and extracts records from the results page.
//
// Post-condition: the returned records reflect the results page for query,
// in visual order. Failure modes: navigation/element-wait errors abort the
// search; a detected challenge page surfaces ErrBlocked; an empty results
// page surfaces ErrNoResults.
func (c *Controller) Run(ctx context.Context, query string) ([]types.PaperRecord, error) {
	fmt.Fprintf(c.Log, "searching: %q\n", query)

	if err := c.Session.Navigate(BaseURL); err != nil {
		return nil, fmt.Errorf("navigating to search page: %w", err)
	}
	if err := humanize.Delay(ctx, c.Timing.MajorDelayMin, c.Timing.MajorDelayMax); err != nil {
		return nil, err
	}

	if err := c.Session.WaitVisible(searchBoxSel, c.Search.ElementTimeout); err != nil {
		return nil, fmt.Errorf("locating search box: %w", err)
	}
	if err := c.Session.TypeText(searchBoxSel, query); err != nil {
		return nil, fmt.Errorf("typing query: %w", err)
	}
	if err := humanize.Delay(ctx, c.Timing.ActionDelayMin, c.Timing.ActionDelayMax); err != nil {
		return nil, err
	}

	if err := c.Session.PressEnter(); err != nil {
		return nil, fmt.Errorf("submitting query: %w", err)
	}

	// A challenge page never renders the results container, so the wait
	// error is held back until the snapshot has been checked for a block.
	waitErr := c.Session.WaitVisible(resultsContainerSel, c.Search.ResultsTimeout)

	html, err := c.Session.HTML()
	if err != nil {
		if waitErr != nil {
			return nil, fmt.Errorf("waiting for results: %w", waitErr)
		}
		return nil, fmt.Errorf("capturing results page: %w", err)
	}

	records, err := Extract(html)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		if waitErr != nil {
			return nil, fmt.Errorf("waiting for results: %w", waitErr)
		}
		return nil, ErrNoResults
	}

	fmt.Fprintf(c.Log, "extracted %d record(s)\n", len(records))
	return records, nil
}
