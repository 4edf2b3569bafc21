// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package browser provides the Chrome session behind the crawl: a stealth
// launcher, humanized input, and isolated per-acquisition tabs. It is the
// chromedp implementation of the scholar.Session and acquire.Snapshotter
// surfaces.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/pdiddy/scholar-crawler/internal/humanize"
	"github.com/pdiddy/scholar-crawler/pkg/types"
)

// evasionScript runs before any page script on every new document. Headless
// Chrome leaks automation through navigator.webdriver and empty plugin and
// language lists; sites check all three.
const evasionScript = `
Object.defineProperty(navigator, 'webdriver', {get: () => undefined});
Object.defineProperty(navigator, 'plugins', {get: () => [1, 2, 3, 4, 5]});
Object.defineProperty(navigator, 'languages', {get: () => ['en-US', 'en']});
`

// Session owns one Chrome process and its primary tab. Acquisition units
// open their own isolated tabs via Snapshot; the primary tab is reserved
// for the search flow.
type Session struct {
	cfg    types.BrowserConfig
	timing types.TimingConfig

	ctx         context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
}

// New launches Chrome with bot-evasion flags and returns a started session.
// The caller must Close it.
func New(parent context.Context, cfg types.BrowserConfig, timing types.TimingConfig) (*Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		// Chrome advertises automation through this blink feature unless
		// it is switched off at the process level.
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("lang", "en-US,en"),
		chromedp.WindowSize(1366, 768),
		chromedp.UserAgent(cfg.UserAgent),
	)
	if cfg.ProxyServer != "" {
		opts = append(opts, chromedp.ProxyServer(cfg.ProxyServer))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx)

	s := &Session{
		cfg:         cfg,
		timing:      timing,
		ctx:         ctx,
		cancelCtx:   cancelCtx,
		cancelAlloc: cancelAlloc,
	}

	// Starting the browser eagerly surfaces launch failures here instead
	// of at the first navigation.
	if err := chromedp.Run(ctx, stealthTasks()); err != nil {
		s.Close()
		return nil, fmt.Errorf("launching browser: %w", err)
	}
	return s, nil
}

// stealthTasks installs the evasion script and realistic request headers
// on a fresh browsing context.
func stealthTasks() chromedp.Tasks {
	return chromedp.Tasks{
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{
			"Accept-Language": "en-US,en;q=0.9",
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(evasionScript).Do(ctx)
			return err
		}),
	}
}

// Close releases the primary tab and the Chrome process.
func (s *Session) Close() {
	s.cancelCtx()
	s.cancelAlloc()
}

// Navigate loads url in the primary tab and waits for the document body to
// be ready (structural parse, not full resource load) within NavTimeout.
func (s *Session) Navigate(url string) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.NavTimeout)
	defer cancel()
	return chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

// WaitVisible blocks until sel matches a visible element or timeout elapses.
func (s *Session) WaitVisible(sel string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	return chromedp.Run(ctx, chromedp.WaitVisible(sel, chromedp.ByQuery))
}

// TypeText emulates human typing into the element matching sel.
func (s *Session) TypeText(sel, text string) error {
	return humanize.TypeText(s.ctx, sel, text, s.timing)
}

// PressEnter submits via a simulated Enter key press in the focused element.
func (s *Session) PressEnter() error {
	return chromedp.Run(s.ctx, chromedp.KeyEvent(kb.Enter))
}

// HTML returns the primary tab's current document as a string. The
// evaluation boundary is a serialization hop: callers get plain data, not
// live DOM references.
func (s *Session) HTML() (string, error) {
	var html string
	if err := chromedp.Run(s.ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// Snapshot opens an isolated tab, loads url, captures the rendered HTML,
// and closes the tab. The tab is released on every path; concurrent
// acquisition units therefore never share navigation state, and a failed
// unit cannot leak a context.
func (s *Session) Snapshot(url string) (string, error) {
	tabCtx, cancel := chromedp.NewContext(s.ctx)
	defer cancel()

	runCtx, cancelRun := context.WithTimeout(tabCtx, s.cfg.NavTimeout)
	defer cancelRun()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("loading %s: %w", url, err)
	}
	return html, nil
}
