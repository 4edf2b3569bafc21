// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package humanize emulates human interaction timing. Keystrokes and pauses
// are separated by uniformly random delays so the session does not exhibit
// the fixed intervals naive statistical detectors key on.
package humanize

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"

	"github.com/pdiddy/scholar-crawler/pkg/types"
)

// Jitter returns a duration drawn uniformly from [min, max]. When the range
// is empty or inverted it returns min.
func Jitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + rand.N(max-min)
}

// Delay suspends the calling flow for a jittered duration, or returns early
// with the context error if ctx is cancelled first.
func Delay(ctx context.Context, min, max time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(Jitter(min, max)):
		return nil
	}
}

// TypeText focuses the element matching sel, selects any existing content,
// and issues one simulated keystroke per rune with a jittered pause between
// keystrokes. Select-all before typing guarantees the final field state is
// the given text regardless of prior content.
//
// ctx must be a chromedp context.
func TypeText(ctx context.Context, sel, text string, timing types.TimingConfig) error {
	err := chromedp.Run(ctx,
		chromedp.Click(sel, chromedp.ByQuery, chromedp.NodeVisible),
		chromedp.KeyEvent("a", chromedp.KeyModifiers(input.ModifierCtrl)),
	)
	if err != nil {
		return fmt.Errorf("focusing %s: %w", sel, err)
	}

	for _, r := range text {
		if err := chromedp.Run(ctx, chromedp.KeyEvent(string(r))); err != nil {
			return fmt.Errorf("typing into %s: %w", sel, err)
		}
		if err := Delay(ctx, timing.TypeDelayMin, timing.TypeDelayMax); err != nil {
			return err
		}
	}
	return nil
}
