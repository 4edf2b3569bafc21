// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scholar drives a search against the Google Scholar results page
// and extracts typed paper records from its rendered markup.
package scholar

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/scholar-crawler/pkg/types"
)

// ErrBlocked means the results page is an anti-bot challenge. No records
// can be trusted; retry later or change network identity.
var ErrBlocked = errors.New("blocked: anti-bot challenge detected")

// ErrNoResults means the results page parsed cleanly but contained no
// result blocks.
var ErrNoResults = errors.New("no results extracted from page")

// UnknownTitle is the sentinel used when a result block has no parsable
// title anchor.
const UnknownTitle = "Unknown Title"

// Result-page selectors. The site's markup is external and versioned
// independently of this tool, so these are configuration, not contract.
var (
	resultsContainerSel = "#gs_res_ccl_mid"
	resultBlockSel      = ".gs_r"
	titleAnchorSel      = "h3.gs_rt a"
	metaLineSel         = ".gs_a"
	altSourceSel        = ".gs_or_ggsm a, .gs_ggs a"
	pdfBadge            = "[PDF]"
)

// Extract parses a rendered results document into paper records, in the
// document's top-to-bottom order. The ordering is what makes top-N
// selection deterministic, so it is a correctness guarantee.
//
// Block detection runs first: silently parsing a CAPTCHA page would yield
// zero or garbage records indistinguishable from "no results."
func Extract(html string) ([]types.PaperRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing results page: %w", err)
	}

	if Blocked(doc) {
		return nil, ErrBlocked
	}

	blocks := doc.Find(resultsContainerSel + " " + resultBlockSel)
	if blocks.Length() == 0 {
		// Older markup renders result blocks outside the container.
		blocks = doc.Find(resultBlockSel)
	}

	var records []types.PaperRecord
	blocks.Each(func(_ int, block *goquery.Selection) {
		if block.Find(".gs_ri").Length() == 0 {
			// Not a result block (related-searches strip, footer, etc).
			return
		}
		records = append(records, parseBlock(block))
	})
	return records, nil
}

// parseBlock extracts one record. A malformed block degrades to the
// UnknownTitle sentinel rather than failing the whole extraction.
func parseBlock(block *goquery.Selection) types.PaperRecord {
	rec := types.PaperRecord{Title: UnknownTitle}

	anchor := block.Find(titleAnchorSel).First()
	if anchor.Length() > 0 {
		if title := strings.TrimSpace(anchor.Text()); title != "" {
			rec.Title = title
		}
		rec.PaperPageURL, _ = anchor.Attr("href")
	}

	rec.AuthorsVenue = strings.TrimSpace(block.Find(metaLineSel).First().Text())
	rec.DirectPDFURL = directPDFLink(block)
	return rec
}

// directPDFLink applies the two-tier direct-link check. The alternate
// source slot is inspected first; the results page renders the PDF badge
// in different DOM positions depending on result type, so when the slot
// yields nothing every anchor in the block is scanned for the badge label.
func directPDFLink(block *goquery.Selection) string {
	slot := block.Find(altSourceSel).First()
	if href, ok := slot.Attr("href"); ok {
		if strings.Contains(strings.ToLower(href), ".pdf") || strings.Contains(slot.Text(), pdfBadge) {
			return href
		}
	}

	var found string
	block.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if strings.TrimSpace(a.Text()) != pdfBadge {
			return true
		}
		if href, ok := a.Attr("href"); ok {
			found = href
			return false
		}
		return true
	})
	return found
}

// Blocked reports whether the document is an anti-bot challenge page:
// a "captcha" page title, a CAPTCHA form, a reCAPTCHA widget, or the
// "unusual traffic" interstitial text.
func Blocked(doc *goquery.Document) bool {
	title := strings.ToLower(doc.Find("title").Text())
	if strings.Contains(title, "captcha") {
		return true
	}
	if doc.Find("#captcha-form, #gs_captcha_ccl, form[action*='CaptchaRedirect']").Length() > 0 {
		return true
	}
	if doc.Find(".g-recaptcha, #recaptcha, iframe[src*='recaptcha']").Length() > 0 {
		return true
	}
	return UnusualTraffic(doc.Find("body").Text())
}

// UnusualTraffic is the secondary liveness check, usable mid-crawl on any
// captured page text.
func UnusualTraffic(text string) bool {
	return strings.Contains(strings.ToLower(text), "unusual traffic")
}
