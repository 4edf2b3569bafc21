package types

import "time"

// BrowserConfig holds settings for the Chrome session.
type BrowserConfig struct {
	// Headless controls whether Chrome runs without a visible window.
	Headless bool `json:"headless" yaml:"headless"`

	// UserAgent is the navigator user agent presented to sites.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// ProxyServer is an optional proxy URL, used to change network
	// identity after a block (e.g. "socks5://127.0.0.1:9050").
	ProxyServer string `json:"proxy_server,omitempty" yaml:"proxy_server,omitempty"`

	// NavTimeout bounds each page navigation.
	NavTimeout time.Duration `json:"nav_timeout" yaml:"nav_timeout"`
}

// TimingConfig holds the randomized-delay ranges for the interaction
// emulator. Fixed-interval automation is a primary bot-detection signal,
// so every delay is drawn uniformly from its [min, max] range.
type TimingConfig struct {
	// TypeDelayMin/Max bound the pause between simulated keystrokes.
	TypeDelayMin time.Duration `json:"type_delay_min" yaml:"type_delay_min"`
	TypeDelayMax time.Duration `json:"type_delay_max" yaml:"type_delay_max"`

	// ActionDelayMin/Max bound general pauses between interactions.
	ActionDelayMin time.Duration `json:"action_delay_min" yaml:"action_delay_min"`
	ActionDelayMax time.Duration `json:"action_delay_max" yaml:"action_delay_max"`

	// MajorDelayMin/Max bound pauses between major actions such as
	// navigation and form submission.
	MajorDelayMin time.Duration `json:"major_delay_min" yaml:"major_delay_min"`
	MajorDelayMax time.Duration `json:"major_delay_max" yaml:"major_delay_max"`
}

// SearchConfig holds settings for the search stage.
type SearchConfig struct {
	// Query is the free-text search string.
	Query string `json:"query" yaml:"query"`

	// MaxResults is the number of top records to attempt acquisition on.
	MaxResults int `json:"max_results" yaml:"max_results"`

	// ElementTimeout bounds the wait for the query input field.
	ElementTimeout time.Duration `json:"element_timeout" yaml:"element_timeout"`

	// ResultsTimeout bounds the wait for the results container after submit.
	ResultsTimeout time.Duration `json:"results_timeout" yaml:"results_timeout"`
}

// FetchConfig holds settings for PDF downloads.
type FetchConfig struct {
	// OutputDir is the directory PDFs are written to.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Timeout bounds each download request.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with download requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// Referer is sent with download requests; some hosts gate PDF
	// delivery on referer checks.
	Referer string `json:"referer" yaml:"referer"`

	// MaxRetries is the retry budget for rate-limited responses.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RateLimit is the maximum downloads per second across the batch.
	// Zero disables rate limiting.
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit"`

	// Concurrency caps the number of in-flight acquisitions. Zero means
	// one unit per selected record.
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}

// Config groups all stage configurations. It is built once at startup and
// passed by value; no component mutates it.
type Config struct {
	Browser BrowserConfig `json:"browser" yaml:"browser"`
	Timing  TimingConfig  `json:"timing" yaml:"timing"`
	Search  SearchConfig  `json:"search" yaml:"search"`
	Fetch   FetchConfig   `json:"fetch" yaml:"fetch"`
}

// DefaultUserAgent is a realistic desktop Chrome user agent. Headless
// Chrome's default advertises "HeadlessChrome", which is an immediate
// bot-detection tell.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DefaultConfig returns the baseline configuration.
func DefaultConfig() Config {
	return Config{
		Browser: BrowserConfig{
			Headless:   true,
			UserAgent:  DefaultUserAgent,
			NavTimeout: 10 * time.Second,
		},
		Timing: TimingConfig{
			TypeDelayMin:   20 * time.Millisecond,
			TypeDelayMax:   50 * time.Millisecond,
			ActionDelayMin: 100 * time.Millisecond,
			ActionDelayMax: 300 * time.Millisecond,
			MajorDelayMin:  300 * time.Millisecond,
			MajorDelayMax:  800 * time.Millisecond,
		},
		Search: SearchConfig{
			Query:          "machine learning",
			MaxResults:     5,
			ElementTimeout: 10 * time.Second,
			ResultsTimeout: 10 * time.Second,
		},
		Fetch: FetchConfig{
			OutputDir:  "output/pdfs",
			Timeout:    15 * time.Second,
			UserAgent:  DefaultUserAgent,
			Referer:    "https://scholar.google.com/",
			MaxRetries: 2,
			RateLimit:  2,
		},
	}
}
