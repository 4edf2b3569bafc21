package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/scholar-crawler/internal/acquire"
	"github.com/pdiddy/scholar-crawler/internal/browser"
	"github.com/pdiddy/scholar-crawler/internal/scholar"
	"github.com/pdiddy/scholar-crawler/pkg/types"
)

func newCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Search for papers and download the top results as PDFs",
		Long: `Crawl runs the full pipeline: it opens a stealth browser session, types
the query with humanized timing, extracts the result records, and downloads
the top N papers. Each record is tried through its direct PDF link first and
through a scan of its paper page as a fallback. Downloads are verified
(status, content type, and PDF signature) before being kept.

Individual paper failures are reported in the summary and never abort the
batch.`,
		RunE: runCrawl,
	}

	cmd.Flags().String("query", "", "search query (default \"machine learning\")")
	cmd.Flags().Int("max-results", 0, "number of top results to download (default 5)")
	cmd.Flags().String("output-dir", "", "directory for downloaded PDFs (default output/pdfs)")
	cmd.Flags().Bool("headless", true, "run the browser without a visible window")
	cmd.Flags().Bool("json", false, "output the crawl summary as JSON")
	cmd.Flags().Duration("nav-timeout", 0, "per-navigation timeout (default 10s)")
	cmd.Flags().Duration("results-timeout", 0, "wait for the results page after submit (default 10s)")
	cmd.Flags().Duration("fetch-timeout", 0, "per-download HTTP timeout (default 15s)")
	cmd.Flags().Int("concurrency", 0, "max concurrent downloads (default: one per selected record)")
	cmd.Flags().Float64("rate-limit", 0, "max downloads per second (default 2)")
	cmd.Flags().String("proxy-server", "", "proxy URL for the browser (default: .secrets/proxy-server)")
	cmd.Flags().String("user-agent", "", "user agent override (default: .secrets/user-agent)")

	return cmd
}

func init() {
	rootCmd.AddCommand(newCrawlCmd())
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg := crawlConfig(cmd)

	session, err := browser.New(cmd.Context(), cfg.Browser, cfg.Timing)
	if err != nil {
		return err
	}
	defer session.Close()

	controller := &scholar.Controller{
		Session: session,
		Timing:  cfg.Timing,
		Search:  cfg.Search,
		Log:     os.Stderr,
	}
	records, err := controller.Run(cmd.Context(), cfg.Search.Query)
	if err != nil {
		if errors.Is(err, scholar.ErrBlocked) {
			fmt.Fprintln(os.Stderr, "The search service served a bot challenge. Wait before retrying,")
			fmt.Fprintln(os.Stderr, "or set a different network identity in .secrets/proxy-server.")
		}
		return err
	}

	resolver := &acquire.Resolver{
		Fetcher: acquire.NewFetcher(cfg.Fetch, os.Stderr),
		Pages:   session,
		Log:     os.Stderr,
	}
	summary := acquire.RunBatch(cmd.Context(), records, cfg.Search.MaxResults, resolver, cfg.Fetch.Concurrency, os.Stderr)

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return acquire.FormatJSON(summary, os.Stdout)
	}
	acquire.FormatSummary(summary, os.Stdout)
	return nil
}

// crawlConfig builds the run configuration in increasing precedence:
// built-in defaults, then the viper config file / environment, then loaded
// secrets, then flags.
func crawlConfig(cmd *cobra.Command) types.Config {
	cfg := types.DefaultConfig()
	applyConfigFile(&cfg)

	if q, _ := cmd.Flags().GetString("query"); q != "" {
		cfg.Search.Query = q
	}
	if n, _ := cmd.Flags().GetInt("max-results"); n > 0 {
		cfg.Search.MaxResults = n
	}
	if dir, _ := cmd.Flags().GetString("output-dir"); dir != "" {
		cfg.Fetch.OutputDir = dir
	}
	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless, _ = cmd.Flags().GetBool("headless")
	}
	if d, _ := cmd.Flags().GetDuration("nav-timeout"); d > 0 {
		cfg.Browser.NavTimeout = d
		cfg.Search.ElementTimeout = d
	}
	if d, _ := cmd.Flags().GetDuration("results-timeout"); d > 0 {
		cfg.Search.ResultsTimeout = d
	}
	if d, _ := cmd.Flags().GetDuration("fetch-timeout"); d > 0 {
		cfg.Fetch.Timeout = d
	}
	if c, _ := cmd.Flags().GetInt("concurrency"); c > 0 {
		cfg.Fetch.Concurrency = c
	}
	if r, _ := cmd.Flags().GetFloat64("rate-limit"); r > 0 {
		cfg.Fetch.RateLimit = r
	}

	proxyFlag, _ := cmd.Flags().GetString("proxy-server")
	if proxy := secretDefault("proxy-server", proxyFlag); proxy != "" {
		cfg.Browser.ProxyServer = proxy
	}
	uaFlag, _ := cmd.Flags().GetString("user-agent")
	if ua := secretDefault("user-agent", uaFlag); ua != "" {
		cfg.Browser.UserAgent = ua
		cfg.Fetch.UserAgent = ua
	}

	return cfg
}

// applyConfigFile overlays any values viper picked up from the config file
// or the SCHOLAR_CRAWLER environment onto cfg. Keys mirror the Config yaml
// structure.
func applyConfigFile(cfg *types.Config) {
	if viper.IsSet("search.query") {
		cfg.Search.Query = viper.GetString("search.query")
	}
	if viper.IsSet("search.max_results") {
		cfg.Search.MaxResults = viper.GetInt("search.max_results")
	}
	if viper.IsSet("search.results_timeout") {
		cfg.Search.ResultsTimeout = viper.GetDuration("search.results_timeout")
	}
	if viper.IsSet("browser.headless") {
		cfg.Browser.Headless = viper.GetBool("browser.headless")
	}
	if viper.IsSet("browser.nav_timeout") {
		cfg.Browser.NavTimeout = viper.GetDuration("browser.nav_timeout")
		cfg.Search.ElementTimeout = cfg.Browser.NavTimeout
	}
	if viper.IsSet("browser.proxy_server") {
		cfg.Browser.ProxyServer = viper.GetString("browser.proxy_server")
	}
	if viper.IsSet("browser.user_agent") {
		cfg.Browser.UserAgent = viper.GetString("browser.user_agent")
		cfg.Fetch.UserAgent = cfg.Browser.UserAgent
	}
	if viper.IsSet("fetch.output_dir") {
		cfg.Fetch.OutputDir = viper.GetString("fetch.output_dir")
	}
	if viper.IsSet("fetch.timeout") {
		cfg.Fetch.Timeout = viper.GetDuration("fetch.timeout")
	}
	if viper.IsSet("fetch.concurrency") {
		cfg.Fetch.Concurrency = viper.GetInt("fetch.concurrency")
	}
	if viper.IsSet("fetch.rate_limit") {
		cfg.Fetch.RateLimit = viper.GetFloat64("fetch.rate_limit")
	}
}
