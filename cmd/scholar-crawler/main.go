// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the scholar-crawler CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/scholar-crawler/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// secretsDir holds operator credentials, one plain-text file per key.
const secretsDir = ".secrets/"

// loadedSecrets holds operator credentials loaded at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when set, otherwise the secret value for
// key if one was loaded.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// loadSecrets populates loadedSecrets from secretsDir and announces the
// key names (never the values) on stderr.
func loadSecrets() error {
	s, err := secrets.Load(secretsDir, os.Stderr)
	if err != nil {
		return err
	}
	loadedSecrets = s

	if len(s) == 0 {
		return nil
	}
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
	return nil
}

// rootCmd is the base command for the scholar-crawler CLI.
var rootCmd = &cobra.Command{
	Use:   "scholar-crawler",
	Short: "Browser-driven academic paper search and PDF acquisition",
	Long: `scholar-crawler searches a JavaScript-rendered scholarly search service
through a real browser session, extracts the result records, and downloads
the top papers as verified PDF files.

The crawl subcommand runs the full pipeline: humanized search, result
extraction, per-record source resolution, and concurrent verified download.
Settings come from a config file, SCHOLAR_CRAWLER_* environment variables,
the .secrets/ directory, and flags, in that precedence order.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadSecrets()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./scholar-crawler.yaml or ~/.config/scholar-crawler/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("scholar-crawler")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "scholar-crawler"))
		}
	}

	viper.SetEnvPrefix("SCHOLAR_CRAWLER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
