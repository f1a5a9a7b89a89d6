// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the refsearch CLI.
// See docs/ARCHITECTURE.md § CLI surface.
package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/refsearch/internal/cache"
	"github.com/pdiddy/refsearch/internal/provider"
	"github.com/pdiddy/refsearch/internal/secrets"
	"github.com/pdiddy/refsearch/internal/tool"
	"github.com/pdiddy/refsearch/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback if set, else the secret value for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the refsearch CLI.
var rootCmd = &cobra.Command{
	Use:   "refsearch",
	Short: "Aggregate academic reference search across arXiv, DBLP, OpenAlex, and Semantic Scholar",
	Long: `refsearch queries several academic search providers concurrently, resolves
records that describe the same publication, merges them into complete
references, and formats ready-to-paste BibTeX entries.

Searches run from the command line (search) or behind an HTTP API (serve).`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./refsearch.yaml or ~/.config/refsearch/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("refsearch")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "refsearch"))
		}
	}

	viper.SetEnvPrefix("REFSEARCH")
	viper.AutomaticEnv()

	viper.SetDefault("provider.timeout", 10*time.Second)
	viper.SetDefault("provider.user_agent", "refsearch/"+version)
	viper.SetDefault("aggregation.max_results", 20)
	viper.SetDefault("aggregation.per_provider_timeout", 4*time.Second)
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.ttl", 10*time.Minute)
	viper.SetDefault("cache.max_entries", 100)
	viper.SetDefault("server.addr", ":8080")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig assembles the runtime configuration from viper and secrets.
func loadConfig() types.Config {
	cfg := types.Config{
		Provider: types.ProviderConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("provider.timeout"),
				UserAgent: viper.GetString("provider.user_agent"),
			},
			SemanticScholarAPIKey: secretDefault("semantic-scholar-api-key", viper.GetString("provider.semantic_scholar_api_key")),
			OpenAlexEmail:         secretDefault("openalex-email", viper.GetString("provider.openalex_email")),
		},
		Aggregation: types.AggregationConfig{
			MaxResults:         viper.GetInt("aggregation.max_results"),
			PerProviderTimeout: viper.GetDuration("aggregation.per_provider_timeout"),
		},
		Cache: types.CacheConfig{
			Enabled:    viper.GetBool("cache.enabled"),
			TTL:        viper.GetDuration("cache.ttl"),
			MaxEntries: viper.GetInt("cache.max_entries"),
		},
		Server: types.ServerConfig{
			Addr: viper.GetString("server.addr"),
		},
	}
	for _, n := range viper.GetStringSlice("aggregation.source_priority") {
		cfg.Aggregation.SourcePriority = append(cfg.Aggregation.SourcePriority, types.ProviderName(n))
	}
	for _, n := range viper.GetStringSlice("aggregation.providers") {
		cfg.Aggregation.Providers = append(cfg.Aggregation.Providers, types.ProviderName(n))
	}
	return cfg
}

// newSearcher builds the shared pipeline entry point used by search and serve.
func newSearcher(cfg types.Config) (*tool.Searcher, func(), error) {
	client := &http.Client{Timeout: cfg.Provider.Timeout}
	registry := provider.Registry(client)

	var c *cache.Cache
	cleanup := func() {}
	if cfg.Cache.Enabled {
		var err error
		c, err = cache.New(cfg.Cache)
		if err != nil {
			return nil, nil, fmt.Errorf("initializing response cache: %w", err)
		}
		cleanup = func() { c.Close() }
	}

	return tool.NewSearcher(registry, cfg, c), cleanup, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
