// Package main is the onionwatch command-line entrypoint: a cobra command
// tree over internal/boundary, the one surface a dashboard process would
// otherwise call.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/onionwatch/onionwatch/internal/alert"
	"github.com/onionwatch/onionwatch/internal/boundary"
	"github.com/onionwatch/onionwatch/internal/config"
	"github.com/onionwatch/onionwatch/internal/graph"
	"github.com/onionwatch/onionwatch/internal/logging"
	"github.com/onionwatch/onionwatch/internal/store"
)

var (
	cfgFile  string
	dbPath   string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "onionwatch",
	Short: "A breadth-first hidden-service crawler and intelligence extractor.",
	Long: `onionwatch crawls .onion hidden services breadth-first, extracts
credentials, cryptocurrency addresses, contact handles, and other
intelligence from the pages it visits, correlates what it finds across
domains, and raises severity-tiered alerts.

Every operation besides "run" talks to the durable store directly,
without a live crawl — "run" is the only subcommand that starts one.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path (JSON)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db-path", "onionwatch.db", "path to the onionwatch SQLite database")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "zap log level (debug, info, warn, error)")
}

// openSink builds the production zap sink at the configured level. Every
// subcommand shares this rather than constructing its own logger.
func openSink() (logging.Sink, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("log-level: %w", err)
	}
	sink, err := logging.NewProductionSink(level)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return sink, nil
}

// openStore opens the durable store at --db-path with no field
// encryption — onionwatch ships with encryption off by default, matching
// config.Config's own zero value, and a deployment that wants it enables
// WithEncryption through a config file instead of a flag, since a key
// belongs in a file an operator controls, not in shell history.
func openStore() (*store.Store, error) {
	return store.Open(dbPath, nil)
}

// openBoundary assembles an offline Boundary (no live engine) over the
// already-opened store/graph/alerts — the shape every subcommand except
// "run" needs, since export/purge/vacuum/seed/mark/domain operations
// never require a crawl to be running.
func openBoundary() (*boundary.Boundary, *store.Store, error) {
	st, err := openStore()
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	sink, err := openSink()
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	g := graph.New()
	mgr := alert.New(alert.Watchlists{}, map[alert.Severity]bool{}, alert.WebhookTargets{}, 60)
	return boundary.New(st, g, mgr, nil, sink), st, nil
}

// loadConfig builds a config.Config from --config-file when given, else
// from defaults seeded with seedURLs (only meaningful for "run").
func loadConfig(seedURLs []string) (config.Config, error) {
	if cfgFile != "" {
		cfg, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return config.Config{}, fmt.Errorf("load config file: %w", err)
		}
		return *cfg, nil
	}
	cfg, err := config.WithDefault(seedURLs).WithDBPath(dbPath).Build()
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func printResult(res boundary.Result) {
	if res.Success {
		fmt.Fprintln(os.Stdout, res.Message)
		if res.Details != nil {
			fmt.Fprintf(os.Stdout, "%+v\n", res.Details)
		}
		return
	}
	fmt.Fprintln(os.Stderr, "error: "+res.Message)
}

func exitOnFailure(res boundary.Result) {
	printResult(res)
	if !res.Success {
		os.Exit(1)
	}
}
