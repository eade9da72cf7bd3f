package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/onionwatch/onionwatch/internal/alert"
	"github.com/onionwatch/onionwatch/internal/engine"
	"github.com/onionwatch/onionwatch/internal/graph"
	"github.com/onionwatch/onionwatch/internal/store"
)

var (
	seedURLs         []string
	maxDepth         int
	maxWorkers       int
	watchlistDomains []string
	watchlistEmails  []string
	watchlistWallets []string
	internalDomains  []string
	webhookGeneric   string
	webhookSlack     string
	webhookDiscord   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a crawl and run it until Ctrl-C, max-pages, or a fatal error.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile == "" && len(seedURLs) == 0 {
			return fmt.Errorf("--seed-url is required unless --config-file is set")
		}

		cfg, err := loadConfig(seedURLs)
		if err != nil {
			return err
		}
		cfgBuilder := cfg.WithWatchlists(internalDomains, watchlistDomains, watchlistEmails, watchlistWallets).
			WithWebhooks(webhookGeneric, webhookSlack, webhookDiscord, "", "")
		if maxDepth > 0 {
			cfgBuilder = cfgBuilder.WithMaxDepth(maxDepth)
		}
		if maxWorkers > 0 {
			cfgBuilder = cfgBuilder.WithMaxWorkers(maxWorkers)
		}
		cfg = *cfgBuilder

		st, err := store.Open(dbPath, nil)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		sink, err := openSink()
		if err != nil {
			return err
		}

		g := graph.New()
		critical, high, medium, low := cfg.NotifySeverities()
		watchlists := alert.Watchlists{
			InternalDomains:  internalDomains,
			WatchlistDomains: watchlistDomains,
			WatchlistEmails:  watchlistEmails,
			WatchlistWallets: watchlistWallets,
		}
		notify := map[alert.Severity]bool{
			alert.SeverityCritical: critical,
			alert.SeverityHigh:     high,
			alert.SeverityMedium:   medium,
			alert.SeverityLow:      low,
		}
		generic, slack, discord, _, _ := cfg.Webhooks()
		mgr := alert.New(watchlists, notify, alert.WebhookTargets{Generic: generic, Slack: slack, Discord: discord}, 60)

		eng := engine.New(cfg, st, g, mgr, sink)

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if err := eng.Run(ctx); err != nil {
			return fmt.Errorf("crawl: %w", err)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringArrayVar(&seedURLs, "seed-url", nil, "one or more .onion seed URLs (can be repeated)")
	runCmd.Flags().IntVar(&maxDepth, "max-depth", 0, "override max crawl depth (0 keeps the config/default value)")
	runCmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "override worker pool size (0 keeps the config/default value)")
	runCmd.Flags().StringArrayVar(&internalDomains, "internal-domain", nil, "domains that should never appear on a hidden service (triggers CRITICAL)")
	runCmd.Flags().StringArrayVar(&watchlistDomains, "watch-domain", nil, "domains to flag on sight (triggers HIGH)")
	runCmd.Flags().StringArrayVar(&watchlistEmails, "watch-email", nil, "email addresses to flag on sight")
	runCmd.Flags().StringArrayVar(&watchlistWallets, "watch-wallet", nil, "wallet addresses to flag on sight")
	runCmd.Flags().StringVar(&webhookGeneric, "webhook-generic", "", "generic JSON webhook URL for alert fanout")
	runCmd.Flags().StringVar(&webhookSlack, "webhook-slack", "", "Slack-compatible webhook URL for alert fanout")
	runCmd.Flags().StringVar(&webhookDiscord, "webhook-discord", "", "Discord-compatible webhook URL for alert fanout")
	rootCmd.AddCommand(runCmd)
}
