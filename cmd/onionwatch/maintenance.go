package main

import (
	"github.com/spf13/cobra"
)

var (
	purgeDays      int
	purgeAnonymize bool
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete or anonymize pages older than --days.",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, st, err := openBoundary()
		if err != nil {
			return err
		}
		defer st.Close()
		exitOnFailure(b.Purge(purgeDays, purgeAnonymize))
		return nil
	},
}

var vacuumCmd = &cobra.Command{
	Use:   "vacuum",
	Short: "Reclaim SQLite free space, typically run right after purge.",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, st, err := openBoundary()
		if err != nil {
			return err
		}
		defer st.Close()
		exitOnFailure(b.Vacuum())
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the durable store's aggregate counters.",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, st, err := openBoundary()
		if err != nil {
			return err
		}
		defer st.Close()
		exitOnFailure(b.Stats())
		return nil
	},
}

func init() {
	purgeCmd.Flags().IntVar(&purgeDays, "days", 90, "purge rows last crawled more than this many days ago")
	purgeCmd.Flags().BoolVar(&purgeAnonymize, "anonymize", false, "strip secrets/PII instead of deleting the row outright")
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(vacuumCmd)
	rootCmd.AddCommand(statsCmd)
}
