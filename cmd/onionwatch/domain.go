package main

import (
	"strconv"

	"github.com/spf13/cobra"
)

var domainCmd = &cobra.Command{
	Use:   "domain",
	Short: "Inspect and adjust per-domain crawl policy.",
}

var domainListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every domain intel has seen, with its current policy.",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, st, err := openBoundary()
		if err != nil {
			return err
		}
		defer st.Close()
		exitOnFailure(b.DomainList())
		return nil
	},
}

var domainBoostCmd = &cobra.Command{
	Use:   "boost <domain> <delta>",
	Short: "Raise or lower a domain's crawl priority.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		delta, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		b, st, err := openBoundary()
		if err != nil {
			return err
		}
		defer st.Close()
		exitOnFailure(b.BoostDomain(args[0], delta))
		return nil
	},
}

var domainFreezeCmd = &cobra.Command{
	Use:   "freeze <domain>",
	Short: "Stop admitting new URLs for a domain.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, st, err := openBoundary()
		if err != nil {
			return err
		}
		defer st.Close()
		exitOnFailure(b.FreezeDomain(args[0]))
		return nil
	},
}

var domainUnfreezeCmd = &cobra.Command{
	Use:   "unfreeze <domain>",
	Short: "Reverse a prior freeze.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, st, err := openBoundary()
		if err != nil {
			return err
		}
		defer st.Close()
		exitOnFailure(b.UnfreezeDomain(args[0]))
		return nil
	},
}

func init() {
	domainCmd.AddCommand(domainListCmd, domainBoostCmd, domainFreezeCmd, domainUnfreezeCmd)
	rootCmd.AddCommand(domainCmd)
}
