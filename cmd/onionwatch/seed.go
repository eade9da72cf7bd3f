package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed [url...]",
	Short: "Admit one or more .onion URLs as pending seeds without starting a crawl.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, st, err := openBoundary()
		if err != nil {
			return err
		}
		defer st.Close()
		exitOnFailure(b.AddSeeds(args))
		return nil
	},
}

var markCmd = &cobra.Command{
	Use:   "mark <url> {important|false_positive|clear}",
	Short: "Record an operator triage decision against an already-crawled URL.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, st, err := openBoundary()
		if err != nil {
			return err
		}
		defer st.Close()

		mark := args[1]
		if mark == "clear" {
			mark = ""
		}
		if mark != "important" && mark != "false_positive" && mark != "" {
			return fmt.Errorf("mark must be important, false_positive, or clear")
		}
		exitOnFailure(b.MarkIntel(args[0], mark))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(markCmd)
}
