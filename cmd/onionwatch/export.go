package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/onionwatch/onionwatch/internal/boundary"
	"github.com/onionwatch/onionwatch/internal/store"
)

var (
	exportOutput       string
	exportDomain       string
	exportMinRiskScore int
	exportStatus       int
)

var exportCmd = &cobra.Command{
	Use:   "export {json|csv|emails|crypto}",
	Short: "Write one of the documented export formats to --output.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, st, err := openBoundary()
		if err != nil {
			return err
		}
		defer st.Close()

		var kind boundary.ExportKind
		switch args[0] {
		case "json":
			kind = boundary.ExportKindJSON
		case "csv":
			kind = boundary.ExportKindCSV
		case "emails":
			kind = boundary.ExportKindEmails
		case "crypto":
			kind = boundary.ExportKindCrypto
		default:
			return fmt.Errorf("unknown export kind %q (want json, csv, emails, or crypto)", args[0])
		}
		if exportOutput == "" {
			return fmt.Errorf("--output is required")
		}

		filter := store.ExportFilter{DomainEquals: exportDomain, MinRiskScore: exportMinRiskScore}
		if cmd.Flags().Changed("status") {
			filter.StatusEquals = &exportStatus
		}

		exitOnFailure(b.Export(kind, exportOutput, filter))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOutput, "output", "", "destination file path")
	exportCmd.Flags().StringVar(&exportDomain, "domain", "", "restrict export to one domain")
	exportCmd.Flags().IntVar(&exportMinRiskScore, "min-risk-score", 0, "restrict export to pages at or above this risk score")
	exportCmd.Flags().IntVar(&exportStatus, "status", 0, "restrict export to pages with this HTTP status")
	rootCmd.AddCommand(exportCmd)
}
