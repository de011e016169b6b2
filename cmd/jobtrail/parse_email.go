package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jonathan/jobtrail/internal/ingestion"
	"github.com/spf13/cobra"
)

var (
	parseEmailFile string
	parseEmailHTML bool
)

var parseEmailCmd = &cobra.Command{
	Use:   "parse-email",
	Short: "Extract job details from an email",
	Long:  `Run the email heuristics over a saved message and print the extracted fields as JSON. Nothing is stored.`,
	RunE:  runParseEmail,
}

func init() {
	parseEmailCmd.Flags().StringVarP(&parseEmailFile, "file", "f", "", "Email file, or - for stdin")
	parseEmailCmd.Flags().BoolVar(&parseEmailHTML, "html", false, "Treat the input as an HTML body")
	_ = parseEmailCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(parseEmailCmd)
}

func runParseEmail(cmd *cobra.Command, _ []string) error {
	var (
		content []byte
		err     error
	)
	if parseEmailFile == "-" {
		content, err = io.ReadAll(cmd.InOrStdin())
	} else {
		content, err = os.ReadFile(parseEmailFile)
	}
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}

	var extracted ingestion.ExtractedJob
	if parseEmailHTML {
		if extracted, err = ingestion.ParseJobEmailHTML(string(content)); err != nil {
			return fmt.Errorf("failed to parse HTML email: %w", err)
		}
	} else {
		extracted = ingestion.ParseJobEmail(string(content))
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(extracted)
}
