package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	exportUser string
	exportOut  string
	importUser string
	importIn   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a user's data as a JSON snapshot",
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a JSON snapshot for a user",
	Long:  `Validate a snapshot document and insert its records for --user with fresh ids.`,
	RunE:  runImport,
}

func init() {
	exportCmd.Flags().StringVar(&exportUser, "user", "", "Owner id (uuid)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default stdout)")
	importCmd.Flags().StringVar(&importUser, "user", "", "Owner id (uuid)")
	importCmd.Flags().StringVarP(&importIn, "in", "i", "", "Snapshot file, or - for stdin")
	_ = importCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(exportCmd, importCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	owner, err := parseOwner(exportUser)
	if err != nil {
		return err
	}
	rt, err := openRuntime(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer rt.Close()

	data, err := rt.svc.Snapshot.ExportJSON(cmd.Context(), owner)
	if err != nil {
		return err
	}
	if exportOut == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}
	if err := os.WriteFile(exportOut, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", exportOut, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", exportOut)
	return nil
}

func runImport(cmd *cobra.Command, _ []string) error {
	owner, err := parseOwner(importUser)
	if err != nil {
		return err
	}

	var data []byte
	if importIn == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(importIn)
	}
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	rt, err := openRuntime(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer rt.Close()

	result, err := rt.svc.Snapshot.ImportJSON(cmd.Context(), owner, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d jobs, %d contacts, %d follow-ups, %d templates (%d follow-ups skipped)\n",
		result.Jobs, result.Contacts, result.FollowUps, result.Templates, result.Skipped)
	return nil
}
