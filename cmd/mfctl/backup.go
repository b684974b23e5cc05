package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"moneyflow/internal/services"
)

func newBackupCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export, import, wipe or snapshot the dataset",
	}
	cmd.AddCommand(newBackupExportCmd(e), newBackupImportCmd(e), newBackupClearCmd(e), newBackupRequestCmd(e))
	return cmd
}

func newBackupExportCmd(e *env) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole dataset as JSON",
		Long:  "Writes to stdout unless --out names a file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.services(cmd.Context())
			if err != nil {
				return err
			}
			b, err := a.backup.Export(cmd.Context())
			if err != nil {
				return err
			}
			data, err := b.Encode()
			if err != nil {
				return fmt.Errorf("encode backup: %w", err)
			}
			if out == "" || out == "-" {
				_, err = fmt.Fprintf(e.out, "%s\n", data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(e.out, "Exported %d transactions, %d goals and %d quick notes to %s\n",
				len(b.Transactions), len(b.Goals), len(b.QuickNotes), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "file to write (default stdout)")
	return cmd
}

func newBackupImportCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the dataset with a backup file (- reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read backup: %w", err)
			}
			b, err := services.ParseBackup(data)
			if err != nil {
				return err
			}

			a, err := e.services(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.backup.Import(cmd.Context(), b); err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Imported %d transactions, %d goals and %d quick notes\n",
				len(b.Transactions), len(b.Goals), len(b.QuickNotes))
			return nil
		},
	}
}

var errNotConfirmed = errors.New("refusing to clear data without --yes")

func newBackupClearCmd(e *env) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every transaction, goal and note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errNotConfirmed
			}
			a, err := e.services(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.backup.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(e.out, "All data cleared")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the wipe")
	return cmd
}

func newBackupRequestCmd(e *env) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Queue a server-side snapshot, or write one now without a broker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.services(cmd.Context())
			if err != nil {
				return err
			}
			receipt, err := a.backup.RequestBackup(cmd.Context(), reason)
			if err != nil {
				return err
			}
			if receipt.Queued {
				fmt.Fprintf(e.out, "Backup request %s queued\n", receipt.RequestID)
				return nil
			}
			fmt.Fprintf(e.out, "Backup written to %s\n", receipt.Path)
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "mfctl", "recorded with the request")
	return cmd
}
