package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newNotesCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Read or replace the free-text notes",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the notes",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := e.services(cmd.Context())
				if err != nil {
					return err
				}
				text, err := a.notes.Notes(cmd.Context())
				if err != nil {
					return err
				}
				if text == "" {
					fmt.Fprintln(e.out, "(no notes)")
					return nil
				}
				fmt.Fprintln(e.out, text)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set TEXT...",
			Short: "Replace the notes",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := e.services(cmd.Context())
				if err != nil {
					return err
				}
				if err := a.notes.SaveNotes(cmd.Context(), strings.Join(args, " ")); err != nil {
					return err
				}
				fmt.Fprintln(e.out, "Notes saved")
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove the notes",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := e.services(cmd.Context())
				if err != nil {
					return err
				}
				if err := a.notes.ClearNotes(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(e.out, "Notes cleared")
				return nil
			},
		},
	)
	return cmd
}

func newQuickCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quick",
		Short: "Manage the quick-note checklist",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List quick notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.services(cmd.Context())
			if err != nil {
				return err
			}
			view, err := a.notes.QuickNotes(cmd.Context())
			if err != nil {
				return err
			}
			for _, n := range view.Items {
				mark := " "
				if n.Completed {
					mark = "x"
				}
				fmt.Fprintf(e.out, "[%s] #%d %s\n", mark, n.ID, n.Text)
			}
			fmt.Fprintf(e.out, "%d / %d done\n", view.Done, len(view.Items))
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add TEXT...",
		Short: "Add a quick note",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.services(cmd.Context())
			if err != nil {
				return err
			}
			n, err := a.notes.AddQuickNote(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Added quick note #%d\n", n.ID)
			return nil
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle ID",
		Short: "Flip a quick note between done and open",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := e.services(cmd.Context())
			if err != nil {
				return err
			}
			n, err := a.notes.ToggleQuickNote(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("quick note %d: %w", id, err)
			}
			state := "open"
			if n.Completed {
				state = "done"
			}
			fmt.Fprintf(e.out, "Quick note #%d is %s\n", n.ID, state)
			return nil
		},
	}

	rm := &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a quick note",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := e.services(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.notes.DeleteQuickNote(cmd.Context(), id); err != nil {
				return fmt.Errorf("quick note %d: %w", id, err)
			}
			fmt.Fprintf(e.out, "Deleted quick note #%d\n", id)
			return nil
		},
	}

	cmd.AddCommand(add, toggle, rm, list)
	return cmd
}
