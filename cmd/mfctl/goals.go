package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"moneyflow/internal/core"
	"moneyflow/internal/stats"
)

func newGoalsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "goals",
		Aliases: []string{"goal"},
		Short:   "Manage savings goals",
	}
	cmd.AddCommand(newGoalsAddCmd(e), newGoalsListCmd(e), newGoalsContributeCmd(e), newGoalsRmCmd(e))
	return cmd
}

func newGoalsAddCmd(e *env) *cobra.Command {
	var target, current, deadline, category string
	cmd := &cobra.Command{
		Use:     "add TITLE...",
		Short:   "Create a savings goal",
		Example: `  mfctl goals add --target 150000 --deadline 2026-06-01 --category travel Summer trip`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cents, err := core.ParseDecimalToCents(target)
			if err != nil {
				return fmt.Errorf("target: %w", err)
			}
			g := core.Goal{Title: strings.Join(args, " "), Target: core.Money{Cents: cents}}
			if current != "" {
				d, err := core.ParseDecimal(current)
				if err == nil {
					g.Current.Cents, err = core.DecimalToCents(d, true)
				}
				if err != nil {
					return fmt.Errorf("current: %w", err)
				}
			}
			if g.Category, err = core.ParseGoalCategory(category); err != nil {
				return err
			}
			if deadline != "" {
				if g.Deadline, err = core.ParseDate(deadline); err != nil {
					return fmt.Errorf("deadline: %w", err)
				}
			}

			a, err := e.services(cmd.Context())
			if err != nil {
				return err
			}
			saved, err := a.goals.Create(cmd.Context(), g)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Created goal #%d %s (%s of %s)\n",
				saved.ID, saved.Title, saved.Current.Format(e.currency()), saved.Target.Format(e.currency()))
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "amount to reach")
	cmd.Flags().StringVar(&current, "current", "", "amount already saved")
	cmd.Flags().StringVar(&deadline, "deadline", "", "YYYY-MM-DD")
	cmd.Flags().StringVar(&category, "category", "", "travel, car, home, education, electronics, health or other")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func newGoalsListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List goals with their progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.services(cmd.Context())
			if err != nil {
				return err
			}
			view, err := a.goals.List(cmd.Context())
			if err != nil {
				return err
			}

			cur := e.currency()
			tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tSAVED\tTARGET\tPROGRESS\tDEADLINE")
			for _, g := range view.Goals {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s%%\t%s\n", g.ID, g.Title, g.Category,
					g.Current.Format(cur), g.Target.Format(cur), g.Progress.StringFixed(0), deadlineText(g))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			s := view.Summary
			fmt.Fprintf(e.out, "\n%d goals, %d completed, %s of %s saved (%s%%)\n",
				s.Count, s.Completed, s.TotalCurrent.Format(cur), s.TotalTarget.Format(cur), s.Progress.StringFixed(0))
			return nil
		},
	}
}

func deadlineText(g stats.GoalView) string {
	switch {
	case g.Completed:
		return "completed"
	case !g.HasDeadline:
		return "-"
	case g.DaysLeft < 0:
		return fmt.Sprintf("%s (overdue %dd)", g.Deadline, -g.DaysLeft)
	}
	return fmt.Sprintf("%s (%dd left)", g.Deadline, g.DaysLeft)
}

func newGoalsContributeCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "contribute ID AMOUNT",
		Short: "Add money to a goal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cents, err := core.ParseDecimalToCents(args[1])
			if err != nil {
				return err
			}
			a, err := e.services(cmd.Context())
			if err != nil {
				return err
			}
			g, err := a.goals.Contribute(cmd.Context(), id, core.Money{Cents: cents})
			if err != nil {
				return fmt.Errorf("goal %d: %w", id, err)
			}
			cur := e.currency()
			if g.Completed {
				fmt.Fprintf(e.out, "Goal #%d %s reached: %s\n", g.ID, g.Title, g.Current.Format(cur))
				return nil
			}
			fmt.Fprintf(e.out, "Goal #%d %s: %s of %s\n", g.ID, g.Title, g.Current.Format(cur), g.Target.Format(cur))
			return nil
		},
	}
}

func newGoalsRmCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a goal",
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
			if err := a.goals.Delete(cmd.Context(), id); err != nil {
				return fmt.Errorf("goal %d: %w", id, err)
			}
			fmt.Fprintf(e.out, "Deleted goal #%d\n", id)
			return nil
		},
	}
}
