package main

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"moneyflow/internal/tips"
)

func newTipsCmd(e *env) *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "tips",
		Short: "Print the financial tips",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := tips.All()
			if err != nil {
				return err
			}
			md := tips.Markdown(list)
			if plain {
				_, err := fmt.Fprint(e.out, md)
				return err
			}

			renderer, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(80),
			)
			if err != nil {
				return fmt.Errorf("markdown renderer: %w", err)
			}
			out, err := renderer.Render(md)
			if err != nil {
				return fmt.Errorf("render tips: %w", err)
			}
			_, err = fmt.Fprint(e.out, out)
			return err
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print raw markdown")
	return cmd
}
