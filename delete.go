package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <event-id>",
		Short: "Delete an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.requireLogin(ctx); err != nil {
				return err
			}

			eventID := args[0]
			if !yes {
				answer := prompt(bufio.NewReader(os.Stdin), fmt.Sprintf("⚠️  Are you sure you want to delete event %s? (y/N): ", eventID))
				if answer != "y" && answer != "Y" {
					fmt.Println("❌ Event deletion cancelled")
					return nil
				}
			}

			if err := a.session.Refresh(ctx); err != nil {
				return err
			}
			if err := a.session.DeleteEvent(ctx, eventID); err != nil {
				return err
			}
			fmt.Printf("✅ Event %s deleted\n", eventID)
			return a.page.Flush()
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
