package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newCleanupCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Forget the login, cached events, queued changes and conflicts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}

			changes, err := a.backend.store.pendingChanges()
			if err != nil {
				return err
			}
			if !yes {
				msg := "⚠️  Remove all local calendar data? (y/N): "
				if len(changes) > 0 {
					msg = fmt.Sprintf("⚠️  %d queued change(s) were never sent. Remove all local calendar data? (y/N): ", len(changes))
				}
				answer := prompt(bufio.NewReader(os.Stdin), msg)
				if answer != "y" && answer != "Y" {
					fmt.Println("❌ Cleanup cancelled")
					return nil
				}
			}

			if err := a.backend.Cleanup(); err != nil {
				return err
			}
			fmt.Println("✅ Local calendar data removed")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
