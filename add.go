package main

import (
	"strings"

	"github.com/spf13/cobra"
)

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <weekday> <title>",
		Short: "Add an event on a day of the week",
		Example: "  gcalweek add Monday Practice\n" +
			"  gcalweek --date 2006-10-11 add Friday \"Team dinner\"",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.requireLogin(ctx); err != nil {
				return err
			}
			if err := a.session.Refresh(ctx); err != nil {
				return err
			}
			weekday := normalizeWeekday(args[0])
			if err := a.session.AddEvent(ctx, weekday, strings.Join(args[1:], " ")); err != nil {
				return err
			}
			return a.page.Flush()
		},
	}
}

// normalizeWeekday turns "monday" or "MON" into "Monday". Unknown input is
// returned unchanged.
func normalizeWeekday(s string) string {
	in := strings.ToLower(strings.TrimSpace(s))
	if len(in) < 2 {
		return s
	}
	for _, name := range weekdayNames {
		if strings.HasPrefix(strings.ToLower(name), in) {
			return name
		}
	}
	return s
}
