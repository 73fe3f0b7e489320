package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"chessd/pkg/reaper"
)

func newReapCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "reap {finished|stale}",
		Short:     "Run one reaper job and exit",
		Long:      "Deletes finished games, or games idle for longer than STALE_AFTER, once. Meant for external cron.",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{reaper.JobFinished, reaper.JobStale},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.closeLogged()

			n, err := a.scheduler().Reap(cmd.Context(), args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d %s games\n", n, args[0])
			return err
		},
	}
}
