package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"chessd/internal/config"
)

func newNotifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Notification queue tools",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "consume",
		Short: "Deliver queued turn notifications until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.closeLogged()

			if a.cfg.NotifyDriver != config.NotifyRedis {
				return fmt.Errorf("notify consume needs NOTIFY_DRIVER=%s", config.NotifyRedis)
			}
			c, err := a.consumer(cmd.Context())
			if err != nil {
				return err
			}
			return c.Run(cmd.Context())
		},
	})
	return cmd
}
