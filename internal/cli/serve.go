package cli

import (
	"context"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"chessd/internal/config"
	"chessd/internal/routing"
	"chessd/pkg/handlers"
)

const (
	consumerBlock = 5 * time.Second
	closeTimeout  = 10 * time.Second
)

func newServeCmd() *cobra.Command {
	var (
		consume bool
		noReap  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the reaper scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.closeLogged()

			svc, err := a.service(ctx)
			if err != nil {
				return err
			}
			sched := a.scheduler()

			var wg sync.WaitGroup
			defer wg.Wait()

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			if !noReap {
				wg.Add(1)
				go func() {
					defer wg.Done()
					sched.Run(ctx)
				}()
			}

			if consume && a.cfg.NotifyDriver == config.NotifyRedis {
				c, err := a.consumer(ctx)
				if err != nil {
					return err
				}
				wg.Add(1)
				go func() {
					defer wg.Done()
					if err := c.Run(ctx); err != nil {
						a.logger.Error("notification consumer stopped", "error", err)
					}
				}()
			}

			router := routing.NewRouter(
				handlers.NewGameHandler(svc, a.logger),
				handlers.NewAdminHandler(sched, a.logger),
				a.cfg.JWTSecret,
				a.logger,
			)
			err = routing.StartServer(ctx, a.cfg.HTTPAddr, router, a.logger)
			cancel()
			return err
		},
	}

	cmd.Flags().BoolVar(&consume, "consume", false, "also run the notification consumer in this process")
	cmd.Flags().BoolVar(&noReap, "no-reap", false, "do not schedule the reaper jobs")
	return cmd
}
