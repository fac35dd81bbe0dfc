// Package main provides the zzpkit scheduler, a thin cron loop that
// triggers the API's scheduled-automation sweep once per minute. A
// Redis lock keeps the sweep single-flight when multiple replicas run.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	cli "github.com/urfave/cli/v3"
	"github.com/zzpkit/zzpkit/pkg/log"
)

func main() {
	logger := log.WithModule("scheduler")

	command := &cli.Command{
		Name:                  "zzpkit-scheduler",
		Usage:                 "Trigger scheduled automation runs",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "api-url",
				Usage:    "Base URL of the zzpkit API",
				Required: true,
				Sources:  cli.EnvVars("API_URL"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis connection URL for the scheduler lock; empty disables locking",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "cron",
				Usage:   "Cron expression for the sweep",
				Value:   "* * * * *",
				Sources: cli.EnvVars("SCHEDULER_CRON"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   "text",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			scheduler, err := NewScheduler(
				logger,
				command.String("api-url"),
				command.String("redis-url"),
			)
			if err != nil {
				return err
			}

			c := cron.New()

			_, err = c.AddFunc(command.String("cron"), func() {
				scheduler.Tick(ctx)
			})
			if err != nil {
				return err
			}

			logger.InfoContext(ctx, "Starting scheduler", "cron", command.String("cron"))
			c.Start()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			<-stop

			logger.InfoContext(ctx, "Stopping scheduler")
			<-c.Stop().Done()
			scheduler.Close()

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
