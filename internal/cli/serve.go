package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"registry-pruner/internal/app"
)

func newServeCommand() *cobra.Command {
	opts := prunerOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run immediately, then every day at --schedule-at",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd, opts)
		},
	}
	addPrunerFlags(cmd, &opts)
	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, opts prunerOptions) error {
	cfg, err := loadPrunerConfig(cmd, opts)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), viper.GetString("log_level"), viper.GetString("log_format"))
	service, err := newAppService(ctx, cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := app.NewScheduler(cfg.ScheduleAt, func(ctx context.Context) error {
		_, err := service.PruneRepositories(ctx, app.PruneRequest{
			Repositories: cfg.Repositories,
			Apply:        cfg.Apply,
		})
		return err
	}, logger)
	logger.Info().
		Str("schedule_at", cfg.ScheduleAt.String()).
		Strs("repositories", cfg.Repositories).
		Bool("apply", cfg.Apply).
		Msg("scheduler started")
	return scheduler.Start(ctx)
}
