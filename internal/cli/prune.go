package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"registry-pruner/internal/app"
	"registry-pruner/internal/types"
)

func newPruneCommand() *cobra.Command {
	opts := prunerOptions{}
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Evaluate every configured repository once and delete or report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPrune(cmd.Context(), cmd, opts)
		},
	}
	addPrunerFlags(cmd, &opts)
	return cmd
}

func runPrune(ctx context.Context, cmd *cobra.Command, opts prunerOptions) error {
	cfg, err := loadPrunerConfig(cmd, opts)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), viper.GetString("log_level"), viper.GetString("log_format"))
	service, err := newAppService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	result, err := service.PruneRepositories(ctx, app.PruneRequest{
		Repositories: cfg.Repositories,
		Apply:        cfg.Apply,
	})
	if err != nil {
		return err
	}
	printPruneResult(cmd.OutOrStdout(), result)
	return nil
}

func newAppService(ctx context.Context, cfg PrunerConfig, logger zerolog.Logger) (app.Service, error) {
	registry, err := app.BuildRegistry(ctx, cfg.Backend)
	if err != nil {
		return app.Service{}, err
	}
	branches, err := app.BuildBranchSource(cfg.Backend)
	if err != nil {
		return app.Service{}, err
	}
	return app.NewService(registry, branches, cfg.Policy, logger), nil
}

func printPruneResult(out io.Writer, result app.PruneResult) {
	mode := "dry-run"
	if result.Apply {
		mode = "apply"
	}
	for _, report := range result.Reports {
		if report.Skipped {
			fmt.Fprintf(out, "%s: skipped (%s)\n", report.Repository, errorMessage(report.Err))
			continue
		}
		counts := report.Plan.CountByReason()
		fmt.Fprintf(out, "%s: images=%d %s=%d %s=%d %s=%d deleted=%d failed=%d\n",
			report.Repository,
			report.ImageCount,
			types.DeletionReasonClosedBranch, counts[types.DeletionReasonClosedBranch],
			types.DeletionReasonOldBuild, counts[types.DeletionReasonOldBuild],
			types.DeletionReasonOrphan, counts[types.DeletionReasonOrphan],
			report.Deleted,
			report.Failed,
		)
		if report.Err != nil {
			fmt.Fprintf(out, "  error: %s\n", errorMessage(report.Err))
		}
		if !report.BranchesLoaded {
			fmt.Fprintln(out, "  closed branch detection skipped")
		}
	}
	planned, deleted, failed := result.Totals()
	fmt.Fprintf(out, "%s: planned=%d deleted=%d failed=%d\n", mode, planned, deleted, failed)
}
