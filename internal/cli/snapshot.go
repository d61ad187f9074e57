package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"registry-pruner/internal/adapters"
	"registry-pruner/internal/app"
	"registry-pruner/internal/shared"
	"registry-pruner/internal/types"
)

type snapshotOptions struct {
	Registries      []string
	RegistryBackend string
	AWSRegion       string
	AWSEndpoint     string
	AWSRegistryID   string
	RegistryFile    string
	Output          string
	Force           bool
}

var snapshotFlagBindings = []flagBinding{
	{key: "registries", flag: "registries"},
	{key: "registry_backend", flag: "registry-backend"},
	{key: "aws_region", flag: "aws-region"},
	{key: "aws_endpoint", flag: "aws-endpoint"},
	{key: "aws_registry_id", flag: "aws-registry-id"},
	{key: "registry_file", flag: "registry-file"},
}

func newSnapshotCommand() *cobra.Command {
	opts := snapshotOptions{}
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Write the images of the configured repositories to a registry file",
		Long: "Captures the configured repositories into the YAML format of the file " +
			"registry backend, so a prune run can be rehearsed offline.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSnapshot(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringSliceVar(&opts.Registries, "registries", nil, "Registry repositories to capture (comma-separated); required")
	cmd.Flags().StringVar(&opts.RegistryBackend, "registry-backend", string(types.RegistryBackendECR), "Registry backend (ecr or file)")
	cmd.Flags().StringVar(&opts.AWSRegion, "aws-region", "", "AWS region of the ECR registry")
	cmd.Flags().StringVar(&opts.AWSEndpoint, "aws-endpoint", "", "ECR endpoint override (local emulators)")
	cmd.Flags().StringVar(&opts.AWSRegistryID, "aws-registry-id", "", "ECR registry id (defaults to the caller's account)")
	cmd.Flags().StringVar(&opts.RegistryFile, "registry-file", "", "Registry snapshot YAML for the file backend")
	cmd.Flags().StringVar(&opts.Output, "output", "", "Snapshot file to write; required")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Overwrite an existing snapshot file")
	return cmd
}

func runSnapshot(ctx context.Context, cmd *cobra.Command, opts snapshotOptions) error {
	for _, binding := range snapshotFlagBindings {
		if flag := cmd.Flags().Lookup(binding.flag); flag != nil {
			_ = viper.BindPFlag(binding.key, flag)
		}
	}
	resolved := snapshotOptions{
		Registries:      resolveStrings(cmd, opts.Registries, "registries", "registries"),
		RegistryBackend: resolveString(cmd, opts.RegistryBackend, "registry_backend", "registry-backend"),
		AWSRegion:       resolveString(cmd, opts.AWSRegion, "aws_region", "aws-region"),
		AWSEndpoint:     resolveString(cmd, opts.AWSEndpoint, "aws_endpoint", "aws-endpoint"),
		AWSRegistryID:   resolveString(cmd, opts.AWSRegistryID, "aws_registry_id", "aws-registry-id"),
		RegistryFile:    resolveString(cmd, opts.RegistryFile, "registry_file", "registry-file"),
		Output:          strings.TrimSpace(opts.Output),
		Force:           opts.Force,
	}
	repositories, backend, err := resolved.Validate()
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), viper.GetString("log_level"), viper.GetString("log_format"))
	registry, err := app.BuildRegistry(ctx, backend)
	if err != nil {
		return err
	}
	service := app.NewService(registry, nil, types.DefaultRetentionPolicy(), logger)
	snapshot, err := service.SnapshotRepositories(ctx, app.SnapshotRequest{Repositories: repositories})
	if err != nil {
		return err
	}
	if err := adapters.WriteRegistrySnapshot(resolved.Output, snapshot, resolved.Force); err != nil {
		return err
	}
	images := 0
	for _, records := range snapshot.Repositories {
		images += len(records)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d repositories (%d images) to %s\n", len(snapshot.Repositories), images, resolved.Output)
	return nil
}

func (o snapshotOptions) Validate() ([]string, app.BackendConfig, error) {
	var problems []string
	repositories := shared.SplitList(o.Registries)
	if len(repositories) == 0 {
		problems = append(problems, "registries is required")
	}
	registryBackend, registryProblems := checkRegistryBackend(o.RegistryBackend, o.AWSRegion, o.RegistryFile)
	problems = append(problems, registryProblems...)
	if o.Output == "" {
		problems = append(problems, "output is required")
	}
	if len(problems) > 0 {
		return nil, app.BackendConfig{}, invalidConfiguration(problems)
	}
	return repositories, app.BackendConfig{
		RegistryBackend: registryBackend,
		AWSRegion:       strings.TrimSpace(o.AWSRegion),
		AWSEndpoint:     strings.TrimSpace(o.AWSEndpoint),
		AWSRegistryID:   strings.TrimSpace(o.AWSRegistryID),
		RegistryFile:    strings.TrimSpace(o.RegistryFile),
	}, nil
}
