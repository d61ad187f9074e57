package cli

import (
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"registry-pruner/internal/app"
	"registry-pruner/internal/shared"
	"registry-pruner/internal/types"
)

const defaultScheduleAt = "01:00"

// prunerOptions holds the raw flag values shared by prune and serve.
type prunerOptions struct {
	DeleteImages    string
	Registries      []string
	RegistryBackend string
	AWSRegion       string
	AWSEndpoint     string
	AWSRegistryID   string
	RegistryFile    string
	BranchBackend   string
	GitHubToken     string
	GitHubOwner     string
	GitHubBaseURL   string
	GitHubRetries   int
	StaticBranches  []string
	KeepDevelop     int
	KeepMaster      int
	KeepFeature     int
	ScheduleAt      string
}

// PrunerConfig is the validated configuration of a prune run.
type PrunerConfig struct {
	Apply        bool
	Repositories []string
	Backend      app.BackendConfig
	Policy       types.RetentionPolicy
	ScheduleAt   app.DailyTime
}

type flagBinding struct {
	key  string
	flag string
}

var prunerFlagBindings = []flagBinding{
	{key: "delete_images", flag: "delete-images"},
	{key: "registries", flag: "registries"},
	{key: "registry_backend", flag: "registry-backend"},
	{key: "aws_region", flag: "aws-region"},
	{key: "aws_endpoint", flag: "aws-endpoint"},
	{key: "aws_registry_id", flag: "aws-registry-id"},
	{key: "registry_file", flag: "registry-file"},
	{key: "branch_backend", flag: "branch-backend"},
	{key: "github_token", flag: "github-token"},
	{key: "github_owner", flag: "github-owner"},
	{key: "github_base_url", flag: "github-base-url"},
	{key: "github_retries", flag: "github-retries"},
	{key: "static_branches", flag: "static-branch"},
	{key: "keep_develop", flag: "keep-develop"},
	{key: "keep_master", flag: "keep-master"},
	{key: "keep_feature", flag: "keep-feature"},
	{key: "schedule_at", flag: "schedule-at"},
}

func addPrunerFlags(cmd *cobra.Command, opts *prunerOptions) {
	cmd.Flags().StringVar(&opts.DeleteImages, "delete-images", "", "Apply deletions (1/true) or only log them (0/false); required")
	cmd.Flags().StringSliceVar(&opts.Registries, "registries", nil, "Registry repositories to evaluate (comma-separated); required")
	cmd.Flags().StringVar(&opts.RegistryBackend, "registry-backend", string(types.RegistryBackendECR), "Registry backend (ecr or file)")
	cmd.Flags().StringVar(&opts.AWSRegion, "aws-region", "", "AWS region of the ECR registry")
	cmd.Flags().StringVar(&opts.AWSEndpoint, "aws-endpoint", "", "ECR endpoint override (local emulators)")
	cmd.Flags().StringVar(&opts.AWSRegistryID, "aws-registry-id", "", "ECR registry id (defaults to the caller's account)")
	cmd.Flags().StringVar(&opts.RegistryFile, "registry-file", "", "Registry snapshot YAML for the file backend")
	cmd.Flags().StringVar(&opts.BranchBackend, "branch-backend", string(types.BranchBackendGitHub), "Branch source (github or static)")
	cmd.Flags().StringVar(&opts.GitHubToken, "github-token", "", "GitHub access token")
	cmd.Flags().StringVar(&opts.GitHubOwner, "github-owner", "", "GitHub owner for repositories without an owner/ prefix")
	cmd.Flags().StringVar(&opts.GitHubBaseURL, "github-base-url", "", "GitHub Enterprise API URL")
	cmd.Flags().IntVar(&opts.GitHubRetries, "github-retries", 3, "GitHub API retries (0 = default)")
	cmd.Flags().StringSliceVar(&opts.StaticBranches, "static-branch", nil, "Active branches for the static branch backend")
	cmd.Flags().IntVar(&opts.KeepDevelop, "keep-develop", types.DefaultKeepDevelop, "Builds kept on develop")
	cmd.Flags().IntVar(&opts.KeepMaster, "keep-master", types.DefaultKeepMaster, "Builds kept on master")
	cmd.Flags().IntVar(&opts.KeepFeature, "keep-feature", types.DefaultKeepFeature, "Builds kept per feature branch")
	cmd.Flags().StringVar(&opts.ScheduleAt, "schedule-at", defaultScheduleAt, "Daily run time for serve (HH:MM)")
}

// bindPrunerFlags binds the flags of the running command only, since prune
// and serve declare the same keys.
func bindPrunerFlags(cmd *cobra.Command) {
	for _, binding := range prunerFlagBindings {
		if flag := cmd.Flags().Lookup(binding.flag); flag != nil {
			_ = viper.BindPFlag(binding.key, flag)
		}
	}
}

func loadPrunerConfig(cmd *cobra.Command, opts prunerOptions) (PrunerConfig, error) {
	if cmd != nil {
		bindPrunerFlags(cmd)
	}
	raw := prunerOptions{
		DeleteImages:    resolveString(cmd, opts.DeleteImages, "delete_images", "delete-images"),
		Registries:      resolveStrings(cmd, opts.Registries, "registries", "registries"),
		RegistryBackend: resolveString(cmd, opts.RegistryBackend, "registry_backend", "registry-backend"),
		AWSRegion:       resolveString(cmd, opts.AWSRegion, "aws_region", "aws-region"),
		AWSEndpoint:     resolveString(cmd, opts.AWSEndpoint, "aws_endpoint", "aws-endpoint"),
		AWSRegistryID:   resolveString(cmd, opts.AWSRegistryID, "aws_registry_id", "aws-registry-id"),
		RegistryFile:    resolveString(cmd, opts.RegistryFile, "registry_file", "registry-file"),
		BranchBackend:   resolveString(cmd, opts.BranchBackend, "branch_backend", "branch-backend"),
		GitHubToken:     resolveString(cmd, opts.GitHubToken, "github_token", "github-token"),
		GitHubOwner:     resolveString(cmd, opts.GitHubOwner, "github_owner", "github-owner"),
		GitHubBaseURL:   resolveString(cmd, opts.GitHubBaseURL, "github_base_url", "github-base-url"),
		GitHubRetries:   resolveInt(cmd, opts.GitHubRetries, "github_retries", "github-retries"),
		StaticBranches:  resolveStrings(cmd, opts.StaticBranches, "static_branches", "static-branch"),
		KeepDevelop:     resolveInt(cmd, opts.KeepDevelop, "keep_develop", "keep-develop"),
		KeepMaster:      resolveInt(cmd, opts.KeepMaster, "keep_master", "keep-master"),
		KeepFeature:     resolveInt(cmd, opts.KeepFeature, "keep_feature", "keep-feature"),
		ScheduleAt:      resolveString(cmd, opts.ScheduleAt, "schedule_at", "schedule-at"),
	}
	return raw.Validate()
}

// Validate checks every field and reports all problems at once.
func (o prunerOptions) Validate() (PrunerConfig, error) {
	var problems []string
	cfg := PrunerConfig{}

	apply, err := parseDeleteImages(o.DeleteImages)
	if err != nil {
		problems = append(problems, errorMessage(err))
	}
	cfg.Apply = apply

	cfg.Repositories = shared.SplitList(o.Registries)
	if len(cfg.Repositories) == 0 {
		problems = append(problems, "registries is required")
	}

	registryBackend, registryProblems := checkRegistryBackend(o.RegistryBackend, o.AWSRegion, o.RegistryFile)
	problems = append(problems, registryProblems...)

	branchBackend := types.BranchBackend(strings.ToLower(strings.TrimSpace(o.BranchBackend)))
	if branchBackend == "" {
		branchBackend = types.BranchBackendGitHub
	}
	staticBranches := shared.SplitList(o.StaticBranches)
	switch branchBackend {
	case types.BranchBackendGitHub:
		if strings.TrimSpace(o.GitHubToken) == "" {
			problems = append(problems, "github_token is required for the github branch backend")
		}
	case types.BranchBackendStatic:
		if len(staticBranches) == 0 {
			problems = append(problems, "static_branches is required for the static branch backend")
		}
	default:
		problems = append(problems, "branch_backend must be github or static")
	}

	scheduleText := strings.TrimSpace(o.ScheduleAt)
	if scheduleText == "" {
		scheduleText = defaultScheduleAt
	}
	scheduleAt, err := app.ParseDailyTime(scheduleText)
	if err != nil {
		problems = append(problems, "schedule_at must be HH:MM")
	}
	cfg.ScheduleAt = scheduleAt

	if len(problems) > 0 {
		return PrunerConfig{}, invalidConfiguration(problems)
	}

	cfg.Backend = app.BackendConfig{
		RegistryBackend: registryBackend,
		AWSRegion:       strings.TrimSpace(o.AWSRegion),
		AWSEndpoint:     strings.TrimSpace(o.AWSEndpoint),
		AWSRegistryID:   strings.TrimSpace(o.AWSRegistryID),
		RegistryFile:    strings.TrimSpace(o.RegistryFile),
		BranchBackend:   branchBackend,
		GitHubToken:     strings.TrimSpace(o.GitHubToken),
		GitHubOwner:     strings.TrimSpace(o.GitHubOwner),
		GitHubBaseURL:   strings.TrimSpace(o.GitHubBaseURL),
		GitHubRetries:   o.GitHubRetries,
		StaticBranches:  staticBranches,
	}
	cfg.Policy = types.RetentionPolicy{
		KeepDevelop: positiveOr(o.KeepDevelop, types.DefaultKeepDevelop),
		KeepMaster:  positiveOr(o.KeepMaster, types.DefaultKeepMaster),
		KeepFeature: positiveOr(o.KeepFeature, types.DefaultKeepFeature),
	}
	return cfg, nil
}

func checkRegistryBackend(backend string, region string, file string) (types.RegistryBackend, []string) {
	registryBackend := types.RegistryBackend(strings.ToLower(strings.TrimSpace(backend)))
	if registryBackend == "" {
		registryBackend = types.RegistryBackendECR
	}
	switch registryBackend {
	case types.RegistryBackendECR:
		if strings.TrimSpace(region) == "" {
			return registryBackend, []string{"aws_region is required for the ecr backend"}
		}
	case types.RegistryBackendFile:
		if strings.TrimSpace(file) == "" {
			return registryBackend, []string{"registry_file is required for the file backend"}
		}
	default:
		return registryBackend, []string{"registry_backend must be ecr or file"}
	}
	return registryBackend, nil
}

func invalidConfiguration(problems []string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg("invalid configuration: " + strings.Join(problems, "; "))
}

func parseDeleteImages(value string) (bool, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("delete_images is required")
	}
	apply, err := strconv.ParseBool(trimmed)
	if err != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("delete_images must be 0, 1, true or false").
			WithCause(err)
	}
	return apply, nil
}

func positiveOr(value int, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}
