package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"registry-pruner/internal/adapters"
	"registry-pruner/internal/ports"
	"registry-pruner/internal/types"
)

func BuildRegistry(ctx context.Context, cfg BackendConfig) (ports.RegistryPort, error) {
	backend := types.RegistryBackend(strings.ToLower(strings.TrimSpace(string(cfg.RegistryBackend))))
	if backend == "" {
		backend = types.RegistryBackendECR
	}
	switch backend {
	case types.RegistryBackendECR:
		if strings.TrimSpace(cfg.AWSRegion) == "" {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("aws region is required for ecr backend")
		}
		adapter, err := adapters.NewRegistryECRAdapter(ctx, cfg.AWSRegion, cfg.AWSEndpoint, cfg.AWSRegistryID)
		if err != nil {
			return nil, err
		}
		return adapter, nil
	case types.RegistryBackendFile:
		path := strings.TrimSpace(cfg.RegistryFile)
		if path == "" {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("registry file is required for file backend")
		}
		return adapters.NewRegistryFileAdapter(path), nil
	default:
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unsupported registry backend: " + string(cfg.RegistryBackend))
	}
}

func BuildBranchSource(cfg BackendConfig) (ports.BranchSourcePort, error) {
	backend := types.BranchBackend(strings.ToLower(strings.TrimSpace(string(cfg.BranchBackend))))
	if backend == "" {
		backend = types.BranchBackendGitHub
	}
	switch backend {
	case types.BranchBackendGitHub:
		if strings.TrimSpace(cfg.GitHubToken) == "" {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("github token is required for github branch backend")
		}
		adapter, err := adapters.NewGitHubBranchAdapter(cfg.GitHubToken, cfg.GitHubOwner, cfg.GitHubBaseURL, cfg.GitHubRetries)
		if err != nil {
			return nil, err
		}
		return adapter, nil
	case types.BranchBackendStatic:
		return adapters.NewStaticBranchAdapter(cfg.StaticBranches), nil
	default:
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unsupported branch backend: " + string(cfg.BranchBackend))
	}
}
