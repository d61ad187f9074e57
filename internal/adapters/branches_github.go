package adapters

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-github/v66/github"

	"registry-pruner/internal/ports"
	"registry-pruner/internal/shared"
)

const defaultGitHubRetries = 3
const defaultGitHubInitialBackoff = 200 * time.Millisecond
const maxGitHubBackoff = 10 * time.Second

// GitHubBranchAdapter lists open branches of the GitHub repository that
// shares its name with a registry repository.
type GitHubBranchAdapter struct {
	Client         *github.Client
	Owner          string
	Retries        int
	InitialBackoff time.Duration
}

// NewGitHubBranchAdapter authenticates with token. owner is used for
// repository names without an "owner/" part; baseURL selects a GitHub
// Enterprise API root when set.
func NewGitHubBranchAdapter(token string, owner string, baseURL string, retries int) (GitHubBranchAdapter, error) {
	client := github.NewClient(nil)
	if strings.TrimSpace(token) != "" {
		client = client.WithAuthToken(strings.TrimSpace(token))
	}
	if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
		if !strings.HasSuffix(trimmed, "/") {
			trimmed += "/"
		}
		parsed, err := url.Parse(trimmed)
		if err != nil {
			return GitHubBranchAdapter{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("invalid github base url").
				WithCause(err)
		}
		client.BaseURL = parsed
	}
	if retries <= 0 {
		retries = defaultGitHubRetries
	}
	return GitHubBranchAdapter{
		Client:         client,
		Owner:          strings.TrimSpace(owner),
		Retries:        retries,
		InitialBackoff: defaultGitHubInitialBackoff,
	}, nil
}

// ActiveBranches returns every branch name, lower-cased, following
// pagination to the end.
func (a GitHubBranchAdapter) ActiveBranches(ctx context.Context, repository string) ([]string, error) {
	owner, repo, err := a.splitRepository(repository)
	if err != nil {
		return nil, err
	}
	branches := []string{}
	opts := &github.BranchListOptions{ListOptions: github.ListOptions{PerPage: 100}}
	for {
		var page []*github.Branch
		var resp *github.Response
		err := a.withRetry(ctx, func() error {
			var callErr error
			page, resp, callErr = a.Client.Repositories.ListBranches(ctx, owner, repo, opts)
			return callErr
		})
		if err != nil {
			return nil, gitHubError(err, owner+"/"+repo)
		}
		for _, branch := range page {
			if name := shared.NormalizeName(branch.GetName()); name != "" {
				branches = append(branches, name)
			}
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return branches, nil
}

func (a GitHubBranchAdapter) splitRepository(repository string) (string, string, error) {
	name := shared.TrimQuotes(repository)
	if owner, repo, found := strings.Cut(name, "/"); found {
		if owner == "" || repo == "" {
			return "", "", errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("invalid repository name: " + repository)
		}
		return owner, repo, nil
	}
	if name == "" {
		return "", "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("repository name is empty")
	}
	if a.Owner == "" {
		return "", "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("github owner is required for repository " + repository)
	}
	return a.Owner, name, nil
}

func (a GitHubBranchAdapter) withRetry(ctx context.Context, operation func() error) error {
	retries := a.Retries
	if retries <= 0 {
		retries = defaultGitHubRetries
	}
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = operation()
		if lastErr == nil || !retryableGitHubError(lastErr) || attempt == retries {
			return lastErr
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(a.backoff(attempt)):
		}
	}
	return lastErr
}

func (a GitHubBranchAdapter) backoff(attempt int) time.Duration {
	base := a.InitialBackoff
	if base <= 0 {
		base = defaultGitHubInitialBackoff
	}
	delay := base * time.Duration(1<<attempt)
	if delay > maxGitHubBackoff {
		delay = maxGitHubBackoff
	}
	jitter := time.Duration(rand.Int63n(int64(delay/5) + 1))
	return delay + jitter
}

func retryableGitHubError(err error) bool {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return true
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return true
	}
	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}
	return false
}

func gitHubError(err error, repository string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil && respErr.Response.StatusCode == http.StatusNotFound {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("github repository not found: " + repository).
			WithCause(err)
	}
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("failed to list github branches").
		WithCause(err)
}

var _ ports.BranchSourcePort = GitHubBranchAdapter{}
