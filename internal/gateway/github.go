// Package gateway provides a gateway to the GitHub API, abstracting away
// the underlying REST client and the rate-limit handling around it.
package gateway

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/oss-pulse/leaderboard/internal/domain"
)

// Commit is one entry of a repository's commit listing, reduced to the
// fields the engine needs. The touched-file list is not part of the
// listing; it requires a separate CommitFiles call.
type Commit struct {
	SHA        string
	Login      string
	AuthorName string
	AuthoredAt time.Time
}

// Issue is one entry of a repository's unified issue/PR listing.
type Issue struct {
	Number        int
	Title         string
	Login         string
	HTMLURL       string
	CreatedAt     time.Time
	IsPullRequest bool
}

// API is the behavior the engine needs from GitHub. Page numbers are
// 1-based; an empty result slice means the collection is exhausted.
type API interface {
	OrgRepos(ctx context.Context, org string, page int) ([]string, error)
	Commits(ctx context.Context, repo domain.RepoRef, page int, since *time.Time) ([]Commit, error)
	CommitFiles(ctx context.Context, repo domain.RepoRef, sha string) ([]string, error)
	Issues(ctx context.Context, repo domain.RepoRef, page int, since *time.Time) ([]Issue, error)
}

// Options tunes the gateway's pagination and backoff behavior.
type Options struct {
	PerPage     int
	PageDelay   time.Duration
	BackoffMin  time.Duration
	BackoffMax  time.Duration
	HTTPTimeout time.Duration
}

func (o *Options) withDefaults() {
	if o.PerPage <= 0 {
		o.PerPage = 100
	}
	if o.PageDelay <= 0 {
		o.PageDelay = 100 * time.Millisecond
	}
	if o.BackoffMin <= 0 {
		o.BackoffMin = time.Second
	}
	if o.BackoffMax <= 0 {
		o.BackoffMax = 60 * time.Second
	}
	if o.HTTPTimeout <= 0 {
		o.HTTPTimeout = 30 * time.Second
	}
}

// GitHubGateway is the concrete implementation of the API interface.
type GitHubGateway struct {
	client  *github.Client
	limiter *rate.Limiter
	logger  *log.Logger
	opts    Options

	// sleep is swapped out in tests so backoff does not wall-clock wait.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewGitHubGateway builds a gateway whose HTTP stack handles secondary
// rate limits transparently (sleeping, with a logged callback) and whose
// call layer retries primary rate limits with backoff. An empty token
// yields an unauthenticated client with the lower API quota.
func NewGitHubGateway(token string, opts Options, logger *log.Logger) (*GitHubGateway, error) {
	opts.withDefaults()

	waiter, err := github_ratelimit.NewRateLimitWaiter(nil,
		github_ratelimit.WithSingleSleepLimit(time.Hour, nil),
		github_ratelimit.WithLimitDetectedCallback(func(cb *github_ratelimit.CallbackContext) {
			if cb.SleepUntil != nil {
				logger.Printf("[rate] secondary rate limit hit, sleeping until %s", cb.SleepUntil.Format(time.RFC3339))
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}

	httpClient := &http.Client{Transport: waiter, Timeout: opts.HTTPTimeout}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient.Transport = &oauth2.Transport{Base: waiter, Source: ts}
	}

	return &GitHubGateway{
		client:  github.NewClient(httpClient),
		limiter: rate.NewLimiter(rate.Every(opts.PageDelay), 1),
		logger:  logger,
		opts:    opts,
		sleep:   sleepCtx,
	}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// OrgRepos lists one page of an organization's repositories as
// "owner/name" strings.
func (g *GitHubGateway) OrgRepos(ctx context.Context, org string, page int) ([]string, error) {
	opts := &github.RepositoryListByOrgOptions{
		ListOptions: github.ListOptions{PerPage: g.opts.PerPage, Page: page},
	}
	var raw []*github.Repository
	err := g.withRetry(ctx, fmt.Sprintf("orgs/%s/repos?page=%d", org, page), func() error {
		var err error
		raw, _, err = g.client.Repositories.ListByOrg(ctx, org, opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(raw))
	for _, r := range raw {
		if full := r.GetFullName(); full != "" {
			names = append(names, full)
		}
	}
	return names, nil
}

// Commits lists one page of a repository's commits, newest first, filtered
// server-side by since when present.
func (g *GitHubGateway) Commits(ctx context.Context, repo domain.RepoRef, page int, since *time.Time) ([]Commit, error) {
	opts := &github.CommitsListOptions{
		ListOptions: github.ListOptions{PerPage: g.opts.PerPage, Page: page},
	}
	if since != nil {
		opts.Since = *since
	}
	var raw []*github.RepositoryCommit
	err := g.withRetry(ctx, fmt.Sprintf("repos/%s/commits?page=%d", repo, page), func() error {
		var err error
		raw, _, err = g.client.Repositories.ListCommits(ctx, repo.Owner, repo.Name, opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]Commit, 0, len(raw))
	for _, c := range raw {
		if c == nil || c.GetSHA() == "" {
			continue
		}
		out = append(out, Commit{
			SHA:        c.GetSHA(),
			Login:      c.GetAuthor().GetLogin(),
			AuthorName: c.GetCommit().GetAuthor().GetName(),
			AuthoredAt: c.GetCommit().GetAuthor().GetDate().Time,
		})
	}
	return out, nil
}

// CommitFiles fetches the base names of the files a commit touched. Merge
// commits legitimately touch no files; an empty list is a valid result.
func (g *GitHubGateway) CommitFiles(ctx context.Context, repo domain.RepoRef, sha string) ([]string, error) {
	var detail *github.RepositoryCommit
	err := g.withRetry(ctx, fmt.Sprintf("repos/%s/commits/%s", repo, sha), func() error {
		var err error
		detail, _, err = g.client.Repositories.GetCommit(ctx, repo.Owner, repo.Name, sha, &github.ListOptions{})
		return err
	})
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(detail.Files))
	for _, f := range detail.Files {
		if f == nil || f.GetFilename() == "" {
			continue
		}
		files = append(files, filepath.Base(f.GetFilename()))
	}
	return files, nil
}

// Issues lists one page of a repository's issues and pull requests in all
// states. Pull requests are flagged via the pull-request marker on the item.
func (g *GitHubGateway) Issues(ctx context.Context, repo domain.RepoRef, page int, since *time.Time) ([]Issue, error) {
	opts := &github.IssueListByRepoOptions{
		State:       "all",
		ListOptions: github.ListOptions{PerPage: g.opts.PerPage, Page: page},
	}
	if since != nil {
		opts.Since = *since
	}
	var raw []*github.Issue
	err := g.withRetry(ctx, fmt.Sprintf("repos/%s/issues?page=%d", repo, page), func() error {
		var err error
		raw, _, err = g.client.Issues.ListByRepo(ctx, repo.Owner, repo.Name, opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]Issue, 0, len(raw))
	for _, is := range raw {
		if is == nil || is.GetNumber() == 0 {
			continue
		}
		out = append(out, Issue{
			Number:        is.GetNumber(),
			Title:         is.GetTitle(),
			Login:         is.GetUser().GetLogin(),
			HTMLURL:       is.GetHTMLURL(),
			CreatedAt:     is.GetCreatedAt().Time,
			IsPullRequest: is.IsPullRequest(),
		})
	}
	return out, nil
}
