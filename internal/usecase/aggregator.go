// Package usecase contains the business logic of the application: the
// deduplicating aggregation engine and the harvest orchestration.
package usecase

import (
	"log"
	"sort"

	"github.com/oss-pulse/leaderboard/internal/domain"
	"github.com/oss-pulse/leaderboard/internal/gateway"
	"github.com/oss-pulse/leaderboard/internal/state"
)

// Accumulator folds incoming feed items into per-contributor records,
// rejecting anything whose key is already in the seen sets. The key is
// recorded before the record is folded in, so a duplicate arriving later
// in the same run is rejected exactly like one from a previous run.
type Accumulator struct {
	st     *state.State
	logger *log.Logger

	users map[string]*domain.Contributor

	commits      int
	issues       int
	pullRequests int
}

func NewAccumulator(st *state.State, logger *log.Logger) *Accumulator {
	return &Accumulator{
		st:     st,
		logger: logger,
		users:  make(map[string]*domain.Contributor),
	}
}

// SeenCommit reports whether a commit hash has already been harvested.
func (a *Accumulator) SeenCommit(sha string) bool {
	return a.st.SeenCommit(sha)
}

// SeenIssue reports whether an issue/PR key has already been harvested.
func (a *Accumulator) SeenIssue(key string) bool {
	return a.st.SeenIssue(key)
}

// AbsorbCommit records a commit under its author's identity. Duplicates
// and commits with no resolvable author are skipped.
func (a *Accumulator) AbsorbCommit(repo domain.RepoRef, official bool, c gateway.Commit, files []string) {
	if !a.st.MarkCommit(c.SHA) {
		return
	}
	author := domain.ResolveAuthor(c.Login, c.AuthorName)
	if author.Key == "" {
		a.logger.Printf("[warn] commit %s in %s has no author, skipping", c.SHA, repo)
		return
	}
	u := a.user(author)
	u.Commits = append(u.Commits, domain.CommitRecord{
		SHA:        c.SHA,
		Author:     author.Key,
		URL:        repo.CommitURL(c.SHA),
		Repo:       repo.HTMLURL(),
		Date:       c.AuthoredAt,
		FileNames:  files,
		IsOfficial: official,
	})
	a.commits++
}

// AbsorbIssue records an issue or pull request under its author's login.
func (a *Accumulator) AbsorbIssue(repo domain.RepoRef, official bool, is gateway.Issue) {
	if !a.st.MarkIssue(domain.IssueKey(repo, is.Number)) {
		return
	}
	author := domain.ResolveAuthor(is.Login, "")
	if author.Key == "" {
		a.logger.Printf("[warn] issue %s has no author, skipping", domain.IssueKey(repo, is.Number))
		return
	}
	u := a.user(author)
	rec := domain.IssueRecord{
		Number:     is.Number,
		Title:      is.Title,
		Author:     author.Key,
		URL:        is.HTMLURL,
		Repo:       repo.HTMLURL(),
		Date:       is.CreatedAt,
		IsOfficial: official,
	}
	if is.IsPullRequest {
		u.PullRequests = append(u.PullRequests, rec)
		a.pullRequests++
	} else {
		u.Issues = append(u.Issues, rec)
		a.issues++
	}
}

func (a *Accumulator) user(author domain.Author) *domain.Contributor {
	u, ok := a.users[author.Key]
	if !ok {
		u = &domain.Contributor{Login: author.Key, ProfileURL: author.ProfileURL()}
		a.users[author.Key] = u
	}
	return u
}

// Leaderboard returns this run's contributions as a normalized document.
func (a *Accumulator) Leaderboard() *domain.Leaderboard {
	lb := &domain.Leaderboard{Users: make([]*domain.Contributor, 0, len(a.users))}
	for _, u := range a.users {
		lb.Users = append(lb.Users, u)
	}
	sort.Slice(lb.Users, func(i, j int) bool { return lb.Users[i].Login < lb.Users[j].Login })
	lb.Normalize()
	return lb
}

// Totals reports what this run absorbed.
func (a *Accumulator) Totals() (contributors, commits, issues, pullRequests int) {
	return len(a.users), a.commits, a.issues, a.pullRequests
}
