// Package feed implements the resumable paginators that walk a
// repository's activity feeds. A feed's position is a persisted cursor
// (page number plus incremental watermark), so a run can stop mid-feed and
// the next run picks up at the same page.
package feed

import (
	"context"
	"log"
	"time"

	"github.com/oss-pulse/leaderboard/internal/domain"
	"github.com/oss-pulse/leaderboard/internal/gateway"
	"github.com/oss-pulse/leaderboard/internal/state"
)

// OutcomeKind tags how a drain ended.
type OutcomeKind int

const (
	// Exhausted: the feed returned an empty page, the only signal that it
	// has nothing more to offer. The cursor has been reset to page 1 and
	// its watermark advanced.
	Exhausted OutcomeKind = iota
	// Interrupted: a non-throttle error ended the walk early. The cursor
	// stays at the page being processed so the next run retries it;
	// the watermark is untouched.
	Interrupted
)

// Outcome is the tagged result of draining one feed.
type Outcome struct {
	Kind OutcomeKind
	Err  error
}

// Sink receives the items a feed yields. SeenCommit/SeenIssue let the
// feeds skip already-harvested items before spending further API calls on
// them; Absorb is still expected to reject duplicates on its own.
type Sink interface {
	SeenCommit(sha string) bool
	SeenIssue(key string) bool
	AbsorbCommit(repo domain.RepoRef, official bool, c gateway.Commit, files []string)
	AbsorbIssue(repo domain.RepoRef, official bool, is gateway.Issue)
}

// CommitSource is the slice of the gateway the commits feed needs.
type CommitSource interface {
	Commits(ctx context.Context, repo domain.RepoRef, page int, since *time.Time) ([]gateway.Commit, error)
	CommitFiles(ctx context.Context, repo domain.RepoRef, sha string) ([]string, error)
}

// IssueSource is the slice of the gateway the issues feed needs.
type IssueSource interface {
	Issues(ctx context.Context, repo domain.RepoRef, page int, since *time.Time) ([]gateway.Issue, error)
}

// CommitsFeed walks a repository's commit listing, fetching the per-commit
// file list for every item not already seen.
type CommitsFeed struct {
	src    CommitSource
	logger *log.Logger
	now    func() time.Time
}

func NewCommitsFeed(src CommitSource, logger *log.Logger, now func() time.Time) *CommitsFeed {
	if now == nil {
		now = time.Now
	}
	return &CommitsFeed{src: src, logger: logger, now: now}
}

// Drain walks pages from the cursor's position until the feed is exhausted
// or an error interrupts it, feeding every unseen commit to the sink.
func (f *CommitsFeed) Drain(ctx context.Context, repo domain.RepoRef, official bool, cur *state.Cursor, sink Sink) Outcome {
	page := cur.Page
	if page < 1 {
		page = 1
	}
	f.logger.Printf("[%s] commits since=%s page=%d", repo, sinceLabel(cur.Since), page)
	for {
		items, err := f.src.Commits(ctx, repo, page, cur.Since)
		if err != nil {
			cur.Page = page
			return Outcome{Kind: Interrupted, Err: err}
		}
		f.logger.Printf("[%s] commits page %d: %d items", repo, page, len(items))
		if len(items) == 0 {
			markExhausted(cur, f.now())
			return Outcome{Kind: Exhausted}
		}
		for _, c := range items {
			if sink.SeenCommit(c.SHA) {
				continue
			}
			files, err := f.src.CommitFiles(ctx, repo, c.SHA)
			if err != nil {
				cur.Page = page
				return Outcome{Kind: Interrupted, Err: err}
			}
			sink.AbsorbCommit(repo, official, c, files)
		}
		page++
		cur.Page = page
	}
}

// IssuesFeed walks a repository's unified issue/PR listing. A single list
// call per page suffices; no per-item detail calls are needed.
type IssuesFeed struct {
	src    IssueSource
	logger *log.Logger
	now    func() time.Time
}

func NewIssuesFeed(src IssueSource, logger *log.Logger, now func() time.Time) *IssuesFeed {
	if now == nil {
		now = time.Now
	}
	return &IssuesFeed{src: src, logger: logger, now: now}
}

// Drain walks pages from the cursor's position, feeding every unseen issue
// or pull request to the sink.
func (f *IssuesFeed) Drain(ctx context.Context, repo domain.RepoRef, official bool, cur *state.Cursor, sink Sink) Outcome {
	page := cur.Page
	if page < 1 {
		page = 1
	}
	f.logger.Printf("[%s] issues since=%s page=%d", repo, sinceLabel(cur.Since), page)
	for {
		items, err := f.src.Issues(ctx, repo, page, cur.Since)
		if err != nil {
			cur.Page = page
			return Outcome{Kind: Interrupted, Err: err}
		}
		f.logger.Printf("[%s] issues page %d: %d items", repo, page, len(items))
		if len(items) == 0 {
			markExhausted(cur, f.now())
			return Outcome{Kind: Exhausted}
		}
		for _, is := range items {
			if sink.SeenIssue(domain.IssueKey(repo, is.Number)) {
				continue
			}
			sink.AbsorbIssue(repo, official, is)
		}
		page++
		cur.Page = page
	}
}

// markExhausted is the single point where a feed switches from full-dump to
// incremental semantics: the page resets and the watermark advances to now,
// so the next run only asks for items since this run.
func markExhausted(cur *state.Cursor, now time.Time) {
	cur.Page = 1
	ts := now.UTC()
	cur.Since = &ts
}

func sinceLabel(since *time.Time) string {
	if since == nil {
		return "none"
	}
	return since.Format(time.RFC3339)
}
