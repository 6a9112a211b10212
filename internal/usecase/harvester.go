package usecase

import (
	"context"
	"log"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oss-pulse/leaderboard/internal/domain"
	"github.com/oss-pulse/leaderboard/internal/feed"
	"github.com/oss-pulse/leaderboard/internal/gateway"
	"github.com/oss-pulse/leaderboard/internal/report"
	"github.com/oss-pulse/leaderboard/internal/resolver"
	"github.com/oss-pulse/leaderboard/internal/state"
)

// Summary is what a completed run reports.
type Summary struct {
	Repositories int
	Contributors int
	Commits      int
	Issues       int
	PullRequests int

	// Over the merged output document, not just this run.
	TotalUsers         int
	MeanCommitsPerUser float64
	MedianCommits      float64
}

// Harvester drives a full run: resolve the repository set, drain both
// feeds of every repository strictly sequentially, and write back the
// cache and the merged output document. Partial failures never abort the
// run; the affected feed simply resumes next time.
type Harvester struct {
	gw         gateway.API
	store      *state.Store
	outputPath string
	orgTTL     time.Duration
	logger     *log.Logger

	now func() time.Time
}

func NewHarvester(gw gateway.API, store *state.Store, outputPath string, orgTTL time.Duration, logger *log.Logger) *Harvester {
	return &Harvester{
		gw:         gw,
		store:      store,
		outputPath: outputPath,
		orgTTL:     orgTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// Run executes one harvest over the configured entries and returns its
// summary. The cache and output documents are written even when individual
// repositories failed partially.
func (h *Harvester) Run(ctx context.Context, official, unofficial []string) (*Summary, error) {
	st := h.store.Load()

	res := resolver.New(h.gw, st, h.orgTTL, h.logger)
	repoSet := res.Resolve(ctx, official, unofficial)
	if err := h.store.Save(st); err != nil {
		h.logger.Printf("[warn] saving cache after resolve: %v", err)
	}

	refs := make([]domain.RepoRef, 0, len(repoSet))
	for ref := range repoSet {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].String() < refs[j].String() })

	acc := NewAccumulator(st, h.logger)
	commits := feed.NewCommitsFeed(h.gw, h.logger, h.now)
	issues := feed.NewIssuesFeed(h.gw, h.logger, h.now)

	for _, ref := range refs {
		if ctx.Err() != nil {
			break
		}
		official := repoSet[ref]
		cur := st.FeedCursors(ref.String())

		h.finishFeed(ref, "commits", commits.Drain(ctx, ref, official, &cur.Commits, acc), st)
		if ctx.Err() != nil {
			break
		}
		h.finishFeed(ref, "issues", issues.Drain(ctx, ref, official, &cur.Issues, acc), st)
	}

	merged, err := h.writeBack(ctx, st, acc)

	contributors, nCommits, nIssues, nPRs := acc.Totals()
	sum := &Summary{
		Repositories: len(refs),
		Contributors: contributors,
		Commits:      nCommits,
		Issues:       nIssues,
		PullRequests: nPRs,
	}
	if merged != nil {
		sum.TotalUsers = len(merged.Users)
		sum.MeanCommitsPerUser, sum.MedianCommits = report.CommitStats(merged)
	}
	return sum, err
}

// finishFeed persists the cursor outcome of one feed. The state is saved
// after every feed so a later crash cannot lose a completed feed's
// position or seen keys.
func (h *Harvester) finishFeed(ref domain.RepoRef, kind string, out feed.Outcome, st *state.State) {
	switch {
	case out.Kind == feed.Exhausted:
		h.logger.Printf("[%s] %s feed drained", ref, kind)
	case gateway.IsPermission(out.Err):
		h.logger.Printf("[warn] [%s] %s feed: permission denied, skipping: %v", ref, kind, out.Err)
	case gateway.IsNotFound(out.Err):
		h.logger.Printf("[warn] [%s] %s feed: not found, will retry next run", ref, kind)
	default:
		h.logger.Printf("[warn] [%s] %s feed interrupted, will resume next run: %v", ref, kind, out.Err)
	}
	if err := h.store.Save(st); err != nil {
		h.logger.Printf("[warn] saving cache: %v", err)
	}
}

// writeBack merges this run's contributions into the prior output document
// and writes both output and cache. The two documents are independent
// files, so their writes run concurrently.
func (h *Harvester) writeBack(ctx context.Context, st *state.State, acc *Accumulator) (*domain.Leaderboard, error) {
	prior := report.Load(h.outputPath, h.logger)
	merged := domain.Merge(prior, acc.Leaderboard())

	eg, _ := errgroup.WithContext(ctx)
	eg.Go(func() error { return report.Write(h.outputPath, merged) })
	eg.Go(func() error { return h.store.Save(st) })
	if err := eg.Wait(); err != nil {
		return merged, err
	}
	return merged, nil
}
