// Package resolver expands the configured repository and organization
// entries into the concrete set of repositories to harvest.
package resolver

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/oss-pulse/leaderboard/internal/cache"
	"github.com/oss-pulse/leaderboard/internal/domain"
	"github.com/oss-pulse/leaderboard/internal/state"
)

// OrgLister is the slice of the gateway the resolver needs.
type OrgLister interface {
	OrgRepos(ctx context.Context, org string, page int) ([]string, error)
}

// Resolver normalizes configured entries and expands bare organization
// names into repository lists, reusing persisted snapshots within the TTL.
type Resolver struct {
	gw     OrgLister
	st     *state.State
	memo   *cache.Cache[[]string]
	ttl    time.Duration
	logger *log.Logger

	now func() time.Time
}

func New(gw OrgLister, st *state.State, ttl time.Duration, logger *log.Logger) *Resolver {
	// Sized for the handful of orgs a repos file realistically lists.
	memo, _ := cache.New[[]string](64)
	return &Resolver{
		gw:     gw,
		st:     st,
		memo:   memo,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Resolve maps every configured entry to repositories with their
// officialness. Malformed entries are dropped with a warning. A repository
// reached through both lists comes out official: the unofficial set is
// applied first and the official set second, so official wins.
func (r *Resolver) Resolve(ctx context.Context, official, unofficial []string) map[domain.RepoRef]bool {
	out := make(map[domain.RepoRef]bool)
	r.addEntries(ctx, out, unofficial, false)
	r.addEntries(ctx, out, official, true)
	return out
}

func (r *Resolver) addEntries(ctx context.Context, out map[domain.RepoRef]bool, entries []string, official bool) {
	for _, raw := range entries {
		norm := domain.NormalizeEntry(raw)
		if norm == "" {
			r.logger.Printf("[warn] bad repos entry %q, skipping", raw)
			continue
		}
		switch strings.Count(norm, "/") {
		case 0:
			for _, full := range r.expandOrg(ctx, norm) {
				r.addRepo(out, full, official)
			}
		case 1:
			r.addRepo(out, norm, official)
		default:
			r.logger.Printf("[warn] bad repos entry %q, skipping", raw)
		}
	}
}

func (r *Resolver) addRepo(out map[domain.RepoRef]bool, full string, official bool) {
	ref, err := domain.ParseRef(full)
	if err != nil {
		r.logger.Printf("[warn] %v, skipping", err)
		return
	}
	out[ref] = official
}

// expandOrg returns an organization's repositories, from the in-process
// memo first, then the persisted snapshot when it is fresh enough, and
// only then the API. Listing paginates until an empty page; any listing
// error ends the walk with whatever was collected so far.
func (r *Resolver) expandOrg(ctx context.Context, org string) []string {
	if repos, ok := r.memo.Get(org); ok {
		return repos
	}
	if snap, ok := r.st.Orgs[org]; ok && len(snap.Repos) > 0 && r.now().Sub(snap.FetchedAt) <= r.ttl {
		r.memo.Set(org, snap.Repos, r.ttl)
		return snap.Repos
	}

	repos := r.listOrg(ctx, org)
	r.st.Orgs[org] = state.OrgSnapshot{Repos: repos, FetchedAt: r.now()}
	r.memo.Set(org, repos, r.ttl)
	return repos
}

func (r *Resolver) listOrg(ctx context.Context, org string) []string {
	var repos []string
	for page := 1; ; page++ {
		r.logger.Printf("[org] listing %s, page %d", org, page)
		batch, err := r.gw.OrgRepos(ctx, org, page)
		if err != nil {
			r.logger.Printf("[warn] org %s listing stopped: %v", org, err)
			break
		}
		if len(batch) == 0 {
			break
		}
		repos = append(repos, batch...)
	}
	return repos
}
