package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oss-pulse/leaderboard/internal/domain"
	"github.com/oss-pulse/leaderboard/internal/gateway"
	"github.com/oss-pulse/leaderboard/internal/report"
	"github.com/oss-pulse/leaderboard/internal/state"
)

// mockGateway is a mock implementation of the gateway.API interface.
type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) OrgRepos(ctx context.Context, org string, page int) ([]string, error) {
	args := m.Called(ctx, org, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockGateway) Commits(ctx context.Context, repo domain.RepoRef, page int, since *time.Time) ([]gateway.Commit, error) {
	args := m.Called(ctx, repo, page, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gateway.Commit), args.Error(1)
}

func (m *mockGateway) CommitFiles(ctx context.Context, repo domain.RepoRef, sha string) ([]string, error) {
	args := m.Called(ctx, repo, sha)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockGateway) Issues(ctx context.Context, repo domain.RepoRef, page int, since *time.Time) ([]gateway.Issue, error) {
	args := m.Called(ctx, repo, page, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gateway.Issue), args.Error(1)
}

func newTestHarvester(t *testing.T, gw gateway.API) (*Harvester, string, string) {
	t.Helper()
	dir := t.TempDir()
	cachePath := filepath.Join(dir, "cache.json")
	outputPath := filepath.Join(dir, "leaderboard.json")
	store := state.NewStore(cachePath, quietLogger())
	h := NewHarvester(gw, store, outputPath, 7*24*time.Hour, quietLogger())
	return h, cachePath, outputPath
}

func TestHarvester_Run(t *testing.T) {
	gw := new(mockGateway)
	repo := domain.RepoRef{Owner: "org", Name: "repo"}
	authored := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	gw.On("Commits", mock.Anything, repo, 1, (*time.Time)(nil)).
		Return([]gateway.Commit{{SHA: "abc", Login: "alice", AuthoredAt: authored}}, nil).Once()
	gw.On("Commits", mock.Anything, repo, 2, (*time.Time)(nil)).
		Return([]gateway.Commit{}, nil).Once()
	gw.On("CommitFiles", mock.Anything, repo, "abc").
		Return([]string{"main.go"}, nil).Once()
	gw.On("Issues", mock.Anything, repo, 1, (*time.Time)(nil)).
		Return([]gateway.Issue{
			{Number: 1, Login: "bob", CreatedAt: authored},
			{Number: 2, Login: "alice", CreatedAt: authored, IsPullRequest: true},
		}, nil).Once()
	gw.On("Issues", mock.Anything, repo, 2, (*time.Time)(nil)).
		Return([]gateway.Issue{}, nil).Once()

	h, cachePath, outputPath := newTestHarvester(t, gw)

	sum, err := h.Run(context.Background(), []string{"org/repo"}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, sum.Repositories)
	assert.Equal(t, 2, sum.Contributors)
	assert.Equal(t, 1, sum.Commits)
	assert.Equal(t, 1, sum.Issues)
	assert.Equal(t, 1, sum.PullRequests)
	assert.Equal(t, 2, sum.TotalUsers)

	// Both documents written.
	lb := report.Load(outputPath, quietLogger())
	require.Len(t, lb.Users, 2)
	st := state.NewStore(cachePath, quietLogger()).Load()
	assert.True(t, st.SeenCommit("abc"))
	assert.True(t, st.SeenIssue("org/repo#1"))
	// Both feeds drained: cursors reset, watermarks set.
	cur := st.FeedCursors("org/repo")
	assert.Equal(t, 1, cur.Commits.Page)
	assert.NotNil(t, cur.Commits.Since)
	assert.NotNil(t, cur.Issues.Since)

	gw.AssertExpectations(t)
}

// Idempotence: a second run against a remote with no new data leaves the
// output document unchanged; only the watermarks advance.
func TestHarvester_SecondRunIsIdempotent(t *testing.T) {
	gw := new(mockGateway)
	repo := domain.RepoRef{Owner: "org", Name: "repo"}

	// First run: one commit, then exhaustion everywhere.
	gw.On("Commits", mock.Anything, repo, 1, (*time.Time)(nil)).
		Return([]gateway.Commit{{SHA: "abc", Login: "alice"}}, nil).Once()
	gw.On("Commits", mock.Anything, repo, 2, (*time.Time)(nil)).
		Return([]gateway.Commit{}, nil).Once()
	gw.On("CommitFiles", mock.Anything, repo, "abc").Return([]string{}, nil).Once()
	gw.On("Issues", mock.Anything, repo, 1, (*time.Time)(nil)).
		Return([]gateway.Issue{}, nil).Once()
	// Second run: incremental requests (watermark set) return nothing.
	gw.On("Commits", mock.Anything, repo, 1, mock.AnythingOfType("*time.Time")).
		Return([]gateway.Commit{}, nil).Once()
	gw.On("Issues", mock.Anything, repo, 1, mock.AnythingOfType("*time.Time")).
		Return([]gateway.Issue{}, nil).Once()

	h, _, outputPath := newTestHarvester(t, gw)

	_, err := h.Run(context.Background(), []string{"org/repo"}, nil)
	require.NoError(t, err)
	first, err := os.ReadFile(outputPath)
	require.NoError(t, err)

	_, err = h.Run(context.Background(), []string{"org/repo"}, nil)
	require.NoError(t, err)
	second, err := os.ReadFile(outputPath)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	gw.AssertExpectations(t)
}

// A failing repository does not abort the run: the next repository is
// still processed and the interrupted feed's cursor survives for the next
// run.
func TestHarvester_PartialFailureContinues(t *testing.T) {
	gw := new(mockGateway)
	bad := domain.RepoRef{Owner: "org", Name: "bad"}
	good := domain.RepoRef{Owner: "org", Name: "good"}

	gw.On("Commits", mock.Anything, bad, 1, (*time.Time)(nil)).
		Return(nil, assert.AnError).Once()
	gw.On("Issues", mock.Anything, bad, 1, (*time.Time)(nil)).
		Return(nil, assert.AnError).Once()
	gw.On("Commits", mock.Anything, good, 1, (*time.Time)(nil)).
		Return([]gateway.Commit{{SHA: "g1", Login: "carol"}}, nil).Once()
	gw.On("Commits", mock.Anything, good, 2, (*time.Time)(nil)).
		Return([]gateway.Commit{}, nil).Once()
	gw.On("CommitFiles", mock.Anything, good, "g1").Return([]string{}, nil).Once()
	gw.On("Issues", mock.Anything, good, 1, (*time.Time)(nil)).
		Return([]gateway.Issue{}, nil).Once()

	h, cachePath, _ := newTestHarvester(t, gw)

	sum, err := h.Run(context.Background(), []string{"org/bad", "org/good"}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, sum.Commits)

	st := state.NewStore(cachePath, quietLogger()).Load()
	// Interrupted feed: cursor still at page 1, no watermark, so the next
	// run retries from the same point.
	badCur := st.FeedCursors("org/bad")
	assert.Equal(t, 1, badCur.Commits.Page)
	assert.Nil(t, badCur.Commits.Since)
	// Drained feed: watermark set.
	assert.NotNil(t, st.FeedCursors("org/good").Commits.Since)
	gw.AssertExpectations(t)
}

// Org snapshots persist through the cache, so a second run within the TTL
// resolves the organization without any listing calls.
func TestHarvester_OrgSnapshotReused(t *testing.T) {
	gw := new(mockGateway)
	repo := domain.RepoRef{Owner: "myorg", Name: "a"}

	gw.On("OrgRepos", mock.Anything, "myorg", 1).Return([]string{"myorg/a"}, nil).Once()
	gw.On("OrgRepos", mock.Anything, "myorg", 2).Return([]string{}, nil).Once()
	gw.On("Commits", mock.Anything, repo, 1, (*time.Time)(nil)).Return([]gateway.Commit{}, nil).Once()
	gw.On("Issues", mock.Anything, repo, 1, (*time.Time)(nil)).Return([]gateway.Issue{}, nil).Once()
	gw.On("Commits", mock.Anything, repo, 1, mock.AnythingOfType("*time.Time")).Return([]gateway.Commit{}, nil).Once()
	gw.On("Issues", mock.Anything, repo, 1, mock.AnythingOfType("*time.Time")).Return([]gateway.Issue{}, nil).Once()

	h, _, _ := newTestHarvester(t, gw)

	_, err := h.Run(context.Background(), []string{"myorg"}, nil)
	require.NoError(t, err)
	_, err = h.Run(context.Background(), []string{"myorg"}, nil)
	require.NoError(t, err)

	// OrgRepos was called exactly once per page, on the first run only.
	gw.AssertExpectations(t)
}
