package report

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oss-pulse/leaderboard/internal/domain"
)

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func sampleLeaderboard() *domain.Leaderboard {
	return &domain.Leaderboard{Users: []*domain.Contributor{
		{
			Login:      "alice",
			ProfileURL: "https://github.com/alice",
			Commits: []domain.CommitRecord{
				{SHA: "a1", Author: "alice", Date: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
				{SHA: "a2", Author: "alice", Date: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)},
				{SHA: "a3", Author: "alice", Date: time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)},
			},
		},
		{
			Login:   "bob",
			Commits: []domain.CommitRecord{{SHA: "b1", Author: "bob", Date: time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)}},
		},
	}}
}

func TestLoad_MissingFile(t *testing.T) {
	lb := Load(filepath.Join(t.TempDir(), "leaderboard.json"), quietLogger())
	require.NotNil(t, lb)
	assert.Empty(t, lb.Users)
}

func TestLoad_BrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaderboard.json")
	require.NoError(t, os.WriteFile(path, []byte("not json at all"), 0o644))
	lb := Load(path, quietLogger())
	require.NotNil(t, lb)
	assert.Empty(t, lb.Users)
}

func TestWriteLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaderboard.json")
	original := sampleLeaderboard()

	require.NoError(t, Write(path, original))
	loaded := Load(path, quietLogger())

	require.Len(t, loaded.Users, 2)
	assert.Equal(t, "alice", loaded.Users[0].Login)
	assert.Len(t, loaded.Users[0].Commits, 3)
	assert.Equal(t, "bob", loaded.Users[1].Login)
}

func TestCommitStats(t *testing.T) {
	testCases := []struct {
		name           string
		lb             *domain.Leaderboard
		expectedMean   float64
		expectedMedian float64
	}{
		{name: "two users", lb: sampleLeaderboard(), expectedMean: 2, expectedMedian: 2},
		{name: "empty leaderboard", lb: &domain.Leaderboard{}, expectedMean: 0, expectedMedian: 0},
		{name: "nil leaderboard", lb: nil, expectedMean: 0, expectedMedian: 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mean, median := CommitStats(tc.lb)
			assert.InDelta(t, tc.expectedMean, mean, 0.001)
			assert.InDelta(t, tc.expectedMedian, median, 0.001)
		})
	}
}
