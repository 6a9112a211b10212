// Package report reads and writes the leaderboard output document and
// computes summary statistics over it.
package report

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/montanaflynn/stats"

	"github.com/oss-pulse/leaderboard/internal/domain"
)

// Load reads a prior output document. Missing or unparsable files yield an
// empty leaderboard with a warning; a prior run's output is an input we
// can live without, never a reason to fail.
func Load(path string, logger *log.Logger) *domain.Leaderboard {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Printf("[warn] output %s unreadable, starting fresh: %v", path, err)
		}
		return &domain.Leaderboard{}
	}
	var lb domain.Leaderboard
	if err := json.Unmarshal(data, &lb); err != nil {
		logger.Printf("[warn] broken output %s, starting fresh: %v", path, err)
		return &domain.Leaderboard{}
	}
	return &lb
}

// Write persists the leaderboard document in full, via temp file + rename.
func Write(path string, lb *domain.Leaderboard) error {
	data, err := json.MarshalIndent(lb, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// CommitStats returns the mean and median commit count per contributor
// over the document. Zeros for an empty leaderboard.
func CommitStats(lb *domain.Leaderboard) (mean, median float64) {
	if lb == nil || len(lb.Users) == 0 {
		return 0, 0
	}
	counts := make([]float64, 0, len(lb.Users))
	for _, u := range lb.Users {
		counts = append(counts, float64(len(u.Commits)))
	}
	mean, _ = stats.Mean(counts)
	median, _ = stats.Median(counts)
	return mean, median
}
