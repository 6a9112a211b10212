package state

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
)

// fileState is the on-disk shape of the cache document. Field names match
// the historical cache.json layout so existing caches keep working.
type fileState struct {
	Commits []string                `json:"commits"`
	Issues  []string                `json:"issues"`
	Orgs    map[string]OrgSnapshot  `json:"orgs"`
	Repos   map[string]*FeedCursors `json:"repos"`
}

// Store persists State as a single JSON document. Saves always rewrite the
// whole document via a temp file and rename, so an interrupted write never
// leaves a structurally broken cache; the last complete save wins.
type Store struct {
	path   string
	logger *log.Logger
}

func NewStore(path string, logger *log.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Load reads the persisted state. A missing, unreadable or unparsable file
// yields a fresh empty state with a warning: losing one run's incremental
// benefit is acceptable, failing the run is not.
func (st *Store) Load() *State {
	s := New()
	data, err := os.ReadFile(st.path)
	if err != nil {
		if !os.IsNotExist(err) {
			st.logger.Printf("[warn] cache %s unreadable, starting fresh: %v", st.path, err)
		}
		return s
	}
	var fs fileState
	if err := json.Unmarshal(data, &fs); err != nil {
		st.logger.Printf("[warn] broken cache %s, resetting: %v", st.path, err)
		return s
	}
	for _, sha := range fs.Commits {
		s.CommitSeen[sha] = struct{}{}
	}
	for _, key := range fs.Issues {
		s.IssueSeen[key] = struct{}{}
	}
	for org, snap := range fs.Orgs {
		s.Orgs[org] = snap
	}
	for repo, cur := range fs.Repos {
		if cur != nil {
			s.Cursors[repo] = cur
		}
	}
	return s
}

// Save writes the full state document.
func (st *Store) Save(s *State) error {
	fs := fileState{
		Commits: sortedKeys(s.CommitSeen),
		Issues:  sortedKeys(s.IssueSeen),
		Orgs:    s.Orgs,
		Repos:   s.Cursors,
	}
	data, err := json.MarshalIndent(fs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}
	return writeFileAtomic(st.path, data)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache: %w", err)
	}
	return nil
}
