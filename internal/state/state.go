// Package state holds the durable run state: the seen-key sets that back
// deduplication, the per-repository feed cursors that make pagination
// resumable, and cached organization membership snapshots.
package state

import "time"

// OrgSnapshot is a cached organization repository listing.
type OrgSnapshot struct {
	Repos     []string  `json:"repos"`
	FetchedAt time.Time `json:"ts"`
}

// Cursor is the resumption point of one feed of one repository. Page is
// 1-based; Since is nil until the feed has been drained to completion at
// least once, after which it holds the incremental watermark.
type Cursor struct {
	Page  int        `json:"page"`
	Since *time.Time `json:"since,omitempty"`
}

// FeedCursors groups the two feed cursors of a repository.
type FeedCursors struct {
	Commits Cursor `json:"commits"`
	Issues  Cursor `json:"issues"`
}

// State is the in-memory form of the persisted cache document. The seen
// sets only ever grow; a key that enters them is never emitted again, in
// this run or any later one.
type State struct {
	CommitSeen map[string]struct{}
	IssueSeen  map[string]struct{}
	Orgs       map[string]OrgSnapshot
	Cursors    map[string]*FeedCursors
}

func New() *State {
	return &State{
		CommitSeen: make(map[string]struct{}),
		IssueSeen:  make(map[string]struct{}),
		Orgs:       make(map[string]OrgSnapshot),
		Cursors:    make(map[string]*FeedCursors),
	}
}

// SeenCommit reports whether a commit key is already recorded.
func (s *State) SeenCommit(sha string) bool {
	_, ok := s.CommitSeen[sha]
	return ok
}

// MarkCommit records a commit key. It returns false when the key was
// already present, i.e. the commit must not be emitted.
func (s *State) MarkCommit(sha string) bool {
	if _, ok := s.CommitSeen[sha]; ok {
		return false
	}
	s.CommitSeen[sha] = struct{}{}
	return true
}

// SeenIssue reports whether an issue/PR key is already recorded.
func (s *State) SeenIssue(key string) bool {
	_, ok := s.IssueSeen[key]
	return ok
}

// MarkIssue records an issue/PR key, returning false on a duplicate.
func (s *State) MarkIssue(key string) bool {
	if _, ok := s.IssueSeen[key]; ok {
		return false
	}
	s.IssueSeen[key] = struct{}{}
	return true
}

// FeedCursors returns the cursors for a repository, creating fresh ones
// (page 1, no watermark) on first use.
func (s *State) FeedCursors(repo string) *FeedCursors {
	c, ok := s.Cursors[repo]
	if !ok {
		c = &FeedCursors{Commits: Cursor{Page: 1}, Issues: Cursor{Page: 1}}
		s.Cursors[repo] = c
	}
	if c.Commits.Page < 1 {
		c.Commits.Page = 1
	}
	if c.Issues.Page < 1 {
		c.Issues.Page = 1
	}
	return c
}
