// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// RepoRef identifies a single repository by owner and name.
type RepoRef struct {
	Owner string
	Name  string
}

// String returns the canonical "owner/name" form.
func (r RepoRef) String() string {
	return r.Owner + "/" + r.Name
}

// HTMLURL returns the repository's web URL.
func (r RepoRef) HTMLURL() string {
	return "https://github.com/" + r.String()
}

// CommitURL returns the web URL of a commit in this repository.
func (r RepoRef) CommitURL(sha string) string {
	return r.HTMLURL() + "/commit/" + sha
}

// IssueKey returns the dedup key for an issue or pull request,
// in the form "owner/name#number".
func IssueKey(r RepoRef, number int) string {
	return fmt.Sprintf("%s#%d", r.String(), number)
}

// NormalizeEntry reduces a configured repository or organization entry to
// its path form: full URLs are stripped down to their path and a trailing
// ".git" suffix is removed. An empty result means the entry is unusable.
func NormalizeEntry(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		u, err := url.Parse(s)
		if err != nil {
			return ""
		}
		s = strings.Trim(u.Path, "/")
	}
	s = strings.TrimSuffix(s, ".git")
	return strings.Trim(s, "/")
}

// ParseRef parses an "owner/name" string into a RepoRef. Anything other
// than exactly two non-empty path segments is rejected.
func ParseRef(s string) (RepoRef, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return RepoRef{}, fmt.Errorf("malformed repository reference %q", s)
	}
	return RepoRef{Owner: parts[0], Name: parts[1]}, nil
}
