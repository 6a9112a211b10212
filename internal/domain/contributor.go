package domain

import "sort"

// Contributor holds all harvested activity for a single identity.
// It is the core entity of the leaderboard.
type Contributor struct {
	Login        string         `json:"login"`
	ProfileURL   string         `json:"profile_url,omitempty"`
	Languages    []string       `json:"languages,omitempty"`
	Commits      []CommitRecord `json:"commits"`
	Issues       []IssueRecord  `json:"issues"`
	PullRequests []IssueRecord  `json:"pull_requests"`
}

// Leaderboard is the output document: every known contributor with the
// union of their activity across all runs.
type Leaderboard struct {
	Users []*Contributor `json:"users"`
}

// Normalize puts a leaderboard into its canonical byte-stable form:
// users sorted by identity, activity sorted by timestamp (ties broken by
// URL), and languages recomputed from commit file names.
func (lb *Leaderboard) Normalize() {
	for _, u := range lb.Users {
		sort.SliceStable(u.Commits, func(i, j int) bool {
			a, b := u.Commits[i], u.Commits[j]
			if !a.Date.Equal(b.Date) {
				return a.Date.Before(b.Date)
			}
			return a.URL < b.URL
		})
		sortIssues(u.Issues)
		sortIssues(u.PullRequests)

		var files []string
		for _, c := range u.Commits {
			files = append(files, c.FileNames...)
		}
		u.Languages = DetectLanguages(files)
	}
	sort.SliceStable(lb.Users, func(i, j int) bool {
		return lb.Users[i].Login < lb.Users[j].Login
	})
}

func sortIssues(recs []IssueRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.URL < b.URL
	})
}

// Merge folds the current run's leaderboard into a prior output document.
// The result is a union: prior users keep everything they had and gain the
// newly fetched activity; activity lists are never truncated. The merged
// document is returned in normalized form.
func Merge(prior, current *Leaderboard) *Leaderboard {
	out := &Leaderboard{}
	byLogin := make(map[string]*Contributor)

	absorb := func(src *Contributor) {
		u, ok := byLogin[src.Login]
		if !ok {
			u = &Contributor{Login: src.Login, ProfileURL: src.ProfileURL}
			byLogin[src.Login] = u
			out.Users = append(out.Users, u)
		}
		if u.ProfileURL == "" {
			u.ProfileURL = src.ProfileURL
		}
		u.Commits = append(u.Commits, src.Commits...)
		u.Issues = append(u.Issues, src.Issues...)
		u.PullRequests = append(u.PullRequests, src.PullRequests...)
	}

	if prior != nil {
		for _, u := range prior.Users {
			absorb(u)
		}
	}
	if current != nil {
		for _, u := range current.Users {
			absorb(u)
		}
	}
	out.Normalize()
	return out
}
