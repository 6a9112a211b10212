package domain

import "strings"

// Author is a resolved contributor identity. Identities live in two
// distinct spaces: authenticated logins, and free-text commit author names
// used when the API reports no linked account. The two spaces are not
// reconciled, so the same person can appear under both a login and a name.
type Author struct {
	Key      string
	HasLogin bool
}

// ResolveAuthor maps a raw author to an identity: the login is preferred,
// the free-text name is the fallback. An empty Key means the item carried
// no usable identity at all.
func ResolveAuthor(login, name string) Author {
	if l := strings.TrimSpace(login); l != "" {
		return Author{Key: l, HasLogin: true}
	}
	return Author{Key: strings.TrimSpace(name)}
}

// ProfileURL returns the contributor's web profile. Only login identities
// have one; free-text names resolve to nothing.
func (a Author) ProfileURL() string {
	if !a.HasLogin {
		return ""
	}
	return "https://github.com/" + a.Key
}
