package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// RepoList is the repos-file document: repository or organization entries
// split by provenance. Entries may be "owner/name" strings, bare
// organization names, or full repository URLs.
type RepoList struct {
	Official   []string `json:"official"`
	Unofficial []string `json:"unofficial"`
}

// LoadRepoList reads and parses the repos file. A missing or unparsable
// file is a hard error: without it there is nothing to harvest.
func LoadRepoList(path string) (RepoList, error) {
	var list RepoList
	data, err := os.ReadFile(path)
	if err != nil {
		return list, fmt.Errorf("repos file: %w", err)
	}
	if err := json.Unmarshal(data, &list); err != nil {
		return list, fmt.Errorf("repos file %s: %w", path, err)
	}
	return list, nil
}
