package domain

import "time"

// CommitRecord is a single harvested commit. It is immutable once created
// and self-describing: it carries its repository origin, timestamp, URL and
// officialness so it can be consumed outside this system.
type CommitRecord struct {
	SHA        string    `json:"sha"`
	Author     string    `json:"author"`
	URL        string    `json:"url"`
	Repo       string    `json:"repo"`
	Date       time.Time `json:"date"`
	FileNames  []string  `json:"file_names"`
	IsOfficial bool      `json:"is_official"`
}

// IssueRecord is a single harvested issue or pull request.
type IssueRecord struct {
	Number     int       `json:"number"`
	Title      string    `json:"title"`
	Author     string    `json:"author"`
	URL        string    `json:"url"`
	Repo       string    `json:"repo"`
	Date       time.Time `json:"date"`
	IsOfficial bool      `json:"is_official"`
}
