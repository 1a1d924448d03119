package domain

import "time"

// RecordStored is published after a batch commits.
type RecordStored struct {
	Identity     string    `json:"identity"`
	Tag          string    `json:"tag"`
	CrawlingType string    `json:"crawling_type"`
	Failed       bool      `json:"failed"`
	Rows         int       `json:"rows"`
	StoredAt     time.Time `json:"stored_at"`
}
