// Package journal keeps a persistent record of handled connections in a
// SQLite database.
package journal

import (
	"time"

	"github.com/google/uuid"
)

// Outcome values recorded besides the router outcomes.
const (
	OutcomeParseError = "parse_error"
	OutcomeFailed     = "failed"
)

// Entry is one handled connection.
type Entry struct {
	ID         string    `json:"id"`
	Remote     string    `json:"remote,omitempty"`
	Method     string    `json:"method,omitempty"`
	Path       string    `json:"path,omitempty"`
	Outcome    string    `json:"outcome"`
	Code       string    `json:"code,omitempty"` // error code when the connection failed
	Bytes      int       `json:"bytes"`
	DurationMs int64     `json:"durationMs"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewEntry creates an entry with a fresh ID, stamped now.
func NewEntry(remote string) *Entry {
	return &Entry{
		ID:        uuid.New().String(),
		Remote:    remote,
		CreatedAt: time.Now().UTC(),
	}
}

// Recorder accepts finished entries.
type Recorder interface {
	Record(entry *Entry) error
}

// ListOptions filters List results.
type ListOptions struct {
	Outcome []string
	Limit   int
	Offset  int
}

// ListResponse is a page of entries, newest first.
type ListResponse struct {
	Entries    []*Entry `json:"entries"`
	TotalCount int      `json:"totalCount"`
}
