package models

import "time"

// Record is one quote extracted from a listing page. Either field may be
// empty when the page markup lacks it.
type Record struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

type CrawlRequest struct {
	Tag string `json:"tag"`
}

// Page is a fetched document. It lives only until it has been parsed.
type Page struct {
	URL         string
	ContentType string // as sent by the server; may be empty
	Body        []byte
}

type PageResult struct {
	Records []Record
	NextURL string // empty when the page has no next link
}

func (r PageResult) HasNext() bool {
	return r.NextURL != ""
}

type RunState int

const (
	RunStateRunning RunState = iota
	RunStateCompleted
	RunStateFailed
)

func (s RunState) String() string {
	switch s {
	case RunStateCompleted:
		return "completed"
	case RunStateFailed:
		return "failed"
	default:
		return "running"
	}
}

// CrawlHistory is the persisted summary of one terminated run. It never
// carries the records themselves.
type CrawlHistory struct {
	ID         string    `bson:"_id" json:"id"`
	Tag        string    `bson:"tag" json:"tag"`
	SeedURL    string    `bson:"seed_url" json:"seed_url"`
	Status     string    `bson:"status" json:"status"` // completed, failed
	Pages      int       `bson:"pages" json:"pages"`
	Records    int       `bson:"records" json:"records"`
	Error      string    `bson:"error,omitempty" json:"error,omitempty"`
	StartedAt  time.Time `bson:"started_at" json:"started_at"`
	FinishedAt time.Time `bson:"finished_at" json:"finished_at"`
	DurationMS int64     `bson:"duration_ms" json:"duration_ms"`
}
