package domain

import "time"

// Segment is one coarse transcript window as persisted.
type Segment struct {
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
	Text      string  `json:"text"`
}

// Transcript holds the full text and windowed segments of one job.
type Transcript struct {
	ID        string
	JobID     string
	FullText  string
	Segments  []Segment
	CreatedAt time.Time
}
