package domain

import "time"

// OptionCount is the number of choices every question carries.
const OptionCount = 4

// Question is one generated multiple-choice item tied to a transcript window.
type Question struct {
	ID               string
	JobID            string
	Position         int
	SegmentStartTime float64
	SegmentEndTime   float64
	Question         string
	Options          []string
	CorrectAnswer    string
	CreatedAt        time.Time
}
