package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"lecturequiz/internal/subtitle"
	"lecturequiz/pkg/zip"
)

type exportQuestion struct {
	Position         int      `json:"position"`
	SegmentStartTime float64  `json:"segmentStartTime"`
	Question         string   `json:"question"`
	Options          []string `json:"options"`
	CorrectAnswer    string   `json:"correctAnswer"`
}

// buildBundle packs the job summary, its transcript windows and questions.
func buildBundle(rep *report, now time.Time) ([]byte, error) {
	summary, err := json.MarshalIndent(rep.Job, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode job: %w", err)
	}
	entries := []zip.Entry{{Name: "job.json", Data: summary, Modified: now}}

	if rep.Transcript != nil {
		cues := make([]subtitle.Cue, 0, len(rep.Transcript.Segments))
		for _, seg := range rep.Transcript.Segments {
			cues = append(cues, subtitle.Cue{Start: seg.StartTime, End: seg.EndTime, Text: seg.Text})
		}
		entries = append(entries,
			zip.Entry{Name: "transcript.vtt", Data: []byte(subtitle.RenderVTT(cues)), Modified: now},
			zip.Entry{Name: "transcript.txt", Data: []byte(rep.Transcript.FullText), Modified: now},
		)
	}

	qs := make([]exportQuestion, 0, len(rep.Questions))
	for _, q := range rep.Questions {
		qs = append(qs, exportQuestion{
			Position:         q.Position,
			SegmentStartTime: q.SegmentStartTime,
			Question:         q.Question,
			Options:          q.Options,
			CorrectAnswer:    q.CorrectAnswer,
		})
	}
	body, err := json.MarshalIndent(qs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode questions: %w", err)
	}
	entries = append(entries, zip.Entry{Name: "questions.json", Data: body, Modified: now})
	return zip.Archive(entries)
}

func writeBundle(path string, rep *report) error {
	data, err := buildBundle(rep, time.Now().UTC())
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
