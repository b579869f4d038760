package model

import (
	"fmt"
	"regexp"
	"time"
)

// TimeLayout is the wire format for all record timestamps
// (ISO 8601 to the second, no zone).
const TimeLayout = "2006-01-02T15:04:05"

// segmentNameLayout matches the strftime pattern the capture process
// substitutes into segment filenames.
const segmentNameLayout = "20060102_150405"

var segmentNameRe = regexp.MustCompile(`^audio_(\d{8}_\d{6})\.wav$`)

// TranscriptRecord is one processed audio segment. Immutable once built.
// VideoEnd currently mirrors VideoStart; segment duration tracking is a
// known approximation carried over until real interval data exists.
type TranscriptRecord struct {
	Timestamp  string `json:"timestamp"`
	VideoStart string `json:"video_start"`
	VideoEnd   string `json:"video_end"`
	Filename   string `json:"filename"`
	Transcript string `json:"transcript"`
	Summary    string `json:"summary"`
}

// IsSegmentName reports whether name follows the capture output
// convention audio_<YYYYMMDD>_<HHMMSS>.wav.
func IsSegmentName(name string) bool {
	return segmentNameRe.MatchString(name)
}

// ParseSegmentTime extracts the capture start time embedded in a segment
// filename.
func ParseSegmentTime(name string) (time.Time, error) {
	m := segmentNameRe.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, fmt.Errorf("filename %q does not match audio_<YYYYMMDD>_<HHMMSS>.wav", name)
	}
	t, err := time.Parse(segmentNameLayout, m[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp from %q: %w", name, err)
	}
	return t, nil
}
