package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseSegmentTime(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     time.Time
		wantErr  bool
	}{
		{
			name:     "valid filename",
			filename: "audio_20250101_120000.wav",
			want:     time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			name:     "midnight rollover",
			filename: "audio_20241231_235959.wav",
			want:     time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC),
		},
		{
			name:     "missing prefix",
			filename: "20250101_120000.wav",
			wantErr:  true,
		},
		{
			name:     "wrong extension",
			filename: "audio_20250101_120000.mp3",
			wantErr:  true,
		},
		{
			name:     "truncated timestamp",
			filename: "audio_20250101_1200.wav",
			wantErr:  true,
		},
		{
			name:     "not a segment at all",
			filename: "notes.txt",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSegmentTime(tt.filename)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSegmentTime(%q) error = %v, wantErr %v", tt.filename, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("ParseSegmentTime(%q) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}

func TestIsSegmentName(t *testing.T) {
	if !IsSegmentName("audio_20250101_120000.wav") {
		t.Error("expected valid segment name to match")
	}
	if IsSegmentName("audio_20250101_120000.wav.tmp") {
		t.Error("temp file should not match")
	}
}

func TestTranscriptRecordJSON(t *testing.T) {
	rec := TranscriptRecord{
		Timestamp:  "2025-01-01T12:00:00",
		VideoStart: "2025-01-01T12:00:00",
		VideoEnd:   "2025-01-01T12:00:00",
		Filename:   "audio_20250101_120000.wav",
		Transcript: "hello world",
		Summary:    "hello world",
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got map[string]string
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	for _, field := range []string{"timestamp", "video_start", "video_end", "filename", "transcript", "summary"} {
		if _, ok := got[field]; !ok {
			t.Errorf("serialized record missing field %q", field)
		}
	}
	if got["timestamp"] != "2025-01-01T12:00:00" {
		t.Errorf("timestamp = %q, want 2025-01-01T12:00:00", got["timestamp"])
	}
}
