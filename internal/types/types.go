package types

import "time"

// Job status constants
const (
	StatusQueued     = "QUEUED"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// Source type constants
const (
	SourceUpload = "upload"
	SourceGDrive = "gdrive"
	SourceStream = "stream"
	SourceCLI    = "cli"
)

// AudioUpload is the raw audio received for one analysis. It is owned by a
// single request and never shared.
type AudioUpload struct {
	ID       string
	Filename string
	Source   string
	Data     []byte
}

// TranscriptionResult represents the output from Whisper
type TranscriptionResult struct {
	Text     string
	Language string
	Duration float64
	Segments []Segment
}

// Segment represents a timestamped segment of transcription
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// AnalysisResult is everything rendered back to the caller for one call
// recording.
type AnalysisResult struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	Source      string    `json:"source"`
	Transcript  string    `json:"transcript"`
	Language    string    `json:"language,omitempty"`
	Duration    float64   `json:"duration_seconds"`
	WordCount   int       `json:"word_count"`
	Summary     string    `json:"summary"`
	Suggestions string    `json:"suggestions"`
	ProcessedAt time.Time `json:"processed_at"`
	LocalPath   string    `json:"local_path,omitempty"`
	GDriveURL   string    `json:"gdrive_url,omitempty"`
}
