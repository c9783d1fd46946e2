package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/codebuildervaibhav/call-analyzer/internal/types"
)

// Job represents an asynchronous analysis job
type Job struct {
	ID          string                `json:"job_id"`
	SourceType  string                `json:"source"`
	Filename    string                `json:"filename"`
	Status      string                `json:"status"`
	Error       string                `json:"error,omitempty"`
	Result      *types.AnalysisResult `json:"result,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`

	upload *types.AudioUpload
}

// NewJob creates a queued job for upload, assigning it an ID when it has none.
func NewJob(upload *types.AudioUpload) *Job {
	if upload.ID == "" {
		upload.ID = uuid.New().String()
	}
	return &Job{
		ID:         upload.ID,
		SourceType: upload.Source,
		Filename:   upload.Filename,
		Status:     types.StatusQueued,
		CreatedAt:  time.Now(),
		upload:     upload,
	}
}
