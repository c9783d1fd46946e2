package handlers

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"github.com/codebuildervaibhav/call-analyzer/internal/analyzer"
	"github.com/codebuildervaibhav/call-analyzer/internal/queue"
	"github.com/codebuildervaibhav/call-analyzer/internal/transcription"
	"github.com/codebuildervaibhav/call-analyzer/internal/types"
)

const driveDownloadURL = "https://drive.google.com/uc"

var (
	reDriveFilePath = regexp.MustCompile(`/file/d/([a-zA-Z0-9_-]+)`)
	reDriveIDParam  = regexp.MustCompile(`[?&]id=([a-zA-Z0-9_-]+)`)
	reDriveBareID   = regexp.MustCompile(`^([a-zA-Z0-9_-]{25,40})$`)
)

// JobQueue accepts asynchronous analysis jobs.
type JobQueue interface {
	EnqueueJob(job *queue.Job) error
	GetJob(id string) (queue.Job, bool)
}

// GDriveHandler handles Google Drive link processing
type GDriveHandler struct {
	jobs        JobQueue
	client      *http.Client
	downloadURL string
	maxSizeMB   int
	formats     []string
	logger      *zap.Logger
}

// NewGDriveHandler creates a new Google Drive handler
func NewGDriveHandler(jobs JobQueue, maxSizeMB int, formats []string, log *zap.Logger) *GDriveHandler {
	return &GDriveHandler{
		jobs:        jobs,
		client:      http.DefaultClient,
		downloadURL: driveDownloadURL,
		maxSizeMB:   maxSizeMB,
		formats:     formats,
		logger:      log,
	}
}

// GDriveRequest represents the request body
type GDriveRequest struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// Handle downloads a shared Drive file and queues it for analysis
func (h *GDriveHandler) Handle(c *fiber.Ctx) error {
	var req GDriveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
			"code":  "ERR_INVALID_BODY",
		})
	}
	// form values alias the request buffer, and the job outlives it
	req.URL = utils.CopyString(req.URL)
	req.Name = utils.CopyString(req.Name)

	if req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "URL is required",
			"code":  "ERR_NO_URL",
		})
	}

	fileID := extractGDriveFileID(req.URL)
	if fileID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid Google Drive URL",
			"code":  "ERR_INVALID_URL",
		})
	}

	h.logger.Info("downloading from google drive", zap.String("file_id", fileID))

	data, remoteName, err := h.download(c.UserContext(), fileID)
	if err != nil {
		return err
	}

	filename := req.Name
	if filename == "" {
		filename = remoteName
	}
	if filename == "" {
		filename = "gdrive_call.mp3"
	}
	if filepath.Ext(filename) == "" && remoteName != "" {
		filename += filepath.Ext(remoteName)
	}
	if !transcription.ValidateAudioFormat(filename, h.formats) {
		return fmt.Errorf("%w: %q", analyzer.ErrUnsupportedFormat, filename)
	}

	job := queue.NewJob(&types.AudioUpload{
		Filename: filepath.Base(filename),
		Source:   types.SourceGDrive,
		Data:     data,
	})
	if err := h.jobs.EnqueueJob(job); err != nil {
		return err
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"job_id":  job.ID,
		"status":  "queued",
		"message": "Google Drive file downloaded, processing started",
	})
}

// download fetches the file body and the filename Drive reports for it.
func (h *GDriveHandler) download(ctx context.Context, fileID string) ([]byte, string, error) {
	u := h.downloadURL + "?" + url.Values{"export": {"download"}, "id": {fileID}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build download request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download from google drive: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fiber.NewError(fiber.StatusBadRequest,
			"File not accessible (may be private or doesn't exist)")
	}

	maxSize := int64(h.maxSizeMB) * 1024 * 1024
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("read google drive file: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, "", fmt.Errorf("%w (max %dMB)", ErrFileTooLarge, h.maxSizeMB)
	}

	var name string
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		name = params["filename"]
	}
	return data, name, nil
}

// extractGDriveFileID extracts the file ID from various Google Drive URL formats
func extractGDriveFileID(link string) string {
	// https://drive.google.com/file/d/{ID}/view
	if matches := reDriveFilePath.FindStringSubmatch(link); len(matches) > 1 {
		return matches[1]
	}

	// https://drive.google.com/open?id={ID}
	if matches := reDriveIDParam.FindStringSubmatch(link); len(matches) > 1 {
		return matches[1]
	}

	if matches := reDriveBareID.FindStringSubmatch(link); len(matches) > 1 {
		return matches[1]
	}

	return ""
}
