package handlers

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/call-analyzer/internal/types"
)

// Analyzer runs the full pipeline for one upload.
type Analyzer interface {
	Analyze(ctx context.Context, upload *types.AudioUpload) (*types.AnalysisResult, error)
}

// UploadHandler handles file uploads
type UploadHandler struct {
	analyzer  Analyzer
	maxSizeMB int
	formats   []string
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(analyzer Analyzer, maxSizeMB int, formats []string) *UploadHandler {
	return &UploadHandler{
		analyzer:  analyzer,
		maxSizeMB: maxSizeMB,
		formats:   formats,
	}
}

// Form serves the empty upload page.
func (h *UploadHandler) Form(c *fiber.Ctx) error {
	return renderPage(c, fiber.StatusOK, newPageData(h.formats))
}

// Handle analyzes the uploaded file and renders the results page. Without a
// file the form is shown again and nothing else runs.
func (h *UploadHandler) Handle(c *fiber.Ctx) error {
	upload, err := h.readUpload(c)
	if err != nil {
		return err
	}
	if upload == nil {
		data := newPageData(h.formats)
		data.Notice = "Please choose an audio file to upload."
		return renderPage(c, fiber.StatusBadRequest, data)
	}

	result, err := h.analyzer.Analyze(c.UserContext(), upload)
	if err != nil {
		return err
	}

	data := newPageData(h.formats)
	data.Result = result
	return renderPage(c, fiber.StatusOK, data)
}

// HandleAPI is Handle with a JSON response.
func (h *UploadHandler) HandleAPI(c *fiber.Ctx) error {
	upload, err := h.readUpload(c)
	if err != nil {
		return err
	}
	if upload == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file uploaded",
			"code":  "ERR_NO_FILE",
		})
	}

	result, err := h.analyzer.Analyze(c.UserContext(), upload)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// readUpload returns nil, nil when the request carries no file.
func (h *UploadHandler) readUpload(c *fiber.Ctx) (*types.AudioUpload, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return nil, nil
	}

	maxSize := int64(h.maxSizeMB) * 1024 * 1024
	if file.Size > maxSize {
		return nil, fmt.Errorf("%w (max %dMB)", ErrFileTooLarge, h.maxSizeMB)
	}

	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	return &types.AudioUpload{
		Filename: filepath.Base(file.Filename),
		Source:   types.SourceUpload,
		Data:     data,
	}, nil
}
