package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/codebuildervaibhav/call-analyzer/internal/analyzer"
	"github.com/codebuildervaibhav/call-analyzer/internal/queue"
	"github.com/codebuildervaibhav/call-analyzer/internal/storage"
)

var (
	ErrFileTooLarge = errors.New("file too large")
	ErrNotFound     = errors.New("not found")
)

// classify maps an error to an HTTP status and a stable error code.
func classify(err error) (int, string) {
	var fe *fiber.Error
	switch {
	case errors.Is(err, analyzer.ErrNoFile):
		return fiber.StatusBadRequest, "ERR_NO_FILE"
	case errors.Is(err, analyzer.ErrUnsupportedFormat):
		return fiber.StatusBadRequest, "ERR_INVALID_FORMAT"
	case errors.Is(err, ErrFileTooLarge):
		return fiber.StatusBadRequest, "ERR_FILE_TOO_LARGE"
	case errors.Is(err, ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return fiber.StatusNotFound, "ERR_NOT_FOUND"
	case errors.Is(err, queue.ErrQueueFull), errors.Is(err, queue.ErrPoolStopped):
		return fiber.StatusServiceUnavailable, "ERR_QUEUE_FULL"
	case errors.As(err, &fe):
		if fe.Code == fiber.StatusRequestEntityTooLarge {
			return fe.Code, "ERR_FILE_TOO_LARGE"
		}
		return fe.Code, fmt.Sprintf("ERR_HTTP_%d", fe.Code)
	default:
		return fiber.StatusInternalServerError, "ERR_INTERNAL"
	}
}

// ErrorHandler renders failures as JSON under /api and as the upload page
// everywhere else. Pipeline failures are shown as-is.
func ErrorHandler(log *zap.Logger, formats []string) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, code := classify(err)
		if status >= fiber.StatusInternalServerError {
			log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		}

		if strings.HasPrefix(c.Path(), "/api/") {
			return c.Status(status).JSON(fiber.Map{
				"error": err.Error(),
				"code":  code,
			})
		}

		data := newPageData(formats)
		data.Error = err.Error()
		return renderPage(c, status, data)
	}
}
