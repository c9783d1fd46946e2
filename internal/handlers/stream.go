package handlers

import (
	"bytes"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/codebuildervaibhav/call-analyzer/internal/queue"
	"github.com/codebuildervaibhav/call-analyzer/internal/transcription"
	"github.com/codebuildervaibhav/call-analyzer/internal/types"
)

const defaultStreamName = "stream_recording.wav"

// StreamHandler handles WebSocket audio streaming
type StreamHandler struct {
	jobs      JobQueue
	maxSizeMB int
	formats   []string
	logger    *zap.Logger
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(jobs JobQueue, maxSizeMB int, formats []string, log *zap.Logger) *StreamHandler {
	return &StreamHandler{
		jobs:      jobs,
		maxSizeMB: maxSizeMB,
		formats:   formats,
		logger:    log,
	}
}

// RequireUpgrade rejects plain HTTP requests on the websocket route.
func RequireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Handle collects binary audio frames until the client sends "END", then
// queues the recording. A text frame other than "END" names the recording.
func (h *StreamHandler) Handle(c *websocket.Conn) {
	defer c.Close()

	var (
		buffer   bytes.Buffer
		filename = defaultStreamName
		maxSize  = h.maxSizeMB * 1024 * 1024
		ended    bool
	)

	for !ended {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			h.logger.Debug("websocket closed", zap.Error(err))
			break
		}

		switch messageType {
		case websocket.TextMessage:
			msg := string(message)
			if msg == "END" {
				ended = true
				continue
			}
			if len(msg) > 0 && len(msg) < 200 {
				filename = streamFilename(msg)
			}
		case websocket.BinaryMessage:
			if buffer.Len()+len(message) > maxSize {
				h.reply(c, fiber.Map{"error": "stream too large", "code": "ERR_FILE_TOO_LARGE"})
				return
			}
			buffer.Write(message)
		}
	}

	if !ended {
		return
	}
	if buffer.Len() == 0 {
		h.reply(c, fiber.Map{"error": "No audio data received", "code": "ERR_NO_FILE"})
		return
	}
	if !transcription.ValidateAudioFormat(filename, h.formats) {
		h.reply(c, fiber.Map{"error": "Unsupported audio format", "code": "ERR_INVALID_FORMAT"})
		return
	}

	job := queue.NewJob(&types.AudioUpload{
		Filename: filename,
		Source:   types.SourceStream,
		Data:     buffer.Bytes(),
	})
	if err := h.jobs.EnqueueJob(job); err != nil {
		h.reply(c, fiber.Map{"error": err.Error(), "code": "ERR_QUEUE_FULL"})
		return
	}

	h.logger.Info("stream received", zap.String("job_id", job.ID), zap.Int("bytes", buffer.Len()))
	h.reply(c, fiber.Map{"job_id": job.ID, "status": "queued"})
}

func (h *StreamHandler) reply(c *websocket.Conn, body fiber.Map) {
	if err := c.WriteJSON(body); err != nil {
		h.logger.Warn("websocket write failed", zap.Error(err))
	}
}

// streamFilename turns a client-supplied name into a file name, defaulting
// the extension to .wav.
func streamFilename(name string) string {
	name = filepath.Base(name)
	if filepath.Ext(name) == "" {
		name += ".wav"
	}
	return name
}
