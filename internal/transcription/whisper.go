package transcription

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/codebuildervaibhav/call-analyzer/internal/config"
	"github.com/codebuildervaibhav/call-analyzer/internal/types"
)

// WhisperTranscriber wraps Python's OpenAI Whisper for transcription
type WhisperTranscriber struct {
	modelName  string
	whisperCmd string
	language   string
	device     string
	threads    int
	logger     *zap.Logger
	mu         sync.Mutex // one model in memory at a time
}

// NewWhisperTranscriber creates a new transcriber using Python Whisper.
// The model is loaded by the whisper process on each call, so nothing is
// checked here beyond the configuration.
func NewWhisperTranscriber(cfg config.WhisperConfig, log *zap.Logger) *WhisperTranscriber {
	log.Info("whisper transcriber configured",
		zap.String("model", cfg.Model),
		zap.String("command", cfg.Command),
		zap.String("device", cfg.Device))

	return &WhisperTranscriber{
		modelName:  cfg.Model,
		whisperCmd: cfg.Command,
		language:   cfg.Language,
		device:     cfg.Device,
		threads:    cfg.Threads,
		logger:     log,
	}
}

// Transcribe processes an audio file and returns the transcript
func (wt *WhisperTranscriber) Transcribe(ctx context.Context, audioPath string) (*types.TranscriptionResult, error) {
	wt.mu.Lock()
	defer wt.mu.Unlock()

	absAudioPath, err := filepath.Abs(audioPath)
	if err != nil {
		return nil, fmt.Errorf("resolve audio path: %w", err)
	}

	outputDir, err := os.MkdirTemp("", "whisper-output-*")
	if err != nil {
		return nil, fmt.Errorf("create whisper output dir: %w", err)
	}
	defer os.RemoveAll(outputDir)

	wt.logger.Debug("transcribing", zap.String("path", absAudioPath))

	cmd := exec.CommandContext(ctx, wt.whisperCmd, wt.args(absAudioPath, outputDir)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("whisper transcription failed: %w\nOutput: %s", err, string(output))
	}

	baseName := strings.TrimSuffix(filepath.Base(absAudioPath), filepath.Ext(absAudioPath))
	jsonData, err := os.ReadFile(filepath.Join(outputDir, baseName+".json"))
	if err != nil {
		return nil, fmt.Errorf("read whisper output: %w", err)
	}

	result, err := parseWhisperOutput(jsonData)
	if err != nil {
		return nil, err
	}

	wt.logger.Info("transcription completed",
		zap.Int("segments", len(result.Segments)),
		zap.Float64("duration", result.Duration),
		zap.String("language", result.Language))
	return result, nil
}

func (wt *WhisperTranscriber) args(audioPath, outputDir string) []string {
	args := []string{"-m", "whisper",
		audioPath,
		"--model", wt.modelName,
		"--output_dir", outputDir,
		"--output_format", "json",
	}
	if wt.language != "" {
		args = append(args, "--language", wt.language)
	}
	if wt.device != "" {
		args = append(args, "--device", wt.device)
	}
	if wt.device == "" || wt.device == "cpu" {
		args = append(args, "--fp16", "False")
	}
	if wt.threads > 0 {
		args = append(args, "--threads", strconv.Itoa(wt.threads))
	}
	return args
}

func parseWhisperOutput(data []byte) (*types.TranscriptionResult, error) {
	var whisperOutput WhisperOutput
	if err := json.Unmarshal(data, &whisperOutput); err != nil {
		return nil, fmt.Errorf("parse whisper JSON: %w", err)
	}

	segments := make([]types.Segment, len(whisperOutput.Segments))
	for i, seg := range whisperOutput.Segments {
		segments[i] = types.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		}
	}

	var duration float64
	if len(segments) > 0 {
		duration = segments[len(segments)-1].End
	}

	return &types.TranscriptionResult{
		Text:     strings.TrimSpace(whisperOutput.Text),
		Language: whisperOutput.Language,
		Duration: duration,
		Segments: segments,
	}, nil
}

// WhisperOutput matches Python Whisper's JSON output format
type WhisperOutput struct {
	Text     string           `json:"text"`
	Language string           `json:"language"`
	Segments []WhisperSegment `json:"segments"`
}

// WhisperSegment represents a timestamped segment from Whisper
type WhisperSegment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}
