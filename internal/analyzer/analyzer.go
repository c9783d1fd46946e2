package analyzer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codebuildervaibhav/call-analyzer/internal/llm"
	"github.com/codebuildervaibhav/call-analyzer/internal/metrics"
	"github.com/codebuildervaibhav/call-analyzer/internal/transcription"
	"github.com/codebuildervaibhav/call-analyzer/internal/types"
)

var (
	ErrNoFile            = errors.New("no audio file uploaded")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// Archiver keeps a copy of finished analyses.
type Archiver interface {
	Archive(ctx context.Context, result *types.AnalysisResult) error
}

// Options configures an Analyzer. Archiver and Metrics may be nil.
type Options struct {
	Transcriber    transcription.Transcriber
	Model          llm.ChatModel
	TempDir        string
	AllowedFormats []string
	Normalize      bool
	Archiver       Archiver
	Metrics        *metrics.Metrics
	Logger         *zap.Logger
}

// Analyzer runs the upload -> transcript -> summary -> suggestions pipeline.
type Analyzer struct {
	transcriber transcription.Transcriber
	model       llm.ChatModel
	tempDir     string
	formats     []string
	normalize   bool
	archiver    Archiver
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

func New(opts Options) *Analyzer {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{
		transcriber: opts.Transcriber,
		model:       opts.Model,
		tempDir:     opts.TempDir,
		formats:     opts.AllowedFormats,
		normalize:   opts.Normalize,
		archiver:    opts.Archiver,
		metrics:     opts.Metrics,
		logger:      log,
	}
}

// Analyze processes one uploaded recording. The temporary copy of the audio
// is removed before Analyze returns, whether or not it succeeded.
func (a *Analyzer) Analyze(ctx context.Context, upload *types.AudioUpload) (*types.AnalysisResult, error) {
	if upload == nil || upload.Filename == "" || len(upload.Data) == 0 {
		return nil, ErrNoFile
	}
	if !transcription.ValidateAudioFormat(upload.Filename, a.formats) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(upload.Filename))
	}

	id := upload.ID
	if id == "" {
		id = uuid.New().String()
	}
	log := a.logger.With(zap.String("id", id), zap.String("filename", upload.Filename))

	result, err := a.run(ctx, id, upload, log)
	if err != nil {
		a.metrics.CountAnalysis("error")
		log.Error("analysis failed", zap.Error(err))
		return nil, err
	}
	a.metrics.CountAnalysis("success")

	if a.archiver != nil {
		if err := a.archiver.Archive(ctx, result); err != nil {
			log.Warn("archive failed", zap.Error(err))
		}
	}

	log.Info("analysis completed", zap.Int("word_count", result.WordCount))
	return result, nil
}

func (a *Analyzer) run(ctx context.Context, id string, upload *types.AudioUpload, log *zap.Logger) (*types.AnalysisResult, error) {
	audioPath, err := a.saveTemp(id, upload)
	if err != nil {
		return nil, err
	}
	defer a.cleanupTempFile(audioPath)

	if a.normalize {
		normalized, err := transcription.NormalizeAudio(ctx, audioPath, a.tempDir)
		if err != nil {
			return nil, fmt.Errorf("normalize audio: %w", err)
		}
		defer a.cleanupTempFile(normalized)
		audioPath = normalized
	}

	start := time.Now()
	transcript, err := a.transcriber.Transcribe(ctx, audioPath)
	a.metrics.ObserveStep(metrics.StepTranscribe, start)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}
	log.Debug("transcribed", zap.Int("chars", len(transcript.Text)))

	summary, err := a.Summarize(ctx, transcript.Text)
	if err != nil {
		return nil, err
	}

	suggestions, err := a.Improve(ctx, transcript.Text)
	if err != nil {
		return nil, err
	}

	source := upload.Source
	if source == "" {
		source = types.SourceUpload
	}

	return &types.AnalysisResult{
		ID:          id,
		Filename:    upload.Filename,
		Source:      source,
		Transcript:  transcript.Text,
		Language:    transcript.Language,
		Duration:    transcript.Duration,
		WordCount:   len(strings.Fields(transcript.Text)),
		Summary:     summary,
		Suggestions: suggestions,
		ProcessedAt: time.Now(),
	}, nil
}

// Summarize asks the model for a summary of the conversation.
func (a *Analyzer) Summarize(ctx context.Context, transcript string) (string, error) {
	start := time.Now()
	defer a.metrics.ObserveStep(metrics.StepSummarize, start)

	completion, err := a.model.Complete(ctx, llm.SummaryPrompt(transcript))
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return completion.Render(), nil
}

// Improve asks the model for upgraded agent responses.
func (a *Analyzer) Improve(ctx context.Context, transcript string) (string, error) {
	start := time.Now()
	defer a.metrics.ObserveStep(metrics.StepImprove, start)

	completion, err := a.model.Complete(ctx, llm.ImprovementPrompt(transcript))
	if err != nil {
		return "", fmt.Errorf("suggest improvements: %w", err)
	}
	return completion.Render(), nil
}

// saveTemp writes the upload to <tempDir>/<id><ext>.
func (a *Analyzer) saveTemp(id string, upload *types.AudioUpload) (string, error) {
	if err := os.MkdirAll(a.tempDir, 0755); err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(upload.Filename))
	path := filepath.Join(a.tempDir, id+ext)
	if err := os.WriteFile(path, upload.Data, 0600); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	return path, nil
}

func (a *Analyzer) cleanupTempFile(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		a.logger.Warn("failed to remove temp file", zap.String("path", path), zap.Error(err))
	}
}
