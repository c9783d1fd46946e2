package analyzer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codebuildervaibhav/call-analyzer/internal/llm"
	"github.com/codebuildervaibhav/call-analyzer/internal/metrics"
	"github.com/codebuildervaibhav/call-analyzer/internal/types"
)

const sampleTranscript = "Customer: I was billed twice. Agent: That's not my department."

type fakeTranscriber struct {
	text       string
	err        error
	calls      int
	paths      []string
	existedNow bool
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audioPath string) (*types.TranscriptionResult, error) {
	f.calls++
	f.paths = append(f.paths, audioPath)
	_, statErr := os.Stat(audioPath)
	f.existedNow = statErr == nil
	if f.err != nil {
		return nil, f.err
	}
	return &types.TranscriptionResult{Text: f.text, Language: "en", Duration: 4.2}, nil
}

type fakeModel struct {
	replies []*llm.Completion
	err     error
	prompts []string
}

func (f *fakeModel) Complete(_ context.Context, prompt string) (*llm.Completion, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.replies) == 0 {
		return &llm.Completion{Text: "ok"}, nil
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

type fakeArchiver struct {
	results []*types.AnalysisResult
	err     error
}

func (f *fakeArchiver) Archive(_ context.Context, result *types.AnalysisResult) error {
	f.results = append(f.results, result)
	return f.err
}

func newTestAnalyzer(t *testing.T, tr *fakeTranscriber, model *fakeModel, archiver Archiver) (*Analyzer, string) {
	t.Helper()
	tempDir := filepath.Join(t.TempDir(), "temp_audio")
	return New(Options{
		Transcriber: tr,
		Model:       model,
		TempDir:     tempDir,
		Archiver:    archiver,
		Metrics:     metrics.New(prometheus.NewRegistry()),
	}), tempDir
}

func upload() *types.AudioUpload {
	return &types.AudioUpload{Filename: "call.wav", Data: []byte("RIFF....WAVE")}
}

func TestAnalyze(t *testing.T) {
	tr := &fakeTranscriber{text: sampleTranscript}
	model := &fakeModel{replies: []*llm.Completion{
		{Text: "Billing complaint, unresolved."},
		{Text: `- Old Response: "That's not my department."`},
	}}
	archiver := &fakeArchiver{}
	a, tempDir := newTestAnalyzer(t, tr, model, archiver)

	result, err := a.Analyze(context.Background(), upload())
	require.NoError(t, err)

	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "call.wav", result.Filename)
	assert.Equal(t, types.SourceUpload, result.Source)
	assert.Equal(t, sampleTranscript, result.Transcript)
	assert.Equal(t, "Billing complaint, unresolved.", result.Summary)
	assert.Equal(t, `- Old Response: "That's not my department."`, result.Suggestions)
	assert.Equal(t, 10, result.WordCount)
	assert.Equal(t, "en", result.Language)

	require.Len(t, model.prompts, 2)
	assert.Equal(t, llm.SummaryPrompt(sampleTranscript), model.prompts[0])
	assert.Equal(t, llm.ImprovementPrompt(sampleTranscript), model.prompts[1])

	require.Len(t, tr.paths, 1)
	assert.True(t, tr.existedNow, "audio must be on disk while transcribing")
	assert.Equal(t, tempDir, filepath.Dir(tr.paths[0]))
	assert.Equal(t, ".wav", filepath.Ext(tr.paths[0]))
	assert.NoFileExists(t, tr.paths[0])

	require.Len(t, archiver.results, 1)
	assert.Same(t, result, archiver.results[0])
}

func TestAnalyzeUsesUploadID(t *testing.T) {
	tr := &fakeTranscriber{text: sampleTranscript}
	a, tempDir := newTestAnalyzer(t, tr, &fakeModel{}, nil)

	up := upload()
	up.ID = "job-1"
	up.Source = types.SourceGDrive
	result, err := a.Analyze(context.Background(), up)
	require.NoError(t, err)

	assert.Equal(t, "job-1", result.ID)
	assert.Equal(t, types.SourceGDrive, result.Source)
	assert.Equal(t, filepath.Join(tempDir, "job-1.wav"), tr.paths[0])
}

func TestAnalyzeNoFile(t *testing.T) {
	tests := []struct {
		name   string
		upload *types.AudioUpload
	}{
		{name: "nil upload", upload: nil},
		{name: "no filename", upload: &types.AudioUpload{Data: []byte("x")}},
		{name: "empty data", upload: &types.AudioUpload{Filename: "call.wav"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &fakeTranscriber{text: sampleTranscript}
			model := &fakeModel{}
			a, tempDir := newTestAnalyzer(t, tr, model, nil)

			_, err := a.Analyze(context.Background(), tt.upload)
			assert.ErrorIs(t, err, ErrNoFile)
			assert.Zero(t, tr.calls)
			assert.Empty(t, model.prompts)
			assert.NoDirExists(t, tempDir)
		})
	}
}

func TestAnalyzeUnsupportedFormat(t *testing.T) {
	tr := &fakeTranscriber{text: sampleTranscript}
	model := &fakeModel{}
	a, _ := newTestAnalyzer(t, tr, model, nil)

	_, err := a.Analyze(context.Background(), &types.AudioUpload{Filename: "notes.txt", Data: []byte("hi")})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Zero(t, tr.calls)
	assert.Empty(t, model.prompts)
}

func TestAnalyzeTranscriptionFailureCleansUp(t *testing.T) {
	tr := &fakeTranscriber{err: errors.New("unsupported audio")}
	model := &fakeModel{}
	a, _ := newTestAnalyzer(t, tr, model, nil)

	_, err := a.Analyze(context.Background(), upload())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported audio")

	require.Len(t, tr.paths, 1)
	assert.NoFileExists(t, tr.paths[0])
	assert.Empty(t, model.prompts, "no LLM call without a transcript")
}

func TestAnalyzeLLMFailureCleansUp(t *testing.T) {
	tr := &fakeTranscriber{text: sampleTranscript}
	model := &fakeModel{err: errors.New("connection refused")}
	archiver := &fakeArchiver{}
	a, _ := newTestAnalyzer(t, tr, model, archiver)

	_, err := a.Analyze(context.Background(), upload())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "summarize")

	assert.NoFileExists(t, tr.paths[0])
	assert.Len(t, model.prompts, 1)
	assert.Empty(t, archiver.results)
}

func TestAnalyzeArchiveFailureIsNotFatal(t *testing.T) {
	tr := &fakeTranscriber{text: sampleTranscript}
	a, _ := newTestAnalyzer(t, tr, &fakeModel{}, &fakeArchiver{err: errors.New("disk full")})

	result, err := a.Analyze(context.Background(), upload())
	require.NoError(t, err)
	assert.Equal(t, sampleTranscript, result.Transcript)
}

func TestSummarizeRendersRawFallback(t *testing.T) {
	model := &fakeModel{replies: []*llm.Completion{{Raw: map[string]string{"finish_reason": "length"}}}}
	a, _ := newTestAnalyzer(t, &fakeTranscriber{}, model, nil)

	summary, err := a.Summarize(context.Background(), sampleTranscript)
	require.NoError(t, err)
	assert.Contains(t, summary, `"finish_reason": "length"`)
}

func TestImprovePromptCarriesInstructions(t *testing.T) {
	model := &fakeModel{}
	a, _ := newTestAnalyzer(t, &fakeTranscriber{}, model, nil)

	_, err := a.Improve(context.Background(), sampleTranscript)
	require.NoError(t, err)

	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], sampleTranscript)
	assert.Contains(t, model.prompts[0], llm.ImprovementInstructions)
}
