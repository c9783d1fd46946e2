package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codebuildervaibhav/call-analyzer/internal/types"
)

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	printResult(&buf, &types.AnalysisResult{
		Transcript:  "hello",
		Summary:     "greeting",
		Suggestions: "none",
	})

	assert.Equal(t, "Transcription:\nhello\n\nSummary\ngreeting\n\nAlternative Response Suggestions\nnone\n", buf.String())
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()

	serve, _, err := root.Find([]string{"serve"})
	assert.NoError(t, err)
	assert.Equal(t, "serve", serve.Name())

	analyze, _, err := root.Find([]string{"analyze"})
	assert.NoError(t, err)
	assert.Equal(t, "analyze", analyze.Name())

	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestAnalyzeRequiresFile(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"analyze"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	assert.Error(t, root.Execute())
}
