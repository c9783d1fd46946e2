package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *MetadataDB {
	t.Helper()
	db, err := NewMetadataDB(filepath.Join(t.TempDir(), "analyses.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveAndGetAnalysis(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	in := sampleResult()
	require.NoError(t, db.SaveAnalysis(ctx, in))

	got, err := db.GetAnalysis(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, in.Filename, got.Filename)
	assert.Equal(t, in.Transcript, got.Transcript)
	assert.Equal(t, in.Summary, got.Summary)
	assert.Equal(t, in.Suggestions, got.Suggestions)
	assert.Equal(t, in.WordCount, got.WordCount)
	assert.InDelta(t, in.Duration, got.Duration, 0.0001)
	assert.True(t, in.ProcessedAt.Equal(got.ProcessedAt))
}

func TestGetAnalysisNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetAnalysis(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveAnalysisDuplicateID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveAnalysis(ctx, sampleResult()))
	assert.Error(t, db.SaveAnalysis(ctx, sampleResult()))
}

func TestListAnalysesNewestFirst(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		r := sampleResult()
		r.ID = id
		r.ProcessedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, db.SaveAnalysis(ctx, r))
	}

	list, err := db.ListAnalyses(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, "mid", list[1].ID)
}

func TestListAnalysesEmpty(t *testing.T) {
	db := newTestDB(t)

	list, err := db.ListAnalyses(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}
