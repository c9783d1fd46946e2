package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestArchiveLocalAndDB(t *testing.T) {
	db := newTestDB(t)
	archiver := NewArchiver(NewLocalStorage(t.TempDir()), nil, db, zap.NewNop())

	result := sampleResult()
	require.NoError(t, archiver.Archive(context.Background(), result))
	assert.FileExists(t, result.LocalPath)

	stored, err := db.GetAnalysis(context.Background(), result.ID)
	require.NoError(t, err)
	assert.Equal(t, result.LocalPath, stored.LocalPath)
}

func TestArchiveCollectsErrors(t *testing.T) {
	db := newTestDB(t)
	archiver := NewArchiver(nil, nil, db, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, archiver.Archive(ctx, sampleResult()))
	err := archiver.Archive(ctx, sampleResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database")
}
