package storage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/codebuildervaibhav/call-analyzer/internal/types"
)

// Archiver writes finished analyses to every configured destination. Any
// of local, drive and db may be nil.
type Archiver struct {
	local  *LocalStorage
	drive  *DriveClient
	db     *MetadataDB
	logger *zap.Logger
}

func NewArchiver(local *LocalStorage, drive *DriveClient, db *MetadataDB, log *zap.Logger) *Archiver {
	return &Archiver{local: local, drive: drive, db: db, logger: log}
}

// Archive saves the report locally, uploads it to Drive, then records it in
// the database. LocalPath and GDriveURL are filled in on result.
func (a *Archiver) Archive(ctx context.Context, result *types.AnalysisResult) error {
	var errs []error

	if a.local != nil {
		path, err := a.local.SaveReport(result)
		if err != nil {
			errs = append(errs, fmt.Errorf("local: %w", err))
		} else {
			result.LocalPath = path
		}
	}

	if a.drive != nil {
		url, err := a.drive.Upload(ctx, result)
		if err != nil {
			errs = append(errs, fmt.Errorf("google drive: %w", err))
		} else {
			result.GDriveURL = url
		}
	}

	if a.db != nil {
		if err := a.db.SaveAnalysis(ctx, result); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}

	if len(errs) == 0 {
		a.logger.Debug("analysis archived",
			zap.String("id", result.ID),
			zap.String("local_path", result.LocalPath),
			zap.String("gdrive_url", result.GDriveURL))
	}
	return errors.Join(errs...)
}
