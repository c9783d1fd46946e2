package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/codebuildervaibhav/call-analyzer/internal/analyzer"
	"github.com/codebuildervaibhav/call-analyzer/internal/config"
	"github.com/codebuildervaibhav/call-analyzer/internal/llm"
	"github.com/codebuildervaibhav/call-analyzer/internal/logger"
	"github.com/codebuildervaibhav/call-analyzer/internal/metrics"
	"github.com/codebuildervaibhav/call-analyzer/internal/storage"
	"github.com/codebuildervaibhav/call-analyzer/internal/transcription"
)

// components are the long-lived pieces shared by serve and analyze.
type components struct {
	cfg      *config.Config
	log      *zap.Logger
	logs     *logger.Buffer
	analyzer *analyzer.Analyzer
	db       *storage.MetadataDB
}

func (c *components) Close() {
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.log.Warn("close database", zap.Error(err))
		}
	}
	_ = c.log.Sync()
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// build wires the analyzer and, when archiving is enabled, its storage.
// oauthInput answers the Google Drive consent prompt on first use.
func build(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, oauthInput io.Reader) (*components, error) {
	logs := logger.NewBuffer(0)
	log, err := logger.New(cfg.Log, logs)
	if err != nil {
		return nil, err
	}

	model, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}
	log.Info("llm configured", zap.String("provider", cfg.LLM.Provider), zap.String("model", cfg.LLM.Model))

	c := &components{cfg: cfg, log: log, logs: logs}

	var archiver analyzer.Archiver
	if cfg.Storage.Archive {
		a, db, err := buildArchiver(ctx, cfg, log, oauthInput)
		if err != nil {
			return nil, err
		}
		archiver = a
		c.db = db
	}

	c.analyzer = analyzer.New(analyzer.Options{
		Transcriber:    transcription.NewWhisperTranscriber(cfg.Whisper, log),
		Model:          model,
		TempDir:        cfg.Storage.TempDir,
		AllowedFormats: cfg.Limits.AllowedFormats,
		Normalize:      cfg.Whisper.Normalize,
		Archiver:       archiver,
		Metrics:        metrics.New(reg),
		Logger:         log,
	})
	return c, nil
}

func buildArchiver(ctx context.Context, cfg *config.Config, log *zap.Logger, oauthInput io.Reader) (*storage.Archiver, *storage.MetadataDB, error) {
	if err := os.MkdirAll(cfg.Storage.OutputDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("create output directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.Database), 0755); err != nil {
		return nil, nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := storage.NewMetadataDB(cfg.Storage.Database)
	if err != nil {
		return nil, nil, err
	}

	var driveClient *storage.DriveClient
	if _, err := os.Stat(cfg.GoogleDrive.CredentialsFile); err == nil {
		driveClient, err = storage.NewDriveClient(ctx,
			cfg.GoogleDrive.CredentialsFile,
			cfg.GoogleDrive.TokenFile,
			cfg.GoogleDrive.FolderName,
			oauthInput,
		)
		if err != nil {
			log.Warn("google drive not available, reports are saved locally only", zap.Error(err))
			driveClient = nil
		} else {
			log.Info("google drive integration enabled", zap.String("folder", cfg.GoogleDrive.FolderName))
		}
	}

	return storage.NewArchiver(storage.NewLocalStorage(cfg.Storage.OutputDir), driveClient, db, log), db, nil
}
