package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/codebuildervaibhav/call-analyzer/internal/types"
)

// LocalStorage handles saving analysis reports to the local filesystem
type LocalStorage struct {
	outputDir string
	now       func() time.Time
}

// NewLocalStorage creates a new local storage handler
func NewLocalStorage(outputDir string) *LocalStorage {
	return &LocalStorage{
		outputDir: outputDir,
		now:       time.Now,
	}
}

// SaveReport writes the transcript, the analysis and a metadata file under
// a dated directory (outputs/2025/01/23/) and returns the transcript path.
func (ls *LocalStorage) SaveReport(result *types.AnalysisResult) (string, error) {
	now := reportTime(result, ls.now)
	dateDir := filepath.Join(ls.outputDir,
		fmt.Sprintf("%d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		fmt.Sprintf("%02d", now.Day()))

	if err := os.MkdirAll(dateDir, 0755); err != nil {
		return "", fmt.Errorf("create date directory: %w", err)
	}

	baseFilename := reportBaseName(now, result.Filename)
	txtPath := filepath.Join(dateDir, baseFilename+".txt")
	mdPath := filepath.Join(dateDir, baseFilename+"_analysis.md")
	metaPath := filepath.Join(dateDir, baseFilename+"_meta.json")

	if err := os.WriteFile(txtPath, []byte(result.Transcript), 0644); err != nil {
		return "", fmt.Errorf("save transcript: %w", err)
	}

	if err := os.WriteFile(mdPath, []byte(RenderMarkdown(result)), 0644); err != nil {
		return "", fmt.Errorf("save analysis: %w", err)
	}

	metaJSON, err := json.MarshalIndent(reportMetadata(result, txtPath), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(metaPath, metaJSON, 0644); err != nil {
		return "", fmt.Errorf("save metadata: %w", err)
	}

	return txtPath, nil
}

// reportTime is the timestamp a report is filed under. Every destination uses
// it so the copies of one analysis share a name.
func reportTime(result *types.AnalysisResult, now func() time.Time) time.Time {
	if result.ProcessedAt.IsZero() {
		return now()
	}
	return result.ProcessedAt
}

// RenderMarkdown formats a result as the report stored next to the transcript.
func RenderMarkdown(result *types.AnalysisResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Call analysis: %s\n\n", result.Filename)
	fmt.Fprintf(&sb, "_%s_\n\n", result.ProcessedAt.Format("2006-01-02 15:04"))
	sb.WriteString("## Summary\n\n")
	sb.WriteString(strings.TrimSpace(result.Summary))
	sb.WriteString("\n\n## Alternative Response Suggestions\n\n")
	sb.WriteString(strings.TrimSpace(result.Suggestions))
	sb.WriteString("\n\n## Transcript\n\n")
	sb.WriteString(strings.TrimSpace(result.Transcript))
	sb.WriteString("\n")
	return sb.String()
}

func reportMetadata(result *types.AnalysisResult, localPath string) map[string]interface{} {
	return map[string]interface{}{
		"id":               result.ID,
		"filename":         result.Filename,
		"source":           result.Source,
		"duration_seconds": result.Duration,
		"word_count":       result.WordCount,
		"language":         result.Language,
		"processed_at":     result.ProcessedAt,
		"local_path":       localPath,
	}
}

// reportBaseName produces 20250123_143022_support_call
func reportBaseName(t time.Time, filename string) string {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return fmt.Sprintf("%s_%s", t.Format("20060102_150405"), sanitizeFilename(stem))
}

// sanitizeFilename replaces characters that are unsafe in file names
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", " ", "_",
	)
	result := replacer.Replace(name)
	if result == "" || result == "." || result == ".." {
		result = "untitled"
	}
	if len(result) > 100 {
		result = result[:100]
	}
	return result
}
