package transcription

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DefaultFormats are the extensions accepted by the upload form.
var DefaultFormats = []string{".wav", ".mp3"}

// NormalizeAudio converts any audio file to 16kHz mono WAV format inside outputDir
func NormalizeAudio(ctx context.Context, inputPath, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	outputPath := filepath.Join(outputDir, fmt.Sprintf("normalized_%s.wav", uuid.New().String()))

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", inputPath,
		"-ar", "16000", // 16kHz sample rate
		"-ac", "1", // Mono
		"-c:a", "pcm_s16le", // 16-bit PCM
		"-y",
		outputPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(outputPath)
		return "", fmt.Errorf("ffmpeg failed: %w\nOutput: %s", err, string(output))
	}

	return outputPath, nil
}

// ValidateAudioFormat checks if the file extension is one of allowed.
// An empty allowed list falls back to DefaultFormats.
func ValidateAudioFormat(filename string, allowed []string) bool {
	if len(allowed) == 0 {
		allowed = DefaultFormats
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return false
	}

	for _, format := range allowed {
		if ext == strings.ToLower(format) {
			return true
		}
	}
	return false
}
