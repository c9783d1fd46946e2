package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported LLM providers
const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// GroqBaseURL is the OpenAI-compatible endpoint exposed by Groq.
const GroqBaseURL = "https://api.groq.com/openai/v1"

// Config represents the application configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Whisper     WhisperConfig     `yaml:"whisper"`
	LLM         LLMConfig         `yaml:"llm"`
	Workers     WorkersConfig     `yaml:"workers"`
	Storage     StorageConfig     `yaml:"storage"`
	Cleanup     CleanupConfig     `yaml:"cleanup"`
	GoogleDrive GoogleDriveConfig `yaml:"google_drive"`
	Limits      LimitsConfig      `yaml:"limits"`
	Log         LogConfig         `yaml:"log"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// WhisperConfig controls the local speech model.
type WhisperConfig struct {
	Model     string `yaml:"model"`
	Command   string `yaml:"command"`
	Language  string `yaml:"language"`
	Device    string `yaml:"device"`
	Threads   int    `yaml:"threads"`
	Normalize bool   `yaml:"normalize"`
}

// LLMConfig selects the hosted chat-completion endpoint. The key itself is
// never read from YAML, only from the environment variable named by APIKeyEnv.
type LLMConfig struct {
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model"`
	BaseURL        string `yaml:"base_url"`
	APIKeyEnv      string `yaml:"api_key_env"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	APIKey         string `yaml:"-"`
}

type WorkersConfig struct {
	Count               int `yaml:"count"`
	QueueSize           int `yaml:"queue_size"`
	DrainTimeoutSeconds int `yaml:"drain_timeout_seconds"`
}

// DrainTimeout bounds how long shutdown waits for queued jobs.
func (w WorkersConfig) DrainTimeout() time.Duration {
	if w.DrainTimeoutSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(w.DrainTimeoutSeconds) * time.Second
}

type StorageConfig struct {
	TempDir   string `yaml:"temp_dir"`
	OutputDir string `yaml:"output_dir"`
	Database  string `yaml:"database"`
	Archive   bool   `yaml:"archive"`
}

type CleanupConfig struct {
	IntervalMinutes int `yaml:"interval_minutes"`
	MaxAgeHours     int `yaml:"max_age_hours"`
}

type GoogleDriveConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	TokenFile       string `yaml:"token_file"`
	FolderName      string `yaml:"folder_name"`
}

type LimitsConfig struct {
	MaxFileSizeMB  int      `yaml:"max_file_size_mb"`
	AllowedFormats []string `yaml:"allowed_formats"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		Whisper: WhisperConfig{
			Model:   "small",
			Command: "python",
			Device:  "cpu",
		},
		LLM: LLMConfig{
			Provider: ProviderGroq,
			Model:    "llama3-8b-8192",
		},
		Workers: WorkersConfig{Count: 1, QueueSize: 100, DrainTimeoutSeconds: 300},
		Storage: StorageConfig{
			TempDir:   "temp_audio",
			OutputDir: "outputs",
			Database:  "data/analyses.db",
		},
		Cleanup: CleanupConfig{IntervalMinutes: 30, MaxAgeHours: 6},
		GoogleDrive: GoogleDriveConfig{
			CredentialsFile: "config/credentials.json",
			TokenFile:       "config/token.json",
			FolderName:      "Call Analyses",
		},
		Limits: LimitsConfig{
			MaxFileSizeMB:  100,
			AllowedFormats: []string{".wav", ".mp3"},
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the YAML file at path over the defaults, loads .env, and
// resolves the LLM API key from the environment. A missing file is not an
// error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := LoadEnv(); err != nil {
		return nil, err
	}
	cfg.applyEnv()

	return cfg, nil
}

// LoadEnv loads the first .env file found in the working directory.
func LoadEnv() error {
	for _, p := range []string{".env", ".env.local"} {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
		return nil
	}
	return nil
}

func (c *Config) applyEnv() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.APIKeyEnv == "" {
		c.LLM.APIKeyEnv = DefaultAPIKeyEnv(c.LLM.Provider)
	}
	c.LLM.APIKey = strings.TrimSpace(os.Getenv(c.LLM.APIKeyEnv))
	if c.LLM.BaseURL == "" && c.LLM.Provider == ProviderGroq {
		c.LLM.BaseURL = GroqBaseURL
	}
}

// DefaultAPIKeyEnv names the environment variable holding the provider's key.
func DefaultAPIKeyEnv(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return "GROQ_API_KEY"
	}
}

// Validate fails fast on settings the server cannot run without.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderGroq, ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unsupported llm provider %q", c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return errors.New("llm.model is required")
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("%s is not set", c.LLM.APIKeyEnv)
	}
	if c.Whisper.Model == "" || c.Whisper.Command == "" {
		return errors.New("whisper.model and whisper.command are required")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Workers.Count <= 0 {
		return fmt.Errorf("invalid workers.count %d", c.Workers.Count)
	}
	if c.Limits.MaxFileSizeMB <= 0 {
		return fmt.Errorf("invalid limits.max_file_size_mb %d", c.Limits.MaxFileSizeMB)
	}
	if len(c.Limits.AllowedFormats) == 0 {
		return errors.New("limits.allowed_formats must not be empty")
	}
	if c.Storage.TempDir == "" {
		return errors.New("storage.temp_dir is required")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
