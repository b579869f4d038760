package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Stream      StreamConfig      `yaml:"stream"`
	Capture     CaptureConfig     `yaml:"capture"`
	Whisper     WhisperConfig     `yaml:"whisper"`
	Watcher     WatcherConfig     `yaml:"watcher"`
	Gemini      GeminiConfig      `yaml:"gemini"`
	Paths       PathsConfig       `yaml:"paths"`
	Logging     LoggingConfig     `yaml:"logging"`
	Performance PerformanceConfig `yaml:"performance"`
	Server      ServerConfig      `yaml:"server"`
}

type StreamConfig struct {
	PageURL         string `yaml:"page_url"`
	ManifestPattern string `yaml:"manifest_pattern"`
	UserAgent       string `yaml:"user_agent"`
	Referer         string `yaml:"referer"`
	URLCacheTTLMin  int    `yaml:"url_cache_ttl_minutes"`
	NavTimeoutSec   int    `yaml:"nav_timeout_seconds"`
	ManifestWaitSec int    `yaml:"manifest_wait_seconds"`
}

type CaptureConfig struct {
	FFmpegPath     string `yaml:"ffmpeg_path"`
	SegmentSeconds int    `yaml:"segment_seconds"`
	SampleRate     int    `yaml:"sample_rate"`
	Channels       int    `yaml:"channels"`
	MaxRetries     int    `yaml:"max_retries"`
	BackoffSeconds int    `yaml:"backoff_seconds"`
	StopTimeoutSec int    `yaml:"stop_timeout_seconds"`
}

type WhisperConfig struct {
	BinaryPath string `yaml:"binary_path"`
	ModelPath  string `yaml:"model_path"`
	Language   string `yaml:"language"`
	Threads    int    `yaml:"threads"`
	BestOf     int    `yaml:"best_of"`
}

type WatcherConfig struct {
	PollSeconds int `yaml:"poll_seconds"`
}

type GeminiConfig struct {
	Model string `yaml:"model"`
}

type PathsConfig struct {
	AudioDir string `yaml:"audio_dir"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type PerformanceConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
}

type ServerConfig struct {
	Port         int `yaml:"port"`
	HistoryLimit int `yaml:"history_limit"`
}

// Load reads and validates a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Stream.PageURL == "" {
		return fmt.Errorf("stream.page_url is required")
	}
	if c.Whisper.BinaryPath == "" {
		return fmt.Errorf("whisper.binary_path is required")
	}
	if c.Whisper.ModelPath == "" {
		return fmt.Errorf("whisper.model_path is required")
	}
	if c.Paths.AudioDir == "" {
		return fmt.Errorf("paths.audio_dir is required")
	}

	if c.Stream.ManifestPattern == "" {
		c.Stream.ManifestPattern = "manifest.m3u8"
	}
	if c.Stream.UserAgent == "" {
		c.Stream.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	}
	if c.Stream.URLCacheTTLMin == 0 {
		c.Stream.URLCacheTTLMin = 15
	}
	if c.Stream.NavTimeoutSec == 0 {
		c.Stream.NavTimeoutSec = 15
	}
	if c.Stream.ManifestWaitSec == 0 {
		c.Stream.ManifestWaitSec = 3
	}
	if c.Capture.FFmpegPath == "" {
		c.Capture.FFmpegPath = "ffmpeg"
	}
	if c.Capture.SegmentSeconds == 0 {
		c.Capture.SegmentSeconds = 60
	}
	if c.Capture.SampleRate == 0 {
		c.Capture.SampleRate = 16000
	}
	if c.Capture.Channels == 0 {
		c.Capture.Channels = 1
	}
	if c.Capture.MaxRetries == 0 {
		c.Capture.MaxRetries = 3
	}
	if c.Capture.BackoffSeconds == 0 {
		c.Capture.BackoffSeconds = 5
	}
	if c.Capture.StopTimeoutSec == 0 {
		c.Capture.StopTimeoutSec = 5
	}
	if c.Whisper.Language == "" {
		c.Whisper.Language = "en"
	}
	if c.Whisper.Threads == 0 {
		c.Whisper.Threads = 4
	}
	if c.Whisper.BestOf == 0 {
		c.Whisper.BestOf = 5
	}
	if c.Watcher.PollSeconds == 0 {
		c.Watcher.PollSeconds = 5
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-flash"
	}
	if c.Performance.MaxConcurrent == 0 {
		c.Performance.MaxConcurrent = 2
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.HistoryLimit == 0 {
		c.Server.HistoryLimit = 500
	}

	return nil
}

// GeminiKeys returns the Gemini API keys from the GEMINI_API_KEYS
// environment variable (comma separated). Secrets stay out of the YAML file.
func GeminiKeys() []string {
	raw := os.Getenv("GEMINI_API_KEYS")
	if raw == "" {
		return nil
	}
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// GetEnv returns the value of the environment variable named by key, or
// fallback if unset or empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns the integer value of the environment variable named by
// key, or fallback if unset, empty, or not a valid integer.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}
