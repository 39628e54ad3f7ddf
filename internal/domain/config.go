package domain

import (
	"path/filepath"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Download     DownloadConfig     `mapstructure:"download"`
	Tools        ToolsConfig        `mapstructure:"tools"`
	Transcode    TranscodeConfig    `mapstructure:"transcode"`
	History      HistoryConfig      `mapstructure:"history"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host        string   `mapstructure:"host"`
	Port        int      `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// DownloadConfig contains download-related configuration
type DownloadConfig struct {
	BaseDir             string `mapstructure:"base_dir"`
	LogsDirectory       string `mapstructure:"logs_dir"`
	DefaultAudioQuality string `mapstructure:"default_audio_quality"`
	DefaultVideoQuality string `mapstructure:"default_video_quality"`
}

// LogsDir returns the logs directory, defaulting to <base_dir>/logs
func (d DownloadConfig) LogsDir() string {
	if d.LogsDirectory != "" {
		return d.LogsDirectory
	}
	return filepath.Join(d.BaseDir, "logs")
}

// ToolsConfig points at the external binaries
type ToolsConfig struct {
	YTDLPBinary   string `mapstructure:"ytdlp_binary"`
	FFmpegBinary  string `mapstructure:"ffmpeg_binary"`
	FFprobeBinary string `mapstructure:"ffprobe_binary"`
}

// TranscodeConfig contains post-processing configuration
type TranscodeConfig struct {
	TargetCodec         string        `mapstructure:"target_codec"`
	AudioBitrate        string        `mapstructure:"audio_bitrate"`
	EncoderProbeTimeout time.Duration `mapstructure:"encoder_probe_timeout"`
	PreferredEncoder    string        `mapstructure:"preferred_encoder"` // ffmpeg encoder name, e.g. h264_nvenc
}

// HistoryConfig contains download history persistence configuration
type HistoryConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "localhost",
			Port:        8765,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Download: DownloadConfig{
			BaseDir:             "$HOME/Downloads/mediagrab",
			DefaultAudioQuality: "192",
			DefaultVideoQuality: "720p",
		},
		Tools: ToolsConfig{
			YTDLPBinary:   "yt-dlp",
			FFmpegBinary:  "ffmpeg",
			FFprobeBinary: "ffprobe",
		},
		Transcode: TranscodeConfig{
			TargetCodec:         "h264",
			AudioBitrate:        "192k",
			EncoderProbeTimeout: 5 * time.Second,
		},
		History: HistoryConfig{
			DatabasePath: "$HOME/.config/mediagrab/history.db",
		},
		Notification: NotificationConfig{
			Enabled: false,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
