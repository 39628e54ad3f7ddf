package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/yourusername/mediagrab-go/internal/domain"
)

// DefaultConfigPath returns the per-user config file location
func DefaultConfigPath() string {
	return expandPath("$HOME/.config/mediagrab/config.yaml")
}

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("$HOME/.config/mediagrab")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix("MEDIAGRAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		// An explicit path that does not exist yet is created by SaveConfig
		if !notFound && !(configPath != "" && os.IsNotExist(err)) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// bindEnvKeys registers every key so AutomaticEnv also applies to keys that
// are absent from the config file
func bindEnvKeys(v *viper.Viper) {
	for key := range configValues(domain.DefaultConfig()) {
		_ = v.BindEnv(key)
	}
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Download.BaseDir = expandPath(config.Download.BaseDir)
	config.Download.LogsDirectory = expandPath(config.Download.LogsDirectory)
	config.History.DatabasePath = expandPath(config.History.DatabasePath)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.Contains(path, "$HOME") {
		if home, err := os.UserHomeDir(); err == nil {
			path = strings.ReplaceAll(path, "$HOME", home)
		}
	}

	path = os.ExpandEnv(path)

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}

	return path
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Download.BaseDir == "" {
		return fmt.Errorf("download base directory not configured")
	}

	if config.Tools.YTDLPBinary == "" || config.Tools.FFmpegBinary == "" || config.Tools.FFprobeBinary == "" {
		return fmt.Errorf("yt-dlp, ffmpeg and ffprobe binaries must be configured")
	}

	if config.Transcode.TargetCodec == "" {
		return fmt.Errorf("transcode target codec not configured")
	}

	if config.Transcode.EncoderProbeTimeout <= 0 {
		return fmt.Errorf("encoder probe timeout must be positive")
	}

	if config.History.DatabasePath == "" {
		return fmt.Errorf("history database path not configured")
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// configValues flattens the config into viper keys
func configValues(config *domain.Config) map[string]interface{} {
	return map[string]interface{}{
		"server.host":                     config.Server.Host,
		"server.port":                     config.Server.Port,
		"server.cors_origins":             config.Server.CORSOrigins,
		"download.base_dir":               config.Download.BaseDir,
		"download.logs_dir":               config.Download.LogsDirectory,
		"download.default_audio_quality":  config.Download.DefaultAudioQuality,
		"download.default_video_quality":  config.Download.DefaultVideoQuality,
		"tools.ytdlp_binary":              config.Tools.YTDLPBinary,
		"tools.ffmpeg_binary":             config.Tools.FFmpegBinary,
		"tools.ffprobe_binary":            config.Tools.FFprobeBinary,
		"transcode.target_codec":          config.Transcode.TargetCodec,
		"transcode.audio_bitrate":         config.Transcode.AudioBitrate,
		"transcode.encoder_probe_timeout": config.Transcode.EncoderProbeTimeout.String(),
		"transcode.preferred_encoder":     config.Transcode.PreferredEncoder,
		"history.database_path":           config.History.DatabasePath,
		"notification.enabled":            config.Notification.Enabled,
		"notification.method":             config.Notification.Method,
		"logging.level":                   config.Logging.Level,
		"logging.format":                  config.Logging.Format,
		"logging.output_path":             config.Logging.OutputPath,
	}
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	for key, value := range configValues(config) {
		v.Set(key, value)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
