package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/mediagrab-go/api"
	"github.com/yourusername/mediagrab-go/api/handlers"
	"github.com/yourusername/mediagrab-go/internal/app"
	"github.com/yourusername/mediagrab-go/internal/domain"
	"github.com/yourusername/mediagrab-go/internal/infrastructure"
	"github.com/yourusername/mediagrab-go/pkg/logger"
)

var (
	serverMode = flag.Bool("server-mode", false, "Run the server in the foreground instead of detaching")
	configPath = flag.String("config", "", "Config file path (default $HOME/.config/mediagrab/config.yaml)")
)

func main() {
	flag.Parse()

	if !*serverMode {
		startAsDaemon()
		return
	}

	if err := runServer(); err != nil {
		logger.NewDefault().Fatal("Server failed", zap.Error(err))
	}
}

// startAsDaemon re-executes the binary in server mode, detached from the terminal
func startAsDaemon() {
	execPath, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get executable path: %v\n", err)
		os.Exit(1)
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "/"
	}

	args := []string{"-server-mode"}
	if *configPath != "" {
		args = append(args, "-config", *configPath)
	}
	cmd := exec.Command(execPath, args...)
	cmd.Dir = cwd
	cmd.Env = os.Environ()
	cmd.SysProcAttr = detachedProcAttr()

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open %s: %v\n", os.DevNull, err)
		os.Exit(1)
	}
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start daemon: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Server started as daemon (PID: %d)\n", cmd.Process.Pid)
	os.Exit(0)
}

func runServer() error {
	path := *configPath
	if path == "" {
		path = app.DefaultConfigPath()
	}

	config, err := app.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	logsDir := config.Download.LogsDir()
	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   config.Logging.Level,
		LogsDir: logsDir,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize category logs: %w", err)
	}
	defer multiLog.Close()

	log.Info("Starting mediagrab server",
		zap.String("version", handlers.Version),
		zap.String("config", path),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("base_dir", config.Download.BaseDir))

	if err := os.MkdirAll(config.Download.BaseDir, 0755); err != nil {
		return fmt.Errorf("failed to create base directory: %w", err)
	}

	history, err := openHistory(config, log)
	if err != nil {
		return err
	}
	defer history.Close()

	runner := infrastructure.NewExecRunner()
	fetcher := infrastructure.NewYTDLPFetcher(config.Tools, logsDir, multiLog, log)
	processor := infrastructure.NewFFmpegProcessor(runner, config.Tools, config.Transcode, log)
	notifier := infrastructure.NewNotificationService(&config.Notification, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	encoders := app.NewEncoderSelector(
		infrastructure.NewFFmpegEncoderTester(runner, config.Tools.FFmpegBinary),
		config.Transcode.EncoderProbeTimeout,
		config.Transcode.PreferredEncoder,
		log)
	encoders.Start(ctx)

	board := app.NewStatusBoard()
	controller := app.NewDownloadController(fetcher, processor, encoders, history, notifier, multiLog, log)

	router := api.SetupRouter(api.Services{
		Controller: controller,
		Board:      board,
		Encoders:   encoders,
		Folders:    app.NewFolderService(config, path, log),
		Metadata: app.NewMetadataService(
			infrastructure.NewTagStore(runner, config.Tools.FFmpegBinary, log),
			infrastructure.NewFileRenamer(),
			log),
		History: history,
		Config:  config,
	}, log, multiLog)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("Received shutdown signal")
	case err := <-serverErr:
		log.Error("HTTP server failed", zap.Error(err))
		multiLog.LogAppError("HTTP server failed", zap.Error(err))
		controller.Close()
		return err
	}

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Kills a running yt-dlp or ffmpeg and waits for the worker to record the outcome
	controller.Close()

	log.Info("Server exited")
	return nil
}

func openHistory(config *domain.Config, log *zap.Logger) (*infrastructure.SQLiteHistoryRepository, error) {
	if err := os.MkdirAll(filepath.Dir(config.History.DatabasePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	history, err := infrastructure.NewSQLiteHistoryRepository(config.History.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize history: %w", err)
	}

	if n, err := history.FailInterrupted(); err != nil {
		log.Warn("Failed to close out interrupted downloads", zap.Error(err))
	} else if n > 0 {
		log.Info("Marked interrupted downloads as failed", zap.Int64("count", n))
	}
	return history, nil
}
