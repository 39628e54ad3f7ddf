package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/mediagrab-go/api/handlers"
	"github.com/yourusername/mediagrab-go/api/middleware"
	"github.com/yourusername/mediagrab-go/internal/app"
	"github.com/yourusername/mediagrab-go/internal/domain"
	"github.com/yourusername/mediagrab-go/pkg/logger"
)

// Services are the application components the HTTP API exposes
type Services struct {
	Controller *app.DownloadController
	Board      *app.StatusBoard
	Encoders   *app.EncoderSelector
	Folders    *app.FolderService
	Metadata   *app.MetadataService
	History    domain.HistoryRepository // may be nil
	Config     *domain.Config
}

// SetupRouter sets up the HTTP router
func SetupRouter(svc Services, log *zap.Logger, multiLogger *logger.MultiLogger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(log, multiLogger))
	router.Use(middleware.Recovery(log, multiLogger))
	router.Use(middleware.CORS(svc.Config.Server.CORSOrigins))

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(svc.Controller, svc.Encoders)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	v1 := router.Group("/api/v1")
	{
		downloadHandler := handlers.NewDownloadHandler(
			svc.Controller, svc.Board, svc.History, svc.Folders, svc.Config.Download, log)
		wsHandler := handlers.NewStatusWebSocketHandler(svc.Board, log)
		downloads := v1.Group("/downloads")
		{
			downloads.POST("", downloadHandler.Submit)
			downloads.POST("/cancel", downloadHandler.Cancel)
			downloads.GET("/status", downloadHandler.Status)
			downloads.GET("/ws", wsHandler.HandleWebSocket)
			downloads.GET("/history", downloadHandler.History)
			downloads.GET("/history/:id", downloadHandler.GetRecord)
			downloads.GET("/stats", downloadHandler.GetStats)
		}

		encoderHandler := handlers.NewEncoderHandler(svc.Encoders)
		v1.GET("/encoders", encoderHandler.List)
		v1.PUT("/encoders/current", encoderHandler.Use)

		mediaHandler := handlers.NewMediaHandler(svc.Folders, svc.Metadata, log)
		v1.GET("/settings/base-dir", mediaHandler.GetBaseDir)
		v1.PUT("/settings/base-dir", mediaHandler.SetBaseDir)
		v1.GET("/folders/files", mediaHandler.ListFiles)
		metadata := v1.Group("/metadata")
		{
			metadata.GET("/title", mediaHandler.GetTitle)
			metadata.POST("/tags", mediaHandler.SetTags)
			metadata.POST("/rename", mediaHandler.Rename)
		}

		logHandler := handlers.NewLogHandler(logsDir(svc.Config, multiLogger))
		logs := v1.Group("/logs")
		{
			logs.GET("/categories", logHandler.GetCategories)
			logs.GET("/:category", logHandler.GetLogs)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}

func logsDir(config *domain.Config, multiLogger *logger.MultiLogger) string {
	if multiLogger != nil {
		return multiLogger.LogsDir()
	}
	return config.Download.LogsDir()
}
