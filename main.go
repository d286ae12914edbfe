package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/config"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/handler"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/middleware"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/pkg/logger"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/service"
	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded", "store", cfg.Store.Driver, "storage", cfg.Storage.Enabled)

	// Storage tiers
	durable, err := newDurable(cfg)
	if err != nil {
		slog.Error("failed to initialize durable store", "error", err)
		os.Exit(1)
	}
	store := service.NewManifestationStore(durable, cfg.Store.MaxManifestations)

	var media service.MediaStorage
	if cfg.Storage.Enabled {
		minioSvc, err := service.NewMinioService(&cfg.Storage)
		if err != nil {
			slog.Error("failed to initialize MinIO service", "error", err)
			os.Exit(1)
		}
		if err := minioSvc.EnsureBucket(context.Background()); err != nil {
			slog.Error("failed to ensure MinIO bucket", "error", err)
			os.Exit(1)
		}
		media = minioSvc
	}

	// Services
	objects := service.NewObjectURLRegistry()
	iza := service.NewIZA(cfg.IZA.ProcessedBy)
	var classifier service.Classifier = iza
	if cfg.IZA.APIURL != "" {
		classifier = service.NewRemoteIZA(&cfg.IZA, iza)
		slog.Info("using remote IZA", "api_url", cfg.IZA.APIURL)
	}

	manifestationSvc := service.NewManifestationService(
		store,
		service.NewProtocolGenerator(),
		service.NewPreviewBuilder(objects),
		iza,
	).WithDemoFabrication(cfg.Demo.FabricateUnknownProtocols)
	if cfg.Demo.FabricateUnknownProtocols {
		slog.Warn("demo fabrication of unknown protocols is enabled")
	}
	uploadSvc := service.NewUploadService(media, cfg.UploadMaxBytes())

	// Handlers
	healthHandler := handler.NewHealthHandler()
	authHandler := handler.NewAuthHandler(cfg)
	manifestationHandler := handler.NewManifestationHandler(manifestationSvc, cfg.UploadMaxBytes())
	izaHandler := handler.NewIZAHandler(classifier)
	uploadHandler := handler.NewUploadHandler(uploadSvc)
	blobHandler := handler.NewBlobHandler(objects)
	adminHandler := handler.NewAdminHandler(manifestationSvc)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger("/api/health"))
	router.Use(middleware.CORS())
	router.Use(middleware.NoStore())

	serveStatic(router)

	limited := middleware.RateLimit(cfg.RateLimit)

	api := router.Group("/api")
	{
		api.GET("/health", healthHandler.Health)
		api.POST("/manifestacoes", limited, manifestationHandler.Create)
		api.GET("/manifestacoes/:protocolo", manifestationHandler.Get)
		api.POST("/iza/analyze", limited, izaHandler.Analyze)
		api.POST("/upload", limited, uploadHandler.Upload)
		api.GET("/files/:id", uploadHandler.File)
		api.GET("/blobs/:id", blobHandler.Get)
		api.POST("/auth/login", limited, authHandler.Login)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(&cfg.Auth))
	{
		admin.GET("/me", authHandler.GetCurrentUser)
		admin.GET("/manifestacoes/:protocolo", adminHandler.Get)
		admin.PATCH("/manifestacoes/:protocolo", adminHandler.Update)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("session previews revoked", "count", objects.RevokeAll())
	if err := store.Close(); err != nil {
		slog.Warn("failed to close durable store", "error", err)
	}

	slog.Info("server exited gracefully")
}

// loadConfig reads path, falling back to defaults when the file is absent.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("config file not found, using defaults", "path", path)
		cfg = config.Default()
		return cfg, cfg.Validate()
	}
	return cfg, err
}

func newDurable(cfg *config.Config) (service.DurableStore, error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		slog.Info("durable tier: sqlite", "path", cfg.Store.SQLitePath)
		return service.NewSQLiteDurable(cfg.Store.SQLitePath), nil
	case config.DriverRedis:
		slog.Info("durable tier: redis", "addr", cfg.Store.Redis.Addr)
		client := service.NewRedisClient(cfg.Store.Redis)
		return service.NewRedisDurable(client, cfg.Store.Redis.KeyPrefix), nil
	case config.DriverNone:
		slog.Info("durable tier disabled, records live in memory only")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// serveStatic serves the built PWA when it sits next to the binary.
func serveStatic(router *gin.Engine) {
	staticDir := "./dist"
	if _, err := os.Stat(staticDir + "/index.html"); err != nil {
		slog.Info("no static bundle found, serving API only", "directory", staticDir)
		return
	}
	slog.Info("serving static files", "directory", staticDir)

	router.Static("/assets", staticDir+"/assets")
	router.StaticFile("/", staticDir+"/index.html")
	router.StaticFile("/sw.js", staticDir+"/sw.js")
	router.StaticFile("/manifest.json", staticDir+"/manifest.json")
	router.NoRoute(func(c *gin.Context) {
		c.File(staticDir + "/index.html")
	})
}
