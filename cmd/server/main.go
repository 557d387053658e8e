package main

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/kau-z/heart-disease/internal/artifact"
	"github.com/kau-z/heart-disease/internal/features"
	"github.com/kau-z/heart-disease/internal/history"
	"github.com/kau-z/heart-disease/internal/observability"
	"github.com/kau-z/heart-disease/internal/predict"
)

//go:embed templates/*.html
var templatesFS embed.FS

type ReadinessChecker interface {
	Ready() error
}

type Config struct {
	Port        string
	ProjectRoot string
	HistoryFile string
	LogLevel    string
	LogFormat   string
}

func main() {
	gin.SetMode(getEnv("GIN_MODE", "release"))

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := observability.InitLogger(observability.LogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	bundle, err := artifact.Load(cfg.ProjectRoot)
	if err != nil {
		logger.Error("failed to load model artifacts", "root", cfg.ProjectRoot, "error", err)
		os.Exit(1)
	}
	logger.Info("model artifacts loaded",
		"root", cfg.ProjectRoot,
		"columns", len(bundle.Columns),
		"trees", len(bundle.Classifier.Trees),
		"reference_rows", bundle.Reference.Rows,
	)

	app := newApp(
		predict.New(bundle.Columns, bundle.Scaler, bundle.Classifier),
		bundle.Reference,
		history.NewStore(cfg.HistoryFile),
		observability.NewMetrics(),
		logger,
	)

	router := setupRouter(app)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("server listening", "port", cfg.Port, "history", cfg.HistoryFile)
	waitForShutdown(server, logger)
}

func loadConfig() (*Config, error) {
	_ = godotenv.Load()

	root := os.Getenv("PROJECT_ROOT")
	if root == "" {
		root = detectProjectRoot()
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve PROJECT_ROOT: %w", err)
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		ProjectRoot: root,
		HistoryFile: getEnv("HISTORY_FILE", filepath.Join(root, "user_history.csv")),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
	}

	if info, err := os.Stat(cfg.ProjectRoot); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("project root %q is not a directory", cfg.ProjectRoot)
	}

	return cfg, nil
}

func setupRouter(app *App) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Logger(),
		gin.Recovery(),
		limitBodySize(1<<20), // 1MB max body
		cors.New(cors.Config{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}),
	)
	router.SetHTMLTemplate(template.Must(
		template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html"),
	))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/readyz", readyHandler(app))
	router.GET("/metrics", gin.WrapH(app.metrics.Handler()))

	router.GET("/", app.Index)
	router.POST("/predict", app.Predict)
	router.POST("/predictions/:id/whatif", app.WhatIf)
	router.GET("/predictions/:id/chart.png", app.Chart)
	router.POST("/history/delete", app.DeleteHistory)

	api := router.Group("/api")
	{
		api.POST("/predict", app.APIPredict)
		api.GET("/history", app.APIHistory)
	}

	return router
}

func readyHandler(checker ReadinessChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := checker.Ready(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "degraded",
				"error":  err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "artifacts": "loaded"})
	}
}

var templateFuncs = template.FuncMap{
	"pct": func(p float64) string { return fmt.Sprintf("%.1f%%", p*100) },
	"f1":  func(v float64) string { return fmt.Sprintf("%.1f", v) },
	"f3":  func(v float64) string { return fmt.Sprintf("%.3f", v) },
	"options": func(field string) []string {
		switch field {
		case "sex":
			return features.SexOptions
		case "chest_pain_type":
			return features.ChestPainOptions
		case "rest_ecg":
			return features.RestECGOptions
		case "slope":
			return features.SlopeOptions
		default:
			return features.YesNoOptions
		}
	},
}

func waitForShutdown(server *http.Server, logger *slog.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func limitBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// detectProjectRoot looks for the model outputs in the working directory and
// up to two parents, so the server can be started from the repo root or
// from cmd/server.
func detectProjectRoot() string {
	startDir, err := os.Getwd()
	if err != nil {
		return "."
	}

	candidates := []string{
		startDir,
		filepath.Dir(startDir),
		filepath.Dir(filepath.Dir(startDir)),
	}

	for _, dir := range candidates {
		if fileExists(filepath.Join(dir, artifact.ColumnsPath)) {
			return dir
		}
	}

	return startDir
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
