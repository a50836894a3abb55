// Command docflow-server hosts the translation-submission trigger and the
// SSE progress-streaming endpoint over a shared in-memory EventBus and
// task registry. pkg/httpapi's own contribution to the HTTP surface stays
// limited to GET /sse/translation/:taskID per spec.md §1's HTTP-binding
// Non-goal; the minimal multipart submission route below is this binary's
// own glue, grounded on original_source's pdf.py upload handler plus
// task_manager-backed orchestrator.py dispatch.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/codeready-toolchain/docflow/pkg/agent"
	"github.com/codeready-toolchain/docflow/pkg/config"
	"github.com/codeready-toolchain/docflow/pkg/eventbus"
	"github.com/codeready-toolchain/docflow/pkg/glossary"
	"github.com/codeready-toolchain/docflow/pkg/httpapi"
	"github.com/codeready-toolchain/docflow/pkg/index"
	"github.com/codeready-toolchain/docflow/pkg/ocr"
	"github.com/codeready-toolchain/docflow/pkg/orchestrator"
	"github.com/codeready-toolchain/docflow/pkg/paperstore"
	"github.com/codeready-toolchain/docflow/pkg/review"
	"github.com/codeready-toolchain/docflow/pkg/tasktracker"
	"github.com/codeready-toolchain/docflow/pkg/terminology"
	"github.com/codeready-toolchain/docflow/pkg/translation"
	"github.com/codeready-toolchain/docflow/pkg/translationstore"
	"github.com/codeready-toolchain/docflow/pkg/version"
	"github.com/codeready-toolchain/docflow/pkg/workflow"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configPath := flag.String("config", getEnv("DOCFLOW_CONFIG", "./config/docflow.toml"), "path to the TOML configuration file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Warn("falling back to default configuration", "config_path", *configPath, "error", err)
		defaults := config.Defaults()
		cfg = &defaults
	}
	setupLogging(cfg.Logging.Level)

	slog.Info("starting docflow-server", "version", version.Full(), "addr", cfg.Server.Addr)

	glossaryDir := filepath.Join(cfg.Storage.Root, "glossaries")
	glossaryStore := glossary.NewStore(glossaryDir)

	paperStore, err := paperstore.Open(cfg.PaperStore.Path)
	if err != nil {
		slog.Error("failed to open paper store", "path", cfg.PaperStore.Path, "error", err)
		os.Exit(1)
	}
	defer paperStore.Close()

	parser := unconfiguredDocumentParser{}
	ocrSvc := unconfiguredOCRService{}
	llm := unconfiguredTranslationService{}

	orch := orchestrator.New(
		parser,
		terminology.New(glossaryStore, llm),
		ocr.New(parser, ocrSvc),
		translation.New(llm),
		review.New(),
		index.New(paperStore, llm, nil),
		translationstore.New(cfg.Storage.Root),
	)

	retention := glossary.NewRetentionService(glossaryDir, cfg.Glossary.BackupRetention, 24*time.Hour)
	retentionCtx, stopRetention := context.WithCancel(context.Background())
	retention.Start(retentionCtx)
	defer func() {
		stopRetention()
		retention.Stop()
	}()

	bus := eventbus.New()
	tasks := tasktracker.NewManager()
	server := httpapi.NewServer(bus, tasks)
	server.Engine().POST("/api/v1/translations", submitTranslationHandler(orch, bus, tasks))

	go func() {
		if err := server.Start(cfg.Server.Addr); err != nil {
			slog.Error("http server stopped", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down docflow-server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("error during shutdown", "error", err)
	}
}

// submitTranslationHandler accepts a multipart "file" upload, registers a
// task up front so a client can immediately open the SSE stream for the
// returned id, and runs the orchestrator in the background.
func submitTranslationHandler(orch agent.Agent, bus *eventbus.Bus, tasks *tasktracker.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing \"file\" multipart field"})
			return
		}
		if fileHeader.Size > agent.MaxUploadSize {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds maximum upload size"})
			return
		}

		f, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
			return
		}
		defer f.Close()

		content := make([]byte, fileHeader.Size)
		if _, err := f.Read(content); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to buffer uploaded file"})
			return
		}

		taskID := uuid.NewString()
		enableOCR := c.PostForm("enable_ocr") == "true"

		task := tasks.Create(taskID, fileHeader.Filename)
		task.SetStatus(tasktracker.StatusProcessing)

		go func() {
			result, err := workflow.RunTranslationWorkflow(context.Background(), workflow.Request{
				FileContent: content,
				Filename:    fileHeader.Filename,
				TaskID:      taskID,
				EnableOCR:   enableOCR,
			}, orch, bus)
			if err != nil {
				slog.Error("translation task failed", "task_id", taskID, "error", err)
				task.SetError(err.Error())
				return
			}
			_ = result
			task.SetStatus(tasktracker.StatusCompleted)
		}()

		c.JSON(http.StatusAccepted, gin.H{
			"task_id":    taskID,
			"stream_url": "/sse/translation/" + taskID,
		})
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}
