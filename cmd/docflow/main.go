// Command docflow runs one translation synchronously against a local PDF
// file and prints the resulting Result as JSON, with no HTTP server or
// SSE stream involved — the one-shot counterpart to cmd/docflow-server's
// long-running process. Grounded on the teacher's cmd/tarsy cobra-root
// shape, adapted to a single subcommand.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/codeready-toolchain/docflow/pkg/config"
	"github.com/codeready-toolchain/docflow/pkg/glossary"
	"github.com/codeready-toolchain/docflow/pkg/index"
	"github.com/codeready-toolchain/docflow/pkg/ocr"
	"github.com/codeready-toolchain/docflow/pkg/orchestrator"
	"github.com/codeready-toolchain/docflow/pkg/paperstore"
	"github.com/codeready-toolchain/docflow/pkg/review"
	"github.com/codeready-toolchain/docflow/pkg/terminology"
	"github.com/codeready-toolchain/docflow/pkg/translation"
	"github.com/codeready-toolchain/docflow/pkg/translationstore"
	"github.com/codeready-toolchain/docflow/pkg/version"
	"github.com/codeready-toolchain/docflow/pkg/workflow"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("docflow failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		enableOCR  bool
		outputPath string
	)

	root := &cobra.Command{
		Use:     "docflow [pdf file]",
		Short:   "Translate an academic PDF to Chinese and print the result",
		Version: version.Full(),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd.Context(), args[0], configPath, enableOCR, outputPath)
		},
	}

	root.Flags().StringVar(&configPath, "config", getEnv("DOCFLOW_CONFIG", "./config/docflow.toml"), "path to the TOML configuration file")
	root.Flags().BoolVar(&enableOCR, "ocr", false, "force the OCR phase even when text extraction succeeds")
	root.Flags().StringVar(&outputPath, "output", "", "write the JSON result to this path instead of stdout")

	return root
}

func runTranslate(ctx context.Context, pdfPath, configPath string, enableOCR bool, outputPath string) error {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Warn("falling back to default configuration", "config_path", configPath, "error", err)
		defaults := config.Defaults()
		cfg = &defaults
	}

	content, err := os.ReadFile(pdfPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", pdfPath, err)
	}

	glossaryDir := filepath.Join(cfg.Storage.Root, "glossaries")
	glossaryStore := glossary.NewStore(glossaryDir)

	paperStore, err := paperstore.Open(cfg.PaperStore.Path)
	if err != nil {
		return fmt.Errorf("opening paper store: %w", err)
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

	result, err := workflow.RunTranslationWorkflow(ctx, workflow.Request{
		FileContent: content,
		Filename:    filepath.Base(pdfPath),
		EnableOCR:   enableOCR,
	}, orch, nil)
	if err != nil {
		return fmt.Errorf("running translation workflow: %w", err)
	}

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	if outputPath == "" {
		fmt.Println(string(encoded))
		return nil
	}
	return os.WriteFile(outputPath, encoded, 0o644)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
