package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pagetext/pagetext/constants"
	"github.com/pagetext/pagetext/internal/common"
	"github.com/pagetext/pagetext/internal/ocr/tesseract"
	"github.com/pagetext/pagetext/internal/pdfraster"
	"github.com/pagetext/pagetext/internal/pipeline"
	"github.com/pagetext/pagetext/internal/report"
)

var (
	inputPath       string
	outputPath      string
	savePages       bool
	pagesDir        string
	preprocessedDir string
	dpi             int
	lang            string
	psm             int
	maxPages        int
	reportPath      string
	logLevel        string
)

var rootCmd = &cobra.Command{
	Use:   "pagetext",
	Short: "Extract text from images and PDF documents with Tesseract",
	Long: `Pagetext extracts text from scanned documents. PDFs are rasterized into
per-page images; every image runs through a fixed cleanup chain (grayscale,
adaptive thresholding, morphological opening) before recognition.

Requires tesseract-ocr and, for PDF input, poppler-utils (pdftoppm).`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&inputPath, "input", "", "path to input PDF or image file (required)")
	rootCmd.Flags().StringVar(&outputPath, "output", "extracted_text.txt", "path to output text file")
	rootCmd.Flags().BoolVar(&savePages, "pages", false, "save extracted pages from PDFs")
	rootCmd.Flags().StringVar(&pagesDir, "pages-dir", "extracted_pages", "directory to save extracted pages")
	rootCmd.Flags().StringVar(&preprocessedDir, "preprocessed-dir", ".", "directory for the preprocessed_<name> image artifact")
	rootCmd.Flags().IntVar(&dpi, "dpi", 300, "rasterization DPI for PDF pages")
	rootCmd.Flags().StringVar(&lang, "lang", "eng", "Tesseract language(s), joined with +")
	rootCmd.Flags().IntVar(&psm, "psm", 0, "Tesseract page segmentation mode (0 = engine default)")
	rootCmd.Flags().IntVar(&maxPages, "max-pages", 0, "maximum PDF pages to process (0 = no limit)")
	rootCmd.Flags().StringVar(&reportPath, "report", "", "optional XLSX run report path (PDF input only)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	_ = rootCmd.MarkFlagRequired("input")
}

func newLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})).With("run_id", uuid.NewString())
	slog.SetDefault(logger)
	return logger
}

func run(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	engine := tesseract.New(tesseract.Config{Language: lang, PSM: psm, DPI: dpi}, logger)
	proc := pipeline.NewProcessor(engine,
		pdfraster.New(pdfraster.Config{DPI: dpi, MaxPages: maxPages}, logger),
		pipeline.Options{SavePages: savePages, PagesDir: pagesDir, PreprocessedDir: preprocessedDir},
		logger,
	)

	switch constants.MapExtToFormat(filepath.Ext(inputPath)) {
	case constants.FormatPDF:
		return runPDF(cmd, proc, logger)
	case constants.FormatImage:
		return runImage(cmd, proc, logger)
	default:
		return common.NewAppError(common.ErrUnsupportedFormat, inputPath,
			fmt.Sprintf("unsupported file format %q, supported: %s",
				constants.NormalizeExt(filepath.Ext(inputPath)),
				strings.Join(constants.SupportedExtensions(), ", ")),
			nil)
	}
}

func runPDF(cmd *cobra.Command, proc *pipeline.Processor, logger *slog.Logger) error {
	results, err := proc.ProcessPDF(cmd.Context(), inputPath)
	if err != nil {
		logger.Error("pdf processing failed", "path", inputPath, "error", err)
		return err
	}

	// buffer first so a failed run never truncates an existing output file
	var buf bytes.Buffer
	if err := pipeline.WriteTextOutput(&buf, results); err != nil {
		return common.WrapError(err, "render output")
	}
	if err := os.WriteFile(outputPath, buf.Bytes(), 0o644); err != nil {
		return common.WrapError(err, "write output file")
	}

	if reportPath != "" {
		data, err := report.BuildXLSX(results)
		if err != nil {
			return common.WrapError(err, "build report")
		}
		if err := os.WriteFile(reportPath, data, 0o644); err != nil {
			return common.WrapError(err, "write report file")
		}
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	fmt.Printf("Extracted text from %d of %d pages saved to %s\n", len(results)-failed, len(results), outputPath)
	if failed > 0 {
		fmt.Printf("%d page(s) failed; see log for details\n", failed)
	}
	return nil
}

func runImage(cmd *cobra.Command, proc *pipeline.Processor, logger *slog.Logger) error {
	text, conf, err := proc.ProcessImage(cmd.Context(), inputPath)
	if err != nil {
		logger.Error("image processing failed", "path", inputPath, "error", err)
		return err
	}

	if err := os.WriteFile(outputPath, []byte(text), 0o644); err != nil {
		return common.WrapError(err, "write output file")
	}
	logger.Info("extraction ok", "path", inputPath, "confidence", conf, "output", outputPath)
	fmt.Printf("Extracted text saved to %s\n", outputPath)
	return nil
}
