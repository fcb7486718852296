// Package pipeline wires the preprocessing chain, the rasterizer and the OCR
// engine into the two processing paths the tool exposes: single images and
// multi-page PDFs.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"

	"github.com/pagetext/pagetext/internal/ocr"
	"github.com/pagetext/pagetext/internal/pdfraster"
	"github.com/pagetext/pagetext/internal/preprocess"
)

// Rasterizer is the PDF rendering seam; the production implementation is
// pdfraster.Rasterizer.
type Rasterizer interface {
	Rasterize(ctx context.Context, path string) ([]pdfraster.Page, func(), error)
}

// Options controls the side artifacts a run produces.
type Options struct {
	SavePages       bool   // persist per-page original + preprocessed images
	PagesDir        string // default "extracted_pages"
	PreprocessedDir string // where preprocessed_<basename> lands, default "."
}

// PageResult is the outcome for one PDF page. Err is set when the page
// failed; the rest of the batch is unaffected.
type PageResult struct {
	Page       int
	Text       string
	Confidence float64
	Err        error
}

type Processor struct {
	engine ocr.Engine
	raster Rasterizer
	chain  preprocess.Chain
	opts   Options
	logger *slog.Logger
}

func NewProcessor(engine ocr.Engine, raster Rasterizer, opts Options, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.PagesDir == "" {
		opts.PagesDir = "extracted_pages"
	}
	if opts.PreprocessedDir == "" {
		opts.PreprocessedDir = "."
	}
	return &Processor{
		engine: engine,
		raster: raster,
		chain:  preprocess.NewChain(),
		opts:   opts,
		logger: logger,
	}
}

// pngBytes encodes an image for the OCR engine.
func pngBytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
