// Package tesseract implements ocr.Engine on top of the Tesseract engine via
// gosseract. Tesseract must be installed on the system (tesseract-ocr plus
// the language data for the configured language).
package tesseract

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"

	"github.com/pagetext/pagetext/internal/common"
	"github.com/pagetext/pagetext/internal/ocr"
)

type Config struct {
	Language string // default "eng"; multiple languages joined with "+"
	PSM      int    // page segmentation mode, 0 = engine default
	DPI      int    // user_defined_dpi hint, 0 = unset
}

// Engine runs Tesseract in-process. A fresh gosseract client is created per
// Recognize call; the pipeline is sequential so there is nothing to pool.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Recognize performs OCR on a PNG-encoded image and returns the raw text
// with a mean word confidence.
func (e *Engine) Recognize(ctx context.Context, png []byte) (ocr.Result, error) {
	if err := ctx.Err(); err != nil {
		return ocr.Result{}, err
	}
	start := time.Now()

	client := gosseract.NewClient()
	defer func() {
		if cerr := client.Close(); cerr != nil {
			e.logger.Warn("close tesseract client", "error", cerr)
		}
	}()

	if err := client.SetLanguage(strings.Split(e.cfg.Language, "+")...); err != nil {
		return ocr.Result{}, common.NewAppError(common.ErrRecognition, "", "set language", err)
	}
	if e.cfg.PSM > 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(e.cfg.PSM)); err != nil {
			return ocr.Result{}, common.NewAppError(common.ErrRecognition, "", "set page segmentation mode", err)
		}
	}
	if e.cfg.DPI > 0 {
		if err := client.SetVariable(gosseract.SettableVariable("user_defined_dpi"), strconv.Itoa(e.cfg.DPI)); err != nil {
			return ocr.Result{}, common.NewAppError(common.ErrRecognition, "", "set dpi", err)
		}
	}
	if err := client.SetImageFromBytes(png); err != nil {
		return ocr.Result{}, common.NewAppError(common.ErrRecognition, "", "set image", err)
	}

	text, err := client.Text()
	if err != nil {
		return ocr.Result{}, common.NewAppError(common.ErrRecognition, "", fmt.Sprintf("tesseract (%s)", e.cfg.Language), err)
	}
	conf := meanWordConfidence(client)

	e.logger.Debug("recognition ok",
		"language", e.cfg.Language,
		"bytes", len(text),
		"confidence", conf,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return ocr.Result{Text: strings.TrimSpace(text), Confidence: conf}, nil
}

// meanWordConfidence averages Tesseract's per-word confidences into 0..1.
func meanWordConfidence(client *gosseract.Client) float64 {
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence / 100.0
	}
	return sum / float64(len(boxes))
}
