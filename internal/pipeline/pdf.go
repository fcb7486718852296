package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"github.com/pagetext/pagetext/internal/common"
	"github.com/pagetext/pagetext/internal/ocr"
	"github.com/pagetext/pagetext/internal/pdfraster"
)

// ProcessPDF rasterizes the PDF at path and runs every page through the
// cleanup chain and the OCR engine, in document order. Rasterization failure
// aborts the whole call with a typed error. Page failures do not: the
// failing page's result carries its error and the loop moves on, so one bad
// page costs one page, not the batch.
func (p *Processor) ProcessPDF(ctx context.Context, path string) ([]PageResult, error) {
	start := time.Now()

	pages, cleanup, err := p.raster.Rasterize(ctx, path)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if p.opts.SavePages {
		if err := os.MkdirAll(p.opts.PagesDir, 0o755); err != nil {
			return nil, common.WrapError(err, "create pages dir")
		}
	}

	results := make([]PageResult, 0, len(pages))
	for _, pg := range pages {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		p.logger.Info("processing page", "path", path, "page", pg.Number, "total", len(pages))

		res := p.processPage(ctx, pg)
		if res.Err != nil {
			p.logger.Error("page failed", "path", path, "page", pg.Number, "error", res.Err)
		}
		results = append(results, res)
	}

	p.logger.Info("pdf processed",
		"path", path,
		"pages", len(results),
		"failed", countFailed(results),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return results, nil
}

func (p *Processor) processPage(ctx context.Context, pg pdfraster.Page) PageResult {
	img, err := imaging.Open(pg.PNGPath)
	if err != nil {
		return PageResult{Page: pg.Number, Err: common.NewAppError(common.ErrDecode, pg.PNGPath, "decode rendered page", err)}
	}

	cleaned := p.chain.Run(img)

	if p.opts.SavePages {
		// inspection artifacts only; a failed save is not a failed page
		orig := filepath.Join(p.opts.PagesDir, fmt.Sprintf("page_%d.jpg", pg.Number))
		if err := imaging.Save(img, orig); err != nil {
			p.logger.Warn("save page artifact", "page", pg.Number, "error", err)
		}
		prep := filepath.Join(p.opts.PagesDir, fmt.Sprintf("preprocessed_page_%d.jpg", pg.Number))
		if err := imaging.Save(cleaned, prep); err != nil {
			p.logger.Warn("save preprocessed artifact", "page", pg.Number, "error", err)
		}
	}

	data, err := pngBytes(cleaned)
	if err != nil {
		return PageResult{Page: pg.Number, Err: err}
	}
	res, err := p.engine.Recognize(ctx, data)
	if err != nil {
		return PageResult{Page: pg.Number, Err: err}
	}

	return PageResult{
		Page:       pg.Number,
		Text:       ocr.Normalize(res.Text),
		Confidence: res.Confidence,
	}
}

func countFailed(results []PageResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
