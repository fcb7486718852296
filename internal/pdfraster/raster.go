// Package pdfraster turns a PDF into an ordered sequence of per-page PNG
// images. Rendering is delegated to pdftoppm (poppler-utils); pdfcpu is used
// as a preflight so corrupt or unreadable files fail with a typed load error
// before anything is executed.
package pdfraster

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/pagetext/pagetext/internal/common"
)

// Page is one rendered PDF page, numbered from 1 in document order.
type Page struct {
	Number  int
	PNGPath string
}

type Config struct {
	Pdftoppm string // binary name or absolute path; if empty -> "pdftoppm"
	DPI      int    // rasterization DPI, default 300
	MaxPages int    // 0 = no limit
}

type Rasterizer struct {
	cfg    Config
	runner Runner
	logger *slog.Logger

	// pageCount is the preflight seam, stubbed in tests.
	pageCount func(path string) (int, error)
}

func New(cfg Config, logger *slog.Logger) *Rasterizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Rasterizer{
		cfg:       cfg,
		runner:    execRunner{logger: logger},
		logger:    logger,
		pageCount: pdfPageCount,
	}
}

// Rasterize renders every page of the PDF at path into PNG files inside a
// fresh temp directory and returns them in document order. The caller must
// invoke the returned cleanup func to remove the rendered files.
func (r *Rasterizer) Rasterize(ctx context.Context, path string) ([]Page, func(), error) {
	expected, err := r.pageCount(path)
	if err != nil {
		return nil, nil, common.NewAppError(common.ErrLoad, path, "not a readable pdf", err)
	}

	tmpDir, err := os.MkdirTemp("", "pagetext-pages-*")
	if err != nil {
		return nil, nil, common.WrapError(err, "create temp dir")
	}
	cleanup := func() {
		if rerr := os.RemoveAll(tmpDir); rerr != nil {
			r.logger.Warn("remove temp dir", "dir", tmpDir, "error", rerr)
		}
	}

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r <dpi> -png <in.pdf> <tmp/page>
	_, errb, err := r.runner.Run(ctx, r.cfg.Pdftoppm, "-r", strconv.Itoa(r.cfg.DPI), "-png", path, prefix)
	if err != nil {
		cleanup()
		return nil, nil, common.NewAppError(common.ErrRasterize, path, fmt.Sprintf("pdftoppm: %s", truncate(string(errb), 1<<10)), err)
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...); pdftoppm
	// zero-pads the numbers, so lexicographic order is document order
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if r.cfg.MaxPages > 0 && len(matches) > r.cfg.MaxPages {
		matches = matches[:r.cfg.MaxPages]
	}
	if len(matches) == 0 {
		cleanup()
		return nil, nil, common.NewAppError(common.ErrRasterize, path, "pdftoppm produced no images", nil)
	}
	if r.cfg.MaxPages == 0 && len(matches) != expected {
		r.logger.Warn("rendered page count differs from pdf catalog",
			"path", path, "rendered", len(matches), "expected", expected)
	}

	pages := make([]Page, len(matches))
	for i, m := range matches {
		pages[i] = Page{Number: i + 1, PNGPath: m}
	}
	return pages, cleanup, nil
}

func pdfPageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return api.PageCount(f, nil)
}
