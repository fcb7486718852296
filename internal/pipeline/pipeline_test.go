package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/pagetext/pagetext/internal/common"
	"github.com/pagetext/pagetext/internal/ocr"
	"github.com/pagetext/pagetext/internal/pdfraster"
)

// fakeEngine returns canned text per call and can fail on chosen calls.
type fakeEngine struct {
	texts  []string
	failOn map[int]bool // 1-based call number
	calls  int
}

func (f *fakeEngine) Recognize(_ context.Context, _ []byte) (ocr.Result, error) {
	f.calls++
	if f.failOn[f.calls] {
		return ocr.Result{}, common.NewAppError(common.ErrRecognition, "", "tesseract", errors.New("boom"))
	}
	text := "page text"
	if f.calls <= len(f.texts) {
		text = f.texts[f.calls-1]
	}
	return ocr.Result{Text: text, Confidence: 0.9}, nil
}

// fakeRaster serves pre-rendered page files.
type fakeRaster struct {
	pages   []pdfraster.Page
	err     error
	cleaned bool
}

func (f *fakeRaster) Rasterize(context.Context, string) ([]pdfraster.Page, func(), error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.pages, func() { f.cleaned = true }, nil
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 24, 24))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.SetGray(12, 12, color.Gray{Y: 0})
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func renderedPages(t *testing.T, n int) []pdfraster.Page {
	t.Helper()
	dir := t.TempDir()
	pages := make([]pdfraster.Page, n)
	for i := 0; i < n; i++ {
		path := filepath.Join(dir, fmt.Sprintf("page-%02d.png", i+1))
		writePNG(t, path)
		pages[i] = pdfraster.Page{Number: i + 1, PNGPath: path}
	}
	return pages
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func TestProcessPDF_OrderedResults(t *testing.T) {
	engine := &fakeEngine{texts: []string{"one", "two", "three"}}
	raster := &fakeRaster{pages: renderedPages(t, 3)}
	proc := NewProcessor(engine, raster, Options{PreprocessedDir: t.TempDir()}, quietLogger())

	results, err := proc.ProcessPDF(context.Background(), "in.pdf")
	if err != nil {
		t.Fatalf("ProcessPDF() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, want := range []string{"one", "two", "three"} {
		if results[i].Page != i+1 {
			t.Errorf("results[%d].Page = %d, want %d", i, results[i].Page, i+1)
		}
		if results[i].Text != want {
			t.Errorf("results[%d].Text = %q, want %q", i, results[i].Text, want)
		}
		if results[i].Err != nil {
			t.Errorf("results[%d].Err = %v", i, results[i].Err)
		}
	}
	if !raster.cleaned {
		t.Error("rendered pages not cleaned up")
	}
}

func TestProcessPDF_PageFailureDoesNotAbortBatch(t *testing.T) {
	engine := &fakeEngine{failOn: map[int]bool{2: true}}
	raster := &fakeRaster{pages: renderedPages(t, 3)}
	proc := NewProcessor(engine, raster, Options{PreprocessedDir: t.TempDir()}, quietLogger())

	results, err := proc.ProcessPDF(context.Background(), "in.pdf")
	if err != nil {
		t.Fatalf("ProcessPDF() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Error("healthy pages carry errors")
	}
	if !errors.Is(results[1].Err, common.ErrRecognition) {
		t.Errorf("results[1].Err = %v, want ErrRecognition", results[1].Err)
	}
	if engine.calls != 3 {
		t.Errorf("engine called %d times, want 3", engine.calls)
	}
}

func TestProcessPDF_SavePagesWritesArtifacts(t *testing.T) {
	pagesDir := filepath.Join(t.TempDir(), "extracted")
	engine := &fakeEngine{}
	raster := &fakeRaster{pages: renderedPages(t, 2)}
	proc := NewProcessor(engine, raster,
		Options{SavePages: true, PagesDir: pagesDir, PreprocessedDir: t.TempDir()}, quietLogger())

	if _, err := proc.ProcessPDF(context.Background(), "in.pdf"); err != nil {
		t.Fatalf("ProcessPDF() error = %v", err)
	}

	entries, err := os.ReadDir(pagesDir)
	if err != nil {
		t.Fatalf("pages dir not created: %v", err)
	}
	if len(entries) != 4 {
		t.Errorf("pages dir has %d files, want 4 (2 per page)", len(entries))
	}
	for _, name := range []string{"page_1.jpg", "preprocessed_page_1.jpg", "page_2.jpg", "preprocessed_page_2.jpg"} {
		if _, err := os.Stat(filepath.Join(pagesDir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}
}

func TestProcessPDF_NoArtifactsWithoutFlag(t *testing.T) {
	pagesDir := filepath.Join(t.TempDir(), "extracted")
	proc := NewProcessor(&fakeEngine{}, &fakeRaster{pages: renderedPages(t, 2)},
		Options{PagesDir: pagesDir, PreprocessedDir: t.TempDir()}, quietLogger())

	if _, err := proc.ProcessPDF(context.Background(), "in.pdf"); err != nil {
		t.Fatalf("ProcessPDF() error = %v", err)
	}
	if _, err := os.Stat(pagesDir); !os.IsNotExist(err) {
		t.Error("pages dir created without --pages")
	}
}

func TestProcessPDF_RasterizeFailureAborts(t *testing.T) {
	rasterErr := common.NewAppError(common.ErrRasterize, "in.pdf", "no images", nil)
	engine := &fakeEngine{}
	proc := NewProcessor(engine, &fakeRaster{err: rasterErr}, Options{}, quietLogger())

	results, err := proc.ProcessPDF(context.Background(), "in.pdf")
	if !errors.Is(err, common.ErrRasterize) {
		t.Errorf("error = %v, want ErrRasterize", err)
	}
	if results != nil {
		t.Error("partial results returned after rasterize failure")
	}
	if engine.calls != 0 {
		t.Error("engine invoked despite rasterize failure")
	}
}

func TestProcessPDF_DecodeFailureIsolatedPerPage(t *testing.T) {
	pages := renderedPages(t, 2)
	if err := os.WriteFile(pages[0].PNGPath, []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}
	proc := NewProcessor(&fakeEngine{}, &fakeRaster{pages: pages},
		Options{PreprocessedDir: t.TempDir()}, quietLogger())

	results, err := proc.ProcessPDF(context.Background(), "in.pdf")
	if err != nil {
		t.Fatalf("ProcessPDF() error = %v", err)
	}
	if !errors.Is(results[0].Err, common.ErrDecode) {
		t.Errorf("results[0].Err = %v, want ErrDecode", results[0].Err)
	}
	if results[1].Err != nil {
		t.Errorf("results[1].Err = %v, want nil", results[1].Err)
	}
}

func TestProcessImage_Success(t *testing.T) {
	srcDir, outDir := t.TempDir(), t.TempDir()
	src := filepath.Join(srcDir, "scan.png")
	writePNG(t, src)

	engine := &fakeEngine{texts: []string{"  hello \n\n\n\n world  "}}
	proc := NewProcessor(engine, &fakeRaster{}, Options{PreprocessedDir: outDir}, quietLogger())

	text, conf, err := proc.ProcessImage(context.Background(), src)
	if err != nil {
		t.Fatalf("ProcessImage() error = %v", err)
	}
	if want := "hello\n\n world"; text != want {
		t.Errorf("text = %q, want %q (normalized)", text, want)
	}
	if conf != 0.9 {
		t.Errorf("confidence = %v, want 0.9", conf)
	}
	if _, err := os.Stat(filepath.Join(outDir, "preprocessed_scan.png")); err != nil {
		t.Errorf("preprocessed artifact missing: %v", err)
	}
}

func TestProcessImage_MissingFileIsLoadError(t *testing.T) {
	engine := &fakeEngine{}
	proc := NewProcessor(engine, &fakeRaster{}, Options{PreprocessedDir: t.TempDir()}, quietLogger())

	_, _, err := proc.ProcessImage(context.Background(), filepath.Join(t.TempDir(), "nope.png"))
	if !errors.Is(err, common.ErrLoad) {
		t.Errorf("error = %v, want ErrLoad", err)
	}
	if engine.calls != 0 {
		t.Error("engine invoked for unloadable image")
	}
}

func TestProcessPDF_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	proc := NewProcessor(&fakeEngine{}, &fakeRaster{pages: renderedPages(t, 2)},
		Options{PreprocessedDir: t.TempDir()}, quietLogger())

	results, err := proc.ProcessPDF(ctx, "in.pdf")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results before cancellation check, want 0", len(results))
	}
}
