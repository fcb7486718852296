// Package ocr defines the recognition seam of the pipeline. The production
// engine lives in the tesseract subpackage; everything else in the module
// depends only on the Engine interface.
package ocr

import "context"

// Result holds the recognized text for one raster image.
type Result struct {
	Text       string
	Confidence float64 // mean word confidence in 0..1, 0 when unavailable
}

// Engine converts a PNG-encoded raster image into text. Recognize blocks
// until the engine finishes or ctx is done.
type Engine interface {
	Recognize(ctx context.Context, png []byte) (Result, error)
}
