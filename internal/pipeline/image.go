package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"github.com/pagetext/pagetext/internal/common"
	"github.com/pagetext/pagetext/internal/ocr"
)

// ProcessImage extracts text from a single image file. The preprocessed
// raster is written into Options.PreprocessedDir as
// preprocessed_<basename>, an inspection artifact the tool has always left
// behind. Failures are typed: ErrLoad when the file cannot be read or
// decoded, ErrRecognition when the engine fails.
func (p *Processor) ProcessImage(ctx context.Context, path string) (string, float64, error) {
	start := time.Now()

	img, err := imaging.Open(path)
	if err != nil {
		return "", 0, common.NewAppError(common.ErrLoad, path, "load image", err)
	}

	cleaned := p.chain.Run(img)

	artifact := filepath.Join(p.opts.PreprocessedDir, "preprocessed_"+filepath.Base(path))
	if err := imaging.Save(cleaned, artifact); err != nil {
		return "", 0, common.WrapError(err, "save preprocessed image")
	}

	data, err := pngBytes(cleaned)
	if err != nil {
		return "", 0, err
	}
	res, err := p.engine.Recognize(ctx, data)
	if err != nil {
		return "", 0, err
	}

	p.logger.Info("image processed",
		"path", path,
		"bytes", len(res.Text),
		"confidence", res.Confidence,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return ocr.Normalize(res.Text), res.Confidence, nil
}
