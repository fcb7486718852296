package preprocess

import (
	"image"
	"math"
)

// AdaptiveThreshold binarizes gray: each pixel is compared against the
// Gaussian-weighted mean of its blockSize x blockSize neighborhood minus c.
// Pixels above the local threshold become white (255), the rest black (0).
// Neighborhoods are clipped at the image border and the weights renormalized
// over the clipped window.
func AdaptiveThreshold(gray *image.Gray, blockSize, c int) *image.Gray {
	if blockSize < 3 {
		blockSize = 3
	}
	if blockSize%2 == 0 {
		blockSize++
	}

	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out
	}

	kernel := gaussianKernel(blockSize)
	half := blockSize / 2

	// Separable pass 1: horizontal weighted sums plus the weight actually
	// accumulated, so border pixels normalize over the clipped window.
	sums := make([]float64, w*h)
	wts := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := gray.Pix[gray.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < w; x++ {
			var s, wt float64
			for k := -half; k <= half; k++ {
				xx := x + k
				if xx < 0 || xx >= w {
					continue
				}
				g := kernel[k+half]
				s += g * float64(row[xx])
				wt += g
			}
			sums[y*w+x] = s
			wts[y*w+x] = wt
		}
	}

	// Separable pass 2: vertical, then threshold in place.
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			var s, wt float64
			for k := -half; k <= half; k++ {
				yy := y + k
				if yy < 0 || yy >= h {
					continue
				}
				g := kernel[k+half]
				s += g * sums[yy*w+x]
				wt += g * wts[yy*w+x]
			}
			mean := s / wt
			threshold := mean - float64(c)
			if float64(gray.GrayAt(b.Min.X+x, b.Min.Y+y).Y) > threshold {
				out.Pix[y*out.Stride+x] = 255
			} else {
				out.Pix[y*out.Stride+x] = 0
			}
		}
	}
	return out
}

// gaussianKernel builds a 1-D Gaussian of the given odd size, with sigma
// derived from the size the way OpenCV's getGaussianKernel does.
func gaussianKernel(size int) []float64 {
	sigma := 0.3*(float64(size-1)*0.5-1.0) + 0.8
	half := size / 2
	kernel := make([]float64, size)
	var sum float64
	for i := -half; i <= half; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+half] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}
