// Package preprocess implements the fixed image-cleanup chain applied to
// every raster before recognition: grayscale conversion, adaptive Gaussian
// thresholding and a morphological opening. All functions are pure and
// deterministic; the output is always a single-channel binary image with the
// input's width and height.
package preprocess

import (
	"image"

	"github.com/disintegration/imaging"
)

// Chain holds the cleanup parameters. The zero value is not usable; build
// one with NewChain.
type Chain struct {
	BlockSize  int // adaptive threshold neighborhood, odd
	C          int // constant subtracted from each local threshold
	KernelSize int // opening structuring element, odd
}

// NewChain returns the chain with the parameters the tool has always used:
// an 11x11 Gaussian threshold window with offset 2 and a 1x1 opening kernel.
func NewChain() Chain {
	return Chain{BlockSize: 11, C: 2, KernelSize: 1}
}

// Run cleans one raster image. Color input is converted to grayscale first;
// grayscale input passes through with pixel values unchanged.
//
// The 1x1 opening only alters the image for kernel sizes above 1, but the
// step stays in the chain so a larger kernel slots in without reordering.
func (c Chain) Run(img image.Image) *image.Gray {
	gray := ToGray(img)
	binary := AdaptiveThreshold(gray, c.BlockSize, c.C)
	return Open(binary, c.KernelSize)
}

// ToGray converts an image to single-channel grayscale using a luma-weighted
// conversion. An *image.Gray input is returned as-is.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	nrgba := imaging.Grayscale(img)
	b := nrgba.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := nrgba.Pix[y*nrgba.Stride:]
		dst := gray.Pix[y*gray.Stride:]
		for x := 0; x < b.Dx(); x++ {
			// channels are equal after Grayscale, R is enough
			dst[x] = src[x*4]
		}
	}
	return gray
}
