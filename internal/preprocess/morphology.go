package preprocess

import "image"

// Open performs a morphological opening (erosion followed by dilation) with
// a square structuring element of the given size. Size is forced odd; a size
// of 1 leaves the image unchanged by construction.
func Open(img *image.Gray, size int) *image.Gray {
	return dilate(erode(img, size), size)
}

// erode replaces each pixel with the minimum over its neighborhood.
func erode(img *image.Gray, size int) *image.Gray {
	return rankFilter(img, size, func(a, b uint8) bool { return a < b })
}

// dilate replaces each pixel with the maximum over its neighborhood.
func dilate(img *image.Gray, size int) *image.Gray {
	return rankFilter(img, size, func(a, b uint8) bool { return a > b })
}

// rankFilter applies a min- or max-style filter over a clipped square
// window. Clipping at the border is equivalent to edge replication for
// min/max filters.
func rankFilter(img *image.Gray, size int, better func(a, b uint8) bool) *image.Gray {
	if size < 1 {
		size = 1
	}
	if size%2 == 0 {
		size++
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	half := size / 2

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			best := img.GrayAt(b.Min.X+x, b.Min.Y+y).Y
			for dy := -half; dy <= half; dy++ {
				yy := y + dy
				if yy < 0 || yy >= h {
					continue
				}
				for dx := -half; dx <= half; dx++ {
					xx := x + dx
					if xx < 0 || xx >= w {
						continue
					}
					v := img.GrayAt(b.Min.X+xx, b.Min.Y+yy).Y
					if better(v, best) {
						best = v
					}
				}
			}
			out.Pix[y*out.Stride+x] = best
		}
	}
	return out
}
