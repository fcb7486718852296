package constants

import "strings"

// Format is the closed set of input kinds the tool processes. Dispatch is on
// this enum rather than on raw extension strings.
type Format int

const (
	FormatUnknown Format = iota
	FormatPDF
	FormatImage
)

// String returns the display name of the format.
func (f Format) String() string {
	switch f {
	case FormatPDF:
		return "PDF"
	case FormatImage:
		return "IMAGE"
	default:
		return "UNKNOWN"
	}
}

// imageExtensions holds the raster formats the image loader accepts.
var imageExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"tiff": {},
	"bmp":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat classifies a file extension into a Format.
// Matching is case-insensitive; a leading dot is ignored.
func MapExtToFormat(ext string) Format {
	ext = NormalizeExt(ext)
	if ext == "pdf" {
		return FormatPDF
	}
	if _, ok := imageExtensions[ext]; ok {
		return FormatImage
	}
	return FormatUnknown
}

// SupportedExtensions lists every accepted extension, for error messages.
func SupportedExtensions() []string {
	return []string{"pdf", "jpg", "jpeg", "png", "tiff", "bmp"}
}
