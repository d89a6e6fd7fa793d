package film

import (
	"image"
	"io"

	"github.com/HugoSmits86/nativewebp"
)

// EncodeWebP writes img to w as WebP, an alternative output format to the
// renderer's default PNG for smaller final-render files.
func EncodeWebP(w io.Writer, img image.Image) error {
	return nativewebp.Encode(w, img, nil)
}
