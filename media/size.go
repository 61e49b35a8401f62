package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"inference-gateway/models"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageSize decodes only the image header to find its display size, which
// is the coordinate space detection boxes are reported in. Width and
// height are swapped for EXIF orientations that turn the image.
func ImageSize(blob models.MediaBlob) (models.Size, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(blob.Bytes))
	if err != nil {
		return models.Size{}, models.NewEncodingError(fmt.Sprintf("cannot read %s image header", blob.MimeType), err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return models.Size{}, models.NewEncodingError(fmt.Sprintf("%s image has invalid size %dx%d", format, cfg.Width, cfg.Height), nil)
	}
	if swapsAxes(Orientation(blob.Bytes)) {
		return models.Size{Width: cfg.Height, Height: cfg.Width}, nil
	}
	return models.Size{Width: cfg.Width, Height: cfg.Height}, nil
}
