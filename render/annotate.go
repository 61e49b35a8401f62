// Package render draws detection results over the scaled source image.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"inference-gateway/media"
	"inference-gateway/models"

	"github.com/apex/log"
	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
)

var (
	boxColor   = color.RGBA{219, 33, 213, 255}
	labelColor = color.RGBA{255, 255, 255, 255}
	background = color.RGBA{245, 245, 245, 255}
)

// Annotate renders src, turned upright by its EXIF orientation and scaled
// by det.Scale, onto a display sized canvas and draws the projected boxes
// with their labels. The output is PNG.
func Annotate(src []byte, det models.DetectionResult) ([]byte, error) {
	if det.DisplaySize.Width <= 0 || det.DisplaySize.Height <= 0 {
		return nil, fmt.Errorf("display size must be positive, got %dx%d", det.DisplaySize.Width, det.DisplaySize.Height)
	}
	if det.Scale <= 0 {
		return nil, fmt.Errorf("scale must be positive, got %v", det.Scale)
	}

	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	img = media.Orient(img, media.Orientation(src))

	bounds := img.Bounds()
	scaledW := int(math.Round(float64(bounds.Dx()) * det.Scale))
	scaledH := int(math.Round(float64(bounds.Dy()) * det.Scale))

	dst := image.NewRGBA(image.Rect(0, 0, det.DisplaySize.Width, det.DisplaySize.Height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	draw.ApproxBiLinear.Scale(dst, image.Rect(0, 0, scaledW, scaledH), img, bounds, draw.Over, nil)

	dc := gg.NewContextForRGBA(dst)
	dc.SetLineWidth(2)
	for _, box := range det.Projected {
		dc.SetColor(boxColor)
		dc.DrawRectangle(box.Left, box.Top, box.Width(), box.Height())
		dc.Stroke()

		label := fmt.Sprintf("%s %.0f%%", box.Label, box.Score*100)
		w, h := dc.MeasureString(label)
		y := math.Max(box.Top-h-4, 0)
		dc.DrawRectangle(box.Left, y, w+4, h+4)
		dc.Fill()
		dc.SetColor(labelColor)
		dc.DrawStringAnchored(label, box.Left+2, y+2, 0, 1)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode annotated image: %w", err)
	}
	log.Debugf("Annotated %d boxes on %dx%d canvas (scaled image %dx%d)",
		len(det.Projected), det.DisplaySize.Width, det.DisplaySize.Height, scaledW, scaledH)
	return buf.Bytes(), nil
}
