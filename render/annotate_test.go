package render

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"inference-gateway/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sourcePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{0, 0, 255, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestAnnotate(t *testing.T) {
	det := models.DetectionResult{
		Projected: []models.ProjectedBox{
			{Label: "cat", Score: 0.98, Left: 30, Top: 30, Right: 52, Bottom: 52},
		},
		NativeSize:  models.Size{Width: 1024, Height: 768},
		DisplaySize: models.Size{Width: 350, Height: 350},
		Scale:       0.2734375,
	}

	out, err := Annotate(sourcePNG(t, 1024, 768), det)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 350, img.Bounds().Dx())
	assert.Equal(t, 350, img.Bounds().Dy())

	// Inside the scaled image, away from the box.
	r, g, b, _ := img.At(200, 150).RGBA()
	assert.Less(t, r, uint32(0x1000))
	assert.Less(t, g, uint32(0x1000))
	assert.Greater(t, b, uint32(0xf000))

	// Below the scaled image the background shows.
	r, _, _, _ = img.At(10, 300).RGBA()
	assert.NotEqual(t, uint32(0), r)
}

// rotatedJPEG is a 40x20 JPEG, dark on top and light below, tagged with
// EXIF orientation 6 so it displays as 20x40 with the dark half on the
// right.
func rotatedJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			c := color.RGBA{255, 255, 255, 255}
			if y < 10 {
				c = color.RGBA{0, 0, 0, 255}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	data := buf.Bytes()

	payload := []byte("Exif\x00\x00MM\x00\x2a\x00\x00\x00\x08" +
		"\x00\x01" +
		"\x01\x12\x00\x03\x00\x00\x00\x01\x00\x06\x00\x00" +
		"\x00\x00\x00\x00")
	segLen := len(payload) + 2
	out := append([]byte{}, data[:2]...)
	out = append(out, 0xff, 0xe1, byte(segLen>>8), byte(segLen))
	out = append(out, payload...)
	return append(out, data[2:]...)
}

func TestAnnotateHonoursOrientation(t *testing.T) {
	det := models.DetectionResult{
		NativeSize:  models.Size{Width: 20, Height: 40},
		DisplaySize: models.Size{Width: 20, Height: 40},
		Scale:       1,
	}

	out, err := Annotate(rotatedJPEG(t), det)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	r, _, _, _ := img.At(15, 30).RGBA()
	assert.Less(t, r, uint32(0x4000), "right half is the dark top of the stored image")
	r, _, _, _ = img.At(5, 5).RGBA()
	assert.Greater(t, r, uint32(0xc000), "left half is the light bottom of the stored image")
}

func TestAnnotateRejectsBadInput(t *testing.T) {
	_, err := Annotate([]byte("nope"), models.DetectionResult{DisplaySize: models.Size{Width: 10, Height: 10}, Scale: 1})
	assert.Error(t, err)

	_, err = Annotate(sourcePNG(t, 2, 2), models.DetectionResult{Scale: 1})
	assert.Error(t, err)

	_, err = Annotate(sourcePNG(t, 2, 2), models.DetectionResult{DisplaySize: models.Size{Width: 10, Height: 10}})
	assert.Error(t, err)
}
