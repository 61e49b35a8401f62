package media

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"inference-gateway/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jpegWithOrientation encodes a w x h JPEG and inserts an EXIF segment
// holding only the orientation tag.
func jpegWithOrientation(t *testing.T, w, h, orientation int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	data := buf.Bytes()

	tiff := []byte{
		'M', 'M', 0x00, 0x2a, 0x00, 0x00, 0x00, 0x08,
		0x00, 0x01,
		0x01, 0x12, 0x00, 0x03, 0x00, 0x00, 0x00, 0x01, 0x00, byte(orientation), 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}
	payload := append([]byte("Exif\x00\x00"), tiff...)
	segLen := len(payload) + 2
	app1 := append([]byte{0xff, 0xe1, byte(segLen >> 8), byte(segLen)}, payload...)

	out := append([]byte{}, data[:2]...)
	out = append(out, app1...)
	return append(out, data[2:]...)
}

func TestOrientation(t *testing.T) {
	assert.Equal(t, 6, Orientation(jpegWithOrientation(t, 8, 4, 6)))
	assert.Equal(t, 3, Orientation(jpegWithOrientation(t, 8, 4, 3)))
	assert.Equal(t, 1, Orientation(pngBytes(t, 8, 4)))
	assert.Equal(t, 1, Orientation([]byte("not an image")))
}

func TestImageSizeFollowsOrientation(t *testing.T) {
	testCases := []struct {
		orientation int
		want        models.Size
	}{
		{1, models.Size{Width: 40, Height: 30}},
		{3, models.Size{Width: 40, Height: 30}},
		{5, models.Size{Width: 30, Height: 40}},
		{6, models.Size{Width: 30, Height: 40}},
		{8, models.Size{Width: 30, Height: 40}},
	}
	for _, tc := range testCases {
		blob := models.MediaBlob{Bytes: jpegWithOrientation(t, 40, 30, tc.orientation), MimeType: "image/jpeg"}
		size, err := ImageSize(blob)
		require.NoError(t, err)
		assert.Equal(t, tc.want, size, "orientation %d", tc.orientation)
	}
}

func TestOrient(t *testing.T) {
	const w, h = 3, 2
	marker := color.RGBA{R: 255, A: 255}
	src := image.NewRGBA(image.Rect(0, 0, w, h))
	src.Set(0, 0, marker)

	testCases := []struct {
		orientation int
		size        image.Point
		marker      image.Point
	}{
		{1, image.Pt(w, h), image.Pt(0, 0)},
		{2, image.Pt(w, h), image.Pt(w-1, 0)},
		{3, image.Pt(w, h), image.Pt(w-1, h-1)},
		{4, image.Pt(w, h), image.Pt(0, h-1)},
		{5, image.Pt(h, w), image.Pt(0, 0)},
		{6, image.Pt(h, w), image.Pt(h-1, 0)},
		{7, image.Pt(h, w), image.Pt(h-1, w-1)},
		{8, image.Pt(h, w), image.Pt(0, w-1)},
	}
	for _, tc := range testCases {
		got := Orient(src, tc.orientation)
		assert.Equal(t, tc.size, got.Bounds().Size(), "orientation %d", tc.orientation)
		r, _, _, _ := got.At(tc.marker.X, tc.marker.Y).RGBA()
		assert.Equal(t, uint32(0xffff), r, "orientation %d", tc.orientation)
	}
}
