// Package stubprovider is a deterministic, no-network provider intended for
// CI and local end-to-end tests. Responses have the same wire shapes the
// hosted models return so normalization is exercised in full.
package stubprovider

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"inference-gateway/config"
	"inference-gateway/media"
	"inference-gateway/models"
	"inference-gateway/provider"
)

// Adapter serves one task kind without network access.
type Adapter struct {
	kind models.TaskKind
}

// All returns one stub adapter per task kind.
func All() []provider.Adapter {
	adapters := make([]provider.Adapter, 0, len(models.AllKinds))
	for _, kind := range models.AllKinds {
		adapters = append(adapters, &Adapter{kind: kind})
	}
	return adapters
}

func (a *Adapter) Kind() models.TaskKind { return a.kind }

func (a *Adapter) Invoke(ctx context.Context, call provider.Call, cfg config.ProviderConfig) (provider.RawResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if call.Task == nil || call.Task.Kind() != a.kind {
		return nil, models.NewValidationError(fmt.Sprintf("%s stub cannot serve a %T task", a.kind, call.Task))
	}

	switch task := call.Task.(type) {
	case models.TextToImage:
		return solidImage(digest(task.Prompt, task.NegativePrompt))
	case models.ImageToImage:
		return solidImage(digest(task.Prompt, string(call.Media.Bytes)))
	case models.ObjectDetection:
		return detections(call.Media), nil
	case models.VisualQA:
		return provider.RawAnswers{
			{Answer: ptr("stub-" + digest(task.Question)[:6]), Score: ptr(0.42)},
			{Answer: ptr("unknown"), Score: ptr(0.1)},
		}, nil
	case models.SpeechToText:
		return provider.RawTranscript{Text: ptr(fmt.Sprintf("stub transcript %s", digest(string(call.Media.Bytes))))}, nil
	case models.TextToSpeech:
		return provider.RawAudio{Bytes: silentWav(), ContentType: media.DefaultAudioType}, nil
	case models.Translate:
		return provider.RawTranslations{
			{TranslationText: ptr(fmt.Sprintf("[%s] %s", task.TargetLang, task.Text))},
		}, nil
	case models.AudioToAudio:
		clip := base64.StdEncoding.EncodeToString(call.Media.Bytes)
		return provider.RawAudioTracks{
			{Label: ptr("speech"), Blob: ptr(clip), ContentType: ptr(call.Media.MimeType)},
		}, nil
	default:
		return nil, models.NewValidationError(fmt.Sprintf("stub has no response for %T", task))
	}
}

// detections returns one box covering the middle of the image, in the
// image's native coordinates when its header is readable.
func detections(blob models.MediaBlob) provider.RawDetections {
	w, h := 640.0, 480.0
	if size, err := media.ImageSize(blob); err == nil {
		w, h = float64(size.Width), float64(size.Height)
	}
	return provider.RawDetections{
		{
			Label: ptr("object"),
			Score: ptr(0.9),
			Box: &provider.RawBox{
				XMin: ptr(w / 4), YMin: ptr(h / 4),
				XMax: ptr(w * 3 / 4), YMax: ptr(h * 3 / 4),
			},
		},
	}
}

func solidImage(seed string) (provider.RawResponse, error) {
	sum, _ := hex.DecodeString(seed[:6])
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	fill := color.RGBA{R: sum[0], G: sum[1], B: sum[2], A: 255}
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return provider.RawImage{Bytes: buf.Bytes(), ContentType: "image/png"}, nil
}

// silentWav is a valid, empty 16 bit mono PCM file.
func silentWav() []byte {
	return []byte("RIFF\x24\x00\x00\x00WAVEfmt \x10\x00\x00\x00\x01\x00\x01\x00\x80\x3e\x00\x00\x00\x7d\x00\x00\x02\x00\x10\x00data\x00\x00\x00\x00")
}

func digest(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func ptr[T any](v T) *T {
	return &v
}
