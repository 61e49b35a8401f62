package handlers

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"inference-gateway/media"
	"inference-gateway/models"
	"inference-gateway/render"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

type TextToImageRequest struct {
	Prompt         string `json:"prompt" binding:"required"`
	NegativePrompt string `json:"negative_prompt"`
}

type TextToSpeechRequest struct {
	Text string `json:"text" binding:"required"`
}

type TranslateRequest struct {
	Text       string `json:"text" binding:"required"`
	SourceLang string `json:"source_lang" binding:"required"`
	TargetLang string `json:"target_lang" binding:"required"`
}

type audioTrackResponse struct {
	Label       string `json:"label,omitempty"`
	ContentType string `json:"content-type"`
	Blob        string `json:"blob"`
}

// TextToImage generates an image and returns it as a download.
func (h *Handlers) TextToImage(c *gin.Context) {
	var req TextToImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, fmt.Sprintf("invalid request: %v", err))
		return
	}
	result, ok := h.run(c, models.TextToImage{Prompt: req.Prompt, NegativePrompt: req.NegativePrompt})
	if !ok {
		return
	}
	writeImage(c, result, "text-to-image")
}

// ImageToImage refines the uploaded image.
func (h *Handlers) ImageToImage(c *gin.Context) {
	image, ok := formFile(c, "image")
	if !ok {
		return
	}
	result, ok := h.run(c, models.ImageToImage{Prompt: c.PostForm("prompt"), Image: image})
	if !ok {
		return
	}
	writeImage(c, result, "image-to-image")
}

// ObjectDetection returns detections as JSON, or an annotated PNG preview
// with ?format=png.
func (h *Handlers) ObjectDetection(c *gin.Context) {
	image, ok := formFile(c, "image")
	if !ok {
		return
	}
	display, err := displaySize(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	result, ok := h.run(c, models.ObjectDetection{Image: image, Display: display})
	if !ok {
		return
	}
	det, isDet := result.(models.DetectionResult)
	if !isDet {
		writeError(c, models.NewNormalizationError(fmt.Sprintf("unexpected %s result", result.ResultKind())))
		return
	}

	if c.Query("format") != "png" {
		c.JSON(http.StatusOK, det)
		return
	}

	src, err := readAll(image)
	if err != nil {
		writeError(c, models.NewEncodingError("failed to re-read image", err))
		return
	}
	preview, err := render.Annotate(src, det)
	if err != nil {
		log.Errorf("Failed to render detection preview: %v", err)
		writeError(c, models.NewEncodingError("failed to render preview", err))
		return
	}
	c.Header("Content-Disposition", `inline; filename="object-detection.png"`)
	c.Data(http.StatusOK, "image/png", preview)
}

// VisualQA answers a question about the uploaded image.
func (h *Handlers) VisualQA(c *gin.Context) {
	image, ok := formFile(c, "image")
	if !ok {
		return
	}
	result, ok := h.run(c, models.VisualQA{Question: c.PostForm("question"), Image: image})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, result)
}

// SpeechToText transcribes the uploaded audio.
func (h *Handlers) SpeechToText(c *gin.Context) {
	audio, ok := formFile(c, "audio")
	if !ok {
		return
	}
	result, ok := h.run(c, models.SpeechToText{Audio: audio})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, result)
}

// TextToSpeech synthesizes speech and returns it as a download.
func (h *Handlers) TextToSpeech(c *gin.Context) {
	var req TextToSpeechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, fmt.Sprintf("invalid request: %v", err))
		return
	}
	result, ok := h.run(c, models.TextToSpeech{Text: req.Text})
	if !ok {
		return
	}
	audio, isAudio := result.(models.AudioResult)
	if !isAudio || len(audio.Tracks) == 0 {
		writeError(c, models.NewNormalizationError("speech synthesis returned no audio"))
		return
	}
	track := audio.Tracks[0]
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="text-to-speech%s"`, extension(track.MimeType)))
	c.Data(http.StatusOK, track.MimeType, track.Bytes)
}

// Translate translates text between two language codes.
func (h *Handlers) Translate(c *gin.Context) {
	var req TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, fmt.Sprintf("invalid request: %v", err))
		return
	}
	result, ok := h.run(c, models.Translate{Text: req.Text, SourceLang: req.SourceLang, TargetLang: req.TargetLang})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, result)
}

// AudioToAudio returns the refined tracks base64 encoded.
func (h *Handlers) AudioToAudio(c *gin.Context) {
	audio, ok := formFile(c, "audio")
	if !ok {
		return
	}
	result, ok := h.run(c, models.AudioToAudio{Audio: audio})
	if !ok {
		return
	}
	tracks, isAudio := result.(models.AudioResult)
	if !isAudio {
		writeError(c, models.NewNormalizationError(fmt.Sprintf("unexpected %s result", result.ResultKind())))
		return
	}
	resp := make([]audioTrackResponse, 0, len(tracks.Tracks))
	for _, t := range tracks.Tracks {
		resp = append(resp, audioTrackResponse{
			Label:       t.Label,
			ContentType: t.MimeType,
			Blob:        base64.StdEncoding.EncodeToString(t.Bytes),
		})
	}
	c.JSON(http.StatusOK, gin.H{"tracks": resp})
}

func writeImage(c *gin.Context, result models.Result, name string) {
	img, ok := result.(models.ImageResult)
	if !ok {
		writeError(c, models.NewNormalizationError(fmt.Sprintf("unexpected %s result", result.ResultKind())))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s%s"`, name, extension(img.MimeType)))
	c.Data(http.StatusOK, img.MimeType, img.Bytes)
}

// formFile returns the named multipart upload, or writes a validation
// error when it is missing.
func formFile(c *gin.Context, field string) (media.UploadFile, bool) {
	fh, err := c.FormFile(field)
	if err != nil {
		badRequest(c, fmt.Sprintf("%s file is required", field))
		return media.UploadFile{}, false
	}
	return media.UploadFile{Header: fh}, true
}

func displaySize(c *gin.Context) (models.Size, error) {
	var size models.Size
	for _, f := range []struct {
		name string
		dst  *int
	}{
		{"display_width", &size.Width},
		{"display_height", &size.Height},
	} {
		v := c.PostForm(f.name)
		if v == "" {
			v = c.Query(f.name)
		}
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return models.Size{}, fmt.Errorf("%s must be a positive integer", f.name)
		}
		*f.dst = n
	}
	if (size.Width == 0) != (size.Height == 0) {
		return models.Size{}, fmt.Errorf("display_width and display_height must be given together")
	}
	return size, nil
}

func readAll(f media.UploadFile) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func extension(mimeType string) string {
	if i := strings.IndexByte(mimeType, '/'); i >= 0 && i < len(mimeType)-1 {
		sub := mimeType[i+1:]
		switch sub {
		case "jpeg":
			return ".jpg"
		case "mpeg":
			return ".mp3"
		case "x-wav", "wave":
			return ".wav"
		}
		return "." + strings.TrimPrefix(sub, "x-")
	}
	return ""
}
