// Package normalizer maps provider wire shapes onto the canonical result
// model. It performs no I/O.
package normalizer

import (
	"encoding/base64"
	"fmt"
	"math"
	"mime"
	"strings"

	"inference-gateway/models"
	"inference-gateway/provider"

	"github.com/gabriel-vasile/mimetype"
)

// Normalize converts raw into the result variant expected for task.
// Anything it does not recognize fails with a NormalizationError.
func Normalize(task models.Task, raw provider.RawResponse) (models.Result, error) {
	if task == nil {
		return nil, models.NewNormalizationError("no task given")
	}
	switch task.Kind() {
	case models.KindTextToImage, models.KindImageToImage:
		img, ok := raw.(provider.RawImage)
		if !ok {
			return nil, mismatch(task, raw)
		}
		return normalizeImage(img)
	case models.KindObjectDetection:
		dets, ok := raw.(provider.RawDetections)
		if !ok {
			return nil, mismatch(task, raw)
		}
		return normalizeDetections(dets)
	case models.KindVisualQA:
		answers, ok := raw.(provider.RawAnswers)
		if !ok {
			return nil, mismatch(task, raw)
		}
		return normalizeAnswers(answers)
	case models.KindSpeechToText:
		transcript, ok := raw.(provider.RawTranscript)
		if !ok {
			return nil, mismatch(task, raw)
		}
		if transcript.Text == nil {
			return nil, models.NewNormalizationError("transcript has no text field")
		}
		return models.TranscriptResult{Text: strings.TrimSpace(*transcript.Text)}, nil
	case models.KindTextToSpeech:
		audio, ok := raw.(provider.RawAudio)
		if !ok {
			return nil, mismatch(task, raw)
		}
		track, err := audioTrack("", audio.Bytes, audio.ContentType)
		if err != nil {
			return nil, err
		}
		return models.AudioResult{Tracks: []models.AudioTrack{track}}, nil
	case models.KindTranslate:
		translations, ok := raw.(provider.RawTranslations)
		if !ok {
			return nil, mismatch(task, raw)
		}
		return normalizeTranslations(translations)
	case models.KindAudioToAudio:
		tracks, ok := raw.(provider.RawAudioTracks)
		if !ok {
			return nil, mismatch(task, raw)
		}
		return normalizeAudioTracks(tracks)
	default:
		return nil, models.NewNormalizationError(fmt.Sprintf("no normalization for task kind %q", task.Kind()))
	}
}

func mismatch(task models.Task, raw provider.RawResponse) error {
	return models.NewNormalizationError(fmt.Sprintf("%s task cannot be answered by a %s response", task.Kind(), provider.Shape(raw)))
}

func normalizeImage(img provider.RawImage) (models.Result, error) {
	if len(img.Bytes) == 0 {
		return nil, models.NewNormalizationError("image response is empty")
	}
	mimeType, ok := resolveType(img.ContentType, img.Bytes, models.MediaImage)
	if !ok {
		return nil, models.NewNormalizationError(fmt.Sprintf("image response has non-image content type %q", img.ContentType))
	}
	return models.ImageResult{Bytes: img.Bytes, MimeType: mimeType}, nil
}

func normalizeDetections(dets provider.RawDetections) (models.Result, error) {
	objects := make([]models.DetectedObject, 0, len(dets))
	for i, d := range dets {
		if d.Label == nil {
			return nil, models.NewNormalizationError(fmt.Sprintf("detection %d has no label", i))
		}
		score := d.Score
		if score == nil {
			score = d.Confidence
		}
		if score == nil {
			return nil, models.NewNormalizationError(fmt.Sprintf("detection %d has neither score nor confidence", i))
		}
		if err := checkScore(*score); err != nil {
			return nil, models.NewNormalizationError(fmt.Sprintf("detection %d: %v", i, err))
		}
		box, err := normalizeBox(d.Box)
		if err != nil {
			return nil, models.NewNormalizationError(fmt.Sprintf("detection %d: %v", i, err))
		}
		objects = append(objects, models.DetectedObject{Label: *d.Label, Score: *score, Box: box})
	}
	return models.DetectionResult{Objects: objects}, nil
}

// normalizeBox accepts corner form or origin plus extent and returns a box
// with ordered corners.
func normalizeBox(b *provider.RawBox) (models.Box, error) {
	if b == nil {
		return models.Box{}, fmt.Errorf("no box")
	}
	var box models.Box
	switch {
	case allSet(b.XMin, b.YMin, b.XMax, b.YMax):
		box = models.Box{XMin: *b.XMin, YMin: *b.YMin, XMax: *b.XMax, YMax: *b.YMax}
	case allSet(b.X, b.Y, b.Width, b.Height):
		if *b.Width < 0 || *b.Height < 0 {
			return models.Box{}, fmt.Errorf("box has negative extent %gx%g", *b.Width, *b.Height)
		}
		box = models.Box{XMin: *b.X, YMin: *b.Y, XMax: *b.X + *b.Width, YMax: *b.Y + *b.Height}
	default:
		return models.Box{}, fmt.Errorf("box has an unrecognized shape")
	}
	for _, v := range []float64{box.XMin, box.YMin, box.XMax, box.YMax} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return models.Box{}, fmt.Errorf("box coordinate is not finite")
		}
	}
	if box.XMin > box.XMax {
		box.XMin, box.XMax = box.XMax, box.XMin
	}
	if box.YMin > box.YMax {
		box.YMin, box.YMax = box.YMax, box.YMin
	}
	return box, nil
}

// normalizeAnswers keeps the highest scoring answer. Ties keep the first.
func normalizeAnswers(answers provider.RawAnswers) (models.Result, error) {
	if len(answers) == 0 {
		return nil, models.NewNormalizationError("no answers in response")
	}
	var best *models.AnswerResult
	for i, a := range answers {
		if a.Answer == nil || a.Score == nil {
			return nil, models.NewNormalizationError(fmt.Sprintf("answer %d is missing answer or score", i))
		}
		if err := checkScore(*a.Score); err != nil {
			return nil, models.NewNormalizationError(fmt.Sprintf("answer %d: %v", i, err))
		}
		if best == nil || *a.Score > best.Confidence {
			best = &models.AnswerResult{Text: *a.Answer, Confidence: *a.Score}
		}
	}
	return *best, nil
}

func normalizeTranslations(translations provider.RawTranslations) (models.Result, error) {
	if len(translations) == 0 {
		return nil, models.NewNormalizationError("no translations in response")
	}
	t := translations[0]
	switch {
	case t.TranslationText != nil:
		return models.TranslationResult{Text: *t.TranslationText}, nil
	case t.GeneratedText != nil:
		return models.TranslationResult{Text: *t.GeneratedText}, nil
	default:
		return nil, models.NewNormalizationError("translation has neither translation_text nor generated_text")
	}
}

func normalizeAudioTracks(raw provider.RawAudioTracks) (models.Result, error) {
	if len(raw) == 0 {
		return nil, models.NewNormalizationError("no audio tracks in response")
	}
	tracks := make([]models.AudioTrack, 0, len(raw))
	for i, r := range raw {
		if r.Blob == nil {
			return nil, models.NewNormalizationError(fmt.Sprintf("audio track %d has no blob", i))
		}
		data, err := base64.StdEncoding.DecodeString(*r.Blob)
		if err != nil {
			return nil, models.NewNormalizationError(fmt.Sprintf("audio track %d blob is not base64: %v", i, err))
		}
		var label, contentType string
		if r.Label != nil {
			label = *r.Label
		}
		if r.ContentType != nil {
			contentType = *r.ContentType
		}
		track, err := audioTrack(label, data, contentType)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	return models.AudioResult{Tracks: tracks}, nil
}

func audioTrack(label string, data []byte, contentType string) (models.AudioTrack, error) {
	if len(data) == 0 {
		return models.AudioTrack{}, models.NewNormalizationError("audio response is empty")
	}
	mimeType, ok := resolveType(contentType, data, models.MediaAudio)
	if !ok {
		return models.AudioTrack{}, models.NewNormalizationError(fmt.Sprintf("audio response has non-audio content type %q", contentType))
	}
	return models.AudioTrack{Label: label, Bytes: data, MimeType: mimeType}, nil
}

// resolveType trusts a content type of the right kind, otherwise sniffs the
// bytes. Generic or missing types are sniffed too.
func resolveType(contentType string, data []byte, kind models.MediaKind) (string, bool) {
	prefix := string(kind) + "/"
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && strings.HasPrefix(mediaType, prefix) && !strings.HasSuffix(mediaType, "/*") {
		return mediaType, true
	}
	detected := mimetype.Detect(data)
	for m := detected; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), prefix) {
			mediaType, _, _ := mime.ParseMediaType(m.String())
			return mediaType, true
		}
	}
	if kind == models.MediaAudio && detected.Is("video/webm") {
		return "audio/webm", true
	}
	return "", false
}

func checkScore(s float64) error {
	if math.IsNaN(s) || s < 0 || s > 1 {
		return fmt.Errorf("score %v is outside [0,1]", s)
	}
	return nil
}

func allSet(vals ...*float64) bool {
	for _, v := range vals {
		if v == nil {
			return false
		}
	}
	return true
}
