package models

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

type memFile struct{}

func (memFile) Name() string                 { return "x.png" }
func (memFile) DeclaredType() string         { return "image/png" }
func (memFile) Open() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader([]byte{1})), nil }

func TestTaskValidate(t *testing.T) {
	testCases := []struct {
		name    string
		task    Task
		wantErr bool
	}{
		{"text to image", TextToImage{Prompt: "a red fox"}, false},
		{"blank prompt", TextToImage{Prompt: "   \t"}, true},
		{"image to image without image", ImageToImage{Prompt: "sharpen"}, true},
		{"image to image", ImageToImage{Prompt: "sharpen", Image: memFile{}}, false},
		{"detection", ObjectDetection{Image: memFile{}}, false},
		{"detection negative display", ObjectDetection{Image: memFile{}, Display: Size{Width: -1, Height: 10}}, true},
		{"detection width only", ObjectDetection{Image: memFile{}, Display: Size{Width: 350}}, true},
		{"detection height only", ObjectDetection{Image: memFile{}, Display: Size{Height: 350}}, true},
		{"detection default display", ObjectDetection{Image: memFile{}}, false},
		{"vqa without question", VisualQA{Image: memFile{}}, true},
		{"vqa", VisualQA{Question: "what color is the car?", Image: memFile{}}, false},
		{"speech to text without audio", SpeechToText{}, true},
		{"text to speech", TextToSpeech{Text: "hello"}, false},
		{"translate", Translate{Text: "hello", SourceLang: "eng_Latn", TargetLang: "fra_Latn"}, false},
		{"translate bad code", Translate{Text: "hello", SourceLang: "English", TargetLang: "fra_Latn"}, true},
		{"audio to audio", AudioToAudio{Audio: memFile{}}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.task.Validate()
			if tc.wantErr {
				assert.Error(t, err)
				assert.Equal(t, KindValidation, KindOf(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAllKindsAreDistinct(t *testing.T) {
	seen := map[TaskKind]bool{}
	for _, k := range AllKinds {
		assert.False(t, seen[k], "duplicate kind %s", k)
		seen[k] = true
	}
}

func TestProviderRejectionRetryable(t *testing.T) {
	assert.True(t, NewProviderRejection(ReasonColdStart, 503, "loading", 0).IsRetryable)
	assert.True(t, NewProviderRejection(ReasonRateLimited, 429, "slow down", 0).IsRetryable)
	assert.False(t, NewProviderRejection(ReasonInvalidInput, 400, "bad", 0).IsRetryable)
	assert.False(t, NewProviderError(0, io.ErrUnexpectedEOF).IsRetryable)
}
