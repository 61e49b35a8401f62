package models

import (
	"fmt"
	"regexp"
	"strings"
)

// TaskKind identifies one inference task variant.
type TaskKind string

const (
	KindTextToImage     TaskKind = "text-to-image"
	KindImageToImage    TaskKind = "image-to-image"
	KindObjectDetection TaskKind = "object-detection"
	KindVisualQA        TaskKind = "visual-qa"
	KindSpeechToText    TaskKind = "speech-to-text"
	KindTextToSpeech    TaskKind = "text-to-speech"
	KindTranslate       TaskKind = "translate"
	KindAudioToAudio    TaskKind = "audio-to-audio"
)

// AllKinds lists every task variant. Adapter tables are checked against it.
var AllKinds = []TaskKind{
	KindTextToImage,
	KindImageToImage,
	KindObjectDetection,
	KindVisualQA,
	KindSpeechToText,
	KindTextToSpeech,
	KindTranslate,
	KindAudioToAudio,
}

// Task is a closed set of inference requests. Only types in this package
// implement it.
type Task interface {
	Kind() TaskKind
	// Validate checks required fields without touching media content.
	Validate() error
	// Media returns the media input of the task and the kind of media it
	// expects, or a nil handle when the task carries no media.
	Media() (FileHandle, MediaKind)
	sealed()
}

type TextToImage struct {
	Prompt         string
	NegativePrompt string
}

type ImageToImage struct {
	Prompt string
	Image  FileHandle
}

type ObjectDetection struct {
	Image FileHandle
	// Display is the size of the rendered image the boxes are projected
	// into. The zero value selects the configured default.
	Display Size
}

type VisualQA struct {
	Question string
	Image    FileHandle
}

type SpeechToText struct {
	Audio FileHandle
}

type TextToSpeech struct {
	Text string
}

// Translate carries NLLB-style language codes such as "eng_Latn".
type Translate struct {
	Text       string
	SourceLang string
	TargetLang string
}

// AudioToAudio refines or separates an audio clip into one or more tracks.
type AudioToAudio struct {
	Audio FileHandle
}

var langCode = regexp.MustCompile(`^[a-z]{3}_[A-Z][a-z]{3}$`)

func (TextToImage) Kind() TaskKind     { return KindTextToImage }
func (ImageToImage) Kind() TaskKind    { return KindImageToImage }
func (ObjectDetection) Kind() TaskKind { return KindObjectDetection }
func (VisualQA) Kind() TaskKind        { return KindVisualQA }
func (SpeechToText) Kind() TaskKind    { return KindSpeechToText }
func (TextToSpeech) Kind() TaskKind    { return KindTextToSpeech }
func (Translate) Kind() TaskKind       { return KindTranslate }
func (AudioToAudio) Kind() TaskKind    { return KindAudioToAudio }

func (TextToImage) sealed()     {}
func (ImageToImage) sealed()    {}
func (ObjectDetection) sealed() {}
func (VisualQA) sealed()        {}
func (SpeechToText) sealed()    {}
func (TextToSpeech) sealed()    {}
func (Translate) sealed()       {}
func (AudioToAudio) sealed()    {}

func (t TextToImage) Media() (FileHandle, MediaKind)     { return nil, "" }
func (t ImageToImage) Media() (FileHandle, MediaKind)    { return t.Image, MediaImage }
func (t ObjectDetection) Media() (FileHandle, MediaKind) { return t.Image, MediaImage }
func (t VisualQA) Media() (FileHandle, MediaKind)        { return t.Image, MediaImage }
func (t SpeechToText) Media() (FileHandle, MediaKind)    { return t.Audio, MediaAudio }
func (t TextToSpeech) Media() (FileHandle, MediaKind)    { return nil, "" }
func (t Translate) Media() (FileHandle, MediaKind)       { return nil, "" }
func (t AudioToAudio) Media() (FileHandle, MediaKind)    { return t.Audio, MediaAudio }

func (t TextToImage) Validate() error {
	return requireText("prompt", t.Prompt)
}

func (t ImageToImage) Validate() error {
	if err := requireText("prompt", t.Prompt); err != nil {
		return err
	}
	return requireMedia("image", t.Image)
}

func (t ObjectDetection) Validate() error {
	if err := requireMedia("image", t.Image); err != nil {
		return err
	}
	if t.Display.Width < 0 || t.Display.Height < 0 {
		return NewValidationError(fmt.Sprintf("display size must not be negative, got %dx%d", t.Display.Width, t.Display.Height))
	}
	if (t.Display.Width == 0) != (t.Display.Height == 0) {
		return NewValidationError(fmt.Sprintf("display width and height must be given together, got %dx%d", t.Display.Width, t.Display.Height))
	}
	return nil
}

func (t VisualQA) Validate() error {
	if err := requireText("question", t.Question); err != nil {
		return err
	}
	return requireMedia("image", t.Image)
}

func (t SpeechToText) Validate() error {
	return requireMedia("audio", t.Audio)
}

func (t TextToSpeech) Validate() error {
	return requireText("text", t.Text)
}

func (t Translate) Validate() error {
	if err := requireText("text", t.Text); err != nil {
		return err
	}
	if !langCode.MatchString(t.SourceLang) {
		return NewValidationError(fmt.Sprintf("source language %q is not a language code like eng_Latn", t.SourceLang))
	}
	if !langCode.MatchString(t.TargetLang) {
		return NewValidationError(fmt.Sprintf("target language %q is not a language code like eng_Latn", t.TargetLang))
	}
	return nil
}

func (t AudioToAudio) Validate() error {
	return requireMedia("audio", t.Audio)
}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return NewValidationError(field + " is required")
	}
	return nil
}

func requireMedia(field string, fh FileHandle) error {
	if fh == nil {
		return NewValidationError(field + " file is required")
	}
	return nil
}
