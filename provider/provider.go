package provider

import (
	"context"

	"inference-gateway/config"
	"inference-gateway/models"
)

// Call is one provider invocation. Media is empty for text-only tasks.
type Call struct {
	Task  models.Task
	Media models.MediaBlob
}

// Adapter translates a task into one provider request and returns the
// provider's response undecoded beyond its wire shape.
// Implementations must be concurrency-safe.
type Adapter interface {
	// Kind is the single task kind the adapter serves.
	Kind() models.TaskKind
	Invoke(ctx context.Context, call Call, cfg config.ProviderConfig) (RawResponse, error)
}

// RawResponse is the closed set of provider response shapes.
type RawResponse interface {
	rawShape() string
}

// RawImage is a binary image body.
type RawImage struct {
	Bytes       []byte
	ContentType string
}

// RawAudio is a binary audio body.
type RawAudio struct {
	Bytes       []byte
	ContentType string
}

// RawBox accepts both corner and origin-plus-extent box encodings.
type RawBox struct {
	XMin   *float64 `json:"xmin"`
	YMin   *float64 `json:"ymin"`
	XMax   *float64 `json:"xmax"`
	YMax   *float64 `json:"ymax"`
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
	Width  *float64 `json:"width"`
	Height *float64 `json:"height"`
}

type RawDetection struct {
	Label      *string  `json:"label"`
	Score      *float64 `json:"score"`
	Confidence *float64 `json:"confidence"`
	Box        *RawBox  `json:"box"`
}

type RawDetections []RawDetection

type RawAnswer struct {
	Answer *string  `json:"answer"`
	Score  *float64 `json:"score"`
}

type RawAnswers []RawAnswer

type RawTranscript struct {
	Text *string `json:"text"`
}

type RawTranslation struct {
	TranslationText *string `json:"translation_text"`
	GeneratedText   *string `json:"generated_text"`
}

type RawTranslations []RawTranslation

// RawAudioTrack carries a base64 encoded clip.
type RawAudioTrack struct {
	Label       *string `json:"label"`
	Blob        *string `json:"blob"`
	ContentType *string `json:"content-type"`
}

type RawAudioTracks []RawAudioTrack

func (RawImage) rawShape() string        { return "image" }
func (RawAudio) rawShape() string        { return "audio" }
func (RawDetections) rawShape() string   { return "detections" }
func (RawAnswers) rawShape() string      { return "answers" }
func (RawTranscript) rawShape() string   { return "transcript" }
func (RawTranslations) rawShape() string { return "translations" }
func (RawAudioTracks) rawShape() string  { return "audio_tracks" }

// Shape names a raw response for error messages.
func Shape(raw RawResponse) string {
	if raw == nil {
		return "nothing"
	}
	return raw.rawShape()
}

// Table indexes adapters by the task kind they serve.
type Table map[models.TaskKind]Adapter

// NewTable builds a table and fails unless every task kind has exactly one
// adapter.
func NewTable(adapters ...Adapter) (Table, error) {
	table := make(Table, len(adapters))
	for _, a := range adapters {
		if _, dup := table[a.Kind()]; dup {
			return nil, &TableError{Kind: a.Kind(), Duplicate: true}
		}
		table[a.Kind()] = a
	}
	for _, kind := range models.AllKinds {
		if _, ok := table[kind]; !ok {
			return nil, &TableError{Kind: kind}
		}
	}
	return table, nil
}

// TableError reports an incomplete or ambiguous adapter table.
type TableError struct {
	Kind      models.TaskKind
	Duplicate bool
}

func (e *TableError) Error() string {
	if e.Duplicate {
		return "more than one adapter registered for " + string(e.Kind)
	}
	return "no adapter registered for " + string(e.Kind)
}
