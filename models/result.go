package models

import (
	"time"
)

// Result is a closed set of normalized inference outcomes.
type Result interface {
	ResultKind() string
	sealedResult()
}

// ImageResult holds a generated or refined image.
type ImageResult struct {
	Bytes    []byte `json:"-"`
	MimeType string `json:"mime_type"`
}

// Box is an axis aligned rectangle in model native pixel coordinates.
type Box struct {
	XMin float64 `json:"xmin"`
	YMin float64 `json:"ymin"`
	XMax float64 `json:"xmax"`
	YMax float64 `json:"ymax"`
}

// DetectedObject is one normalized detection. It is never modified after
// normalization.
type DetectedObject struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
	Box   Box     `json:"box"`
}

// ProjectedBox is a detection box remapped into the coordinate space of a
// rendered image. It is a separate type so projected boxes cannot be
// projected again.
type ProjectedBox struct {
	Label  string  `json:"label"`
	Score  float64 `json:"score"`
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

func (p ProjectedBox) Width() float64  { return p.Right - p.Left }
func (p ProjectedBox) Height() float64 { return p.Bottom - p.Top }

type DetectionResult struct {
	Objects     []DetectedObject `json:"objects"`
	Projected   []ProjectedBox   `json:"projected"`
	NativeSize  Size             `json:"native_size"`
	DisplaySize Size             `json:"display_size"`
	// Scale is the factor applied to native coordinates.
	Scale float64 `json:"scale"`
}

type AnswerResult struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

type TranscriptResult struct {
	Text string `json:"text"`
}

type TranslationResult struct {
	Text string `json:"text"`
}

// AudioTrack is one audio clip returned by a speech or audio model.
type AudioTrack struct {
	Label    string `json:"label,omitempty"`
	Bytes    []byte `json:"-"`
	MimeType string `json:"mime_type"`
}

type AudioResult struct {
	Tracks []AudioTrack `json:"tracks"`
}

func (ImageResult) ResultKind() string       { return "image" }
func (DetectionResult) ResultKind() string   { return "detection" }
func (AnswerResult) ResultKind() string      { return "answer" }
func (TranscriptResult) ResultKind() string  { return "transcript" }
func (TranslationResult) ResultKind() string { return "translation" }
func (AudioResult) ResultKind() string       { return "audio" }

func (ImageResult) sealedResult()       {}
func (DetectionResult) sealedResult()   {}
func (AnswerResult) sealedResult()      {}
func (TranscriptResult) sealedResult()  {}
func (TranslationResult) sealedResult() {}
func (AudioResult) sealedResult()       {}

// Outcome labels used for metrics and run history.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// RunRecord describes one finished gateway run. Media bytes are never
// part of it.
type RunRecord struct {
	ID        string        `json:"id"`
	Session   string        `json:"session,omitempty"`
	Seq       uint64        `json:"seq,omitempty"`
	Task      TaskKind      `json:"task"`
	Model     string        `json:"model"`
	Outcome   string        `json:"outcome"`
	ErrorKind ErrorKind     `json:"error_kind,omitempty"`
	Message   string        `json:"message,omitempty"`
	Attempts  int           `json:"attempts"`
	Duration  time.Duration `json:"duration"`
	StartedAt time.Time     `json:"started_at"`
}
