package models

import "io"

// MediaKind is the family of media a task expects.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaAudio MediaKind = "audio"
)

// FileHandle is a read-only handle on caller supplied media.
type FileHandle interface {
	// Name is the original file name, used for logging only.
	Name() string
	// DeclaredType is the content type the caller declared, or "" when
	// none was given.
	DeclaredType() string
	Open() (io.ReadCloser, error)
}

// MediaBlob is an encoded media payload built for exactly one provider
// request.
type MediaBlob struct {
	Bytes    []byte
	MimeType string
}

// Size is a width and height in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s Size) IsZero() bool {
	return s.Width == 0 && s.Height == 0
}
