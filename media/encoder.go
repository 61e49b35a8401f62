package media

import (
	"fmt"
	"io"
	"mime"
	"strings"

	"inference-gateway/models"

	"github.com/apex/log"
	"github.com/gabriel-vasile/mimetype"
)

const (
	DefaultImageType = "image/png"
	DefaultAudioType = "audio/wav"

	octetStream = "application/octet-stream"
)

// Encoder reads caller media into provider-ready blobs.
type Encoder struct {
	maxBytes int64
}

// NewEncoder creates an encoder that rejects files larger than maxBytes.
func NewEncoder(maxBytes int64) *Encoder {
	return &Encoder{maxBytes: maxBytes}
}

// Encode reads the whole file behind fh and resolves its MIME type. The
// declared type wins when present, then content sniffing, then the
// default for the expected kind.
func (e *Encoder) Encode(fh models.FileHandle, kind models.MediaKind) (models.MediaBlob, error) {
	if fh == nil {
		return models.MediaBlob{}, models.NewEncodingError("no file given", nil)
	}

	declared, err := declaredType(fh.DeclaredType(), kind)
	if err != nil {
		return models.MediaBlob{}, err
	}

	rc, err := fh.Open()
	if err != nil {
		return models.MediaBlob{}, models.NewEncodingError(fmt.Sprintf("failed to open %s", fh.Name()), err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, e.maxBytes+1))
	if err != nil {
		return models.MediaBlob{}, models.NewEncodingError(fmt.Sprintf("failed to read %s", fh.Name()), err)
	}
	if len(data) == 0 {
		return models.MediaBlob{}, models.NewEncodingError(fmt.Sprintf("%s is empty", fh.Name()), nil)
	}
	if int64(len(data)) > e.maxBytes {
		return models.MediaBlob{}, models.NewEncodingError(fmt.Sprintf("%s exceeds the %d byte limit", fh.Name(), e.maxBytes), nil)
	}

	mimeType := declared
	if mimeType == "" {
		mimeType = sniff(data, kind)
	}
	if mimeType == "" {
		mimeType = defaultType(kind)
		log.Debugf("Could not determine type of %s, using %s", fh.Name(), mimeType)
	}

	return models.MediaBlob{Bytes: data, MimeType: mimeType}, nil
}

// declaredType normalizes a caller declared content type. An empty or
// generic type counts as undeclared.
func declaredType(raw string, kind models.MediaKind) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return "", models.NewEncodingError(fmt.Sprintf("malformed content type %q", raw), err)
	}
	if mediaType == octetStream {
		return "", nil
	}
	if !matchesKind(mediaType, kind) {
		return "", models.NewEncodingError(fmt.Sprintf("content type %s is not %s media", mediaType, kind), nil)
	}
	return mediaType, nil
}

func sniff(data []byte, kind models.MediaKind) string {
	detected := mimetype.Detect(data).String()
	// Audio-only recordings in a webm or ogg container sniff as video or
	// application types.
	if kind == models.MediaAudio {
		switch detected {
		case "video/webm":
			detected = "audio/webm"
		case "application/ogg":
			detected = "audio/ogg"
		}
	}
	if mediaType, _, err := mime.ParseMediaType(detected); err == nil && matchesKind(mediaType, kind) {
		return mediaType
	}
	return ""
}

func matchesKind(mediaType string, kind models.MediaKind) bool {
	return strings.HasPrefix(mediaType, string(kind)+"/")
}

func defaultType(kind models.MediaKind) string {
	if kind == models.MediaAudio {
		return DefaultAudioType
	}
	return DefaultImageType
}
