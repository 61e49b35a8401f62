package media

import (
	"bytes"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// UploadFile wraps a multipart upload received by a handler.
type UploadFile struct {
	Header *multipart.FileHeader
}

func (f UploadFile) Name() string {
	return f.Header.Filename
}

func (f UploadFile) DeclaredType() string {
	return f.Header.Header.Get("Content-Type")
}

func (f UploadFile) Open() (io.ReadCloser, error) {
	return f.Header.Open()
}

// PathFile is a file on local disk with an optional declared type.
type PathFile struct {
	Path string
	Type string
}

func (f PathFile) Name() string {
	return filepath.Base(f.Path)
}

func (f PathFile) DeclaredType() string {
	return f.Type
}

func (f PathFile) Open() (io.ReadCloser, error) {
	return os.Open(f.Path)
}

// BytesFile is in-memory media.
type BytesFile struct {
	Filename string
	Type     string
	Data     []byte
}

func (f BytesFile) Name() string {
	return f.Filename
}

func (f BytesFile) DeclaredType() string {
	return f.Type
}

func (f BytesFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.Data)), nil
}
