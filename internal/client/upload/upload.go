// Package upload validates a local document before it is sent for analysis.
package upload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/tamperscan/internal/client/models"
	"github.com/dmitrijs2005/tamperscan/internal/common"
	"github.com/gabriel-vasile/mimetype"
)

const (
	MsgUnsupportedType = "Please upload a JPEG, PNG, or PDF file"
	MsgTooLarge        = "File size must be less than 5MB"
)

// Allowed lists the accepted content types.
var Allowed = []string{"image/jpeg", "image/png", "application/pdf"}

// ValidationError is a document rejected before any network call.
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Load reads the document at path and checks its type, then its size.
// The type is sniffed from the content, not taken from the extension.
// The returned document has no password; callers set one for PDFs.
func Load(path string) (models.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return models.Document{}, fmt.Errorf("stat document: %w", err)
	}
	if fi.IsDir() {
		return models.Document{}, fmt.Errorf("open document: %s is a directory", path)
	}

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return models.Document{}, fmt.Errorf("detect document type: %w", err)
	}
	contentType, ok := allowed(mt)
	if !ok {
		return models.Document{}, &ValidationError{Path: path, Message: MsgUnsupportedType}
	}

	if fi.Size() > common.MaxUploadSize {
		return models.Document{}, &ValidationError{Path: path, Message: MsgTooLarge}
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return models.Document{}, fmt.Errorf("read document: %w", err)
	}
	data, err := io.ReadAll(io.LimitReader(f, common.MaxUploadSize+1))
	if err != nil {
		return models.Document{}, fmt.Errorf("read document: %w", err)
	}
	// the file grew after Stat
	if len(data) > common.MaxUploadSize {
		return models.Document{}, &ValidationError{Path: path, Message: MsgTooLarge}
	}

	return models.Document{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Data:        data,
	}, nil
}

func allowed(mt *mimetype.MIME) (string, bool) {
	for _, ct := range Allowed {
		if mt.Is(ct) {
			return ct, true
		}
	}
	return "", false
}
