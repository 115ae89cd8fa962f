package models

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/tamperscan/internal/common"
)

// Verdicts reported by the backend.
const (
	VerdictOriginal = "Original"
	VerdictTampered = "Tampered"
)

// Document is a validated file ready to be sent for analysis.
type Document struct {
	Name        string
	ContentType string
	Data        []byte
	// Password unlocks protected PDFs. Optional.
	Password string
}

// IsPDF reports whether the document can carry a password.
func (d Document) IsPDF() bool {
	return d.ContentType == "application/pdf"
}

// DetectionResult is the response of the upload endpoint.
type DetectionResult struct {
	Status     string         `json:"status"`
	Confidence float64        `json:"confidence"`
	FileName   string         `json:"file_name,omitempty"`
	Timestamp  string         `json:"timestamp,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
}

// IsOriginal reports whether the backend considered the document authentic.
func (r DetectionResult) IsOriginal() bool {
	return strings.EqualFold(r.Status, VerdictOriginal)
}

// DetectionRecord is one entry of the detection history. Older backends send
// the stored file as "image", newer ones as an absolute "image_url".
type DetectionRecord struct {
	ID         int64     `json:"id"`
	Result     string    `json:"result"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
	Image      string    `json:"image,omitempty"`
	ImageURL   string    `json:"image_url,omitempty"`
}

// IsOriginal reports whether the record is an "Original" verdict.
func (r DetectionRecord) IsOriginal() bool {
	return r.Result == VerdictOriginal
}

// FileName is the last path segment of the stored image.
func (r DetectionRecord) FileName() string {
	if r.Image != "" {
		return common.BaseName(r.Image)
	}
	return common.BaseName(r.ImageURL)
}
