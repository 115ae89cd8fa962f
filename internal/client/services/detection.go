package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/tamperscan/internal/client/models"
	"github.com/dmitrijs2005/tamperscan/internal/client/upload"
)

// DetectionAPI is the part of the backend client used for detections.
type DetectionAPI interface {
	Upload(ctx context.Context, doc models.Document) (models.DetectionResult, error)
	History(ctx context.Context) ([]models.DetectionRecord, error)
}

// DetectionService runs tamper checks and lists past ones.
//
// A check is two steps so a password can be asked for in between, and only
// when the document is a PDF.
type DetectionService interface {
	// Prepare validates the file at path without contacting the server.
	// Validation failures are returned as *upload.ValidationError.
	Prepare(path string) (models.Document, error)
	// Submit sends a prepared document for analysis.
	Submit(ctx context.Context, doc models.Document) (models.DetectionResult, error)
	History(ctx context.Context) ([]models.DetectionRecord, error)
}

type detectionService struct {
	api  DetectionAPI
	load func(path string) (models.Document, error)
}

func NewDetectionService(api DetectionAPI) DetectionService {
	return &detectionService{api: api, load: upload.Load}
}

func (d *detectionService) Prepare(path string) (models.Document, error) {
	return d.load(path)
}

func (d *detectionService) Submit(ctx context.Context, doc models.Document) (models.DetectionResult, error) {
	if !doc.IsPDF() {
		doc.Password = ""
	}
	res, err := d.api.Upload(ctx, doc)
	if err != nil {
		return models.DetectionResult{}, fmt.Errorf("upload %s: %w", doc.Name, err)
	}
	return res, nil
}

func (d *detectionService) History(ctx context.Context) ([]models.DetectionRecord, error) {
	records, err := d.api.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return records, nil
}
