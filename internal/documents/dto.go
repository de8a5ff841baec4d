package documents

import (
	"time"

	"filing-backend/internal/fields"
)

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	DocumentID   string         `json:"documentId"`
	DocumentType fields.DocType `json:"documentType"`
	FileName     string         `json:"fileName"`
	MimeType     string         `json:"mimeType"`
	SizeBytes    int64          `json:"sizeBytes"`
	Status       Status         `json:"status"`
	Error        *string        `json:"error,omitempty"`
	UploadedAt   time.Time      `json:"uploadedAt"`
	ProcessedAt  *time.Time     `json:"processedAt,omitempty"`
}

// RecordResponse is the outward-facing representation of an extracted record.
type RecordResponse struct {
	Fields          fields.Map `json:"extractedData"`
	Method          Method     `json:"method"`
	MissingCritical []string   `json:"missingCritical"`
	NeedsReview     bool       `json:"needsReview"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// DetailResponse pairs a document with its record, if any.
type DetailResponse struct {
	DocumentResponse
	Record *RecordResponse `json:"record,omitempty"`
}

// ToResponse converts a Document.
func ToResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		DocumentID:   doc.ID,
		DocumentType: doc.DocType,
		FileName:     doc.FileName,
		MimeType:     doc.MimeType,
		SizeBytes:    doc.SizeBytes,
		Status:       doc.Status,
		Error:        doc.Error,
		UploadedAt:   doc.UploadedAt,
		ProcessedAt:  doc.ProcessedAt,
	}
}

func toDetail(doc Document, rec *ExtractedRecord) DetailResponse {
	out := DetailResponse{DocumentResponse: ToResponse(doc)}
	if rec != nil {
		missing := rec.MissingCritical
		if missing == nil {
			missing = []string{}
		}
		out.Record = &RecordResponse{
			Fields:          rec.Fields,
			Method:          rec.Method,
			MissingCritical: missing,
			NeedsReview:     rec.NeedsReview,
			CreatedAt:       rec.CreatedAt,
		}
	}
	return out
}
