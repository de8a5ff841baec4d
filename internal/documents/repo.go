package documents

import (
	"context"
	"time"
)

// Repo defines persistence operations for documents and their extracted records.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	Get(ctx context.Context, userID, documentID string) (Document, error)
	List(ctx context.Context, userID string, limit, offset int) ([]Document, error)
	MarkFailed(ctx context.Context, userID, documentID, reason string) error
	// SaveRecord stores rec and marks its document PROCESSED in one step.
	SaveRecord(ctx context.Context, rec ExtractedRecord, processedAt time.Time) error
	GetRecord(ctx context.Context, userID, documentID string) (ExtractedRecord, error)
	// Delete removes the document and, with it, its record.
	Delete(ctx context.Context, userID, documentID string) error
	// ListProcessed returns processed documents with records, oldest upload first.
	ListProcessed(ctx context.Context, userID string) ([]Replay, error)
}
