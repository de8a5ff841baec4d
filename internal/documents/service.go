package documents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"filing-backend/internal/canonical"
	"filing-backend/internal/fields"
	"filing-backend/internal/shared/storage/object"
	"filing-backend/internal/shared/telemetry"
	"filing-backend/internal/shared/util"
)

// Service contains business logic for documents and their extracted records.
type Service struct {
	Store object.ObjectStore
	Repo  Repo
	Now   func() time.Time
}

// NewService constructs a Service.
func NewService(store object.ObjectStore, repo Repo) *Service {
	return &Service{Store: store, Repo: repo, Now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now()
}

// Upload saves the original bytes and records a PENDING document.
func (s *Service) Upload(ctx context.Context, userID string, docType fields.DocType, fileName, mimeType string, data []byte) (Document, error) {
	if userID == "" {
		return Document{}, fmt.Errorf("%w: user id required", ErrInvalidInput)
	}
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	doc := Document{
		ID:         uuid.NewString(),
		UserID:     userID,
		DocType:    docType,
		FileName:   name,
		MimeType:   mimeType,
		SizeBytes:  int64(len(data)),
		Status:     StatusPending,
		UploadedAt: s.now(),
	}
	hash := util.HashContent(data)
	doc.ContentHash = &hash

	if s.Store != nil {
		key, err := object.DocumentKey(userID, doc.ID, name)
		if err != nil {
			return Document{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		obj, err := s.Store.Put(ctx, key, data, mimeType)
		if err != nil {
			return Document{}, fmt.Errorf("store original: %w", err)
		}
		doc.StorageKey = &obj.Key
		doc.SizeBytes = obj.Size
		if doc.MimeType == "" {
			doc.MimeType = obj.ContentType
		}
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		s.removeObject(ctx, doc)
		return Document{}, fmt.Errorf("create document: %w", err)
	}
	return doc, nil
}

// Get returns a document and, when processed, its extracted record.
func (s *Service) Get(ctx context.Context, userID, documentID string) (Document, *ExtractedRecord, error) {
	doc, err := s.Repo.Get(ctx, userID, documentID)
	if err != nil {
		return Document{}, nil, err
	}
	rec, err := s.Repo.GetRecord(ctx, userID, documentID)
	switch {
	case errors.Is(err, ErrNotFound):
		return doc, nil, nil
	case err != nil:
		return Document{}, nil, err
	}
	return doc, &rec, nil
}

// Original returns the stored bytes of an uploaded document.
func (s *Service) Original(ctx context.Context, userID, documentID string) (Document, []byte, error) {
	doc, err := s.Repo.Get(ctx, userID, documentID)
	if err != nil {
		return Document{}, nil, err
	}
	if s.Store == nil || doc.StorageKey == nil {
		return doc, nil, ErrNotFound
	}
	data, err := s.Store.Get(ctx, *doc.StorageKey)
	if errors.Is(err, object.ErrNotFound) {
		return doc, nil, ErrNotFound
	}
	if err != nil {
		return Document{}, nil, fmt.Errorf("read original: %w", err)
	}
	return doc, data, nil
}

// List returns a page of the user's documents, newest first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id required", ErrInvalidInput)
	}
	return s.Repo.List(ctx, userID, limit, offset)
}

// MarkFailed records why processing stopped.
func (s *Service) MarkFailed(ctx context.Context, doc Document, reason string) error {
	return s.Repo.MarkFailed(ctx, doc.UserID, doc.ID, reason)
}

// SaveRecord persists the extracted record and marks its document processed.
func (s *Service) SaveRecord(ctx context.Context, rec ExtractedRecord) error {
	now := s.now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	return s.Repo.SaveRecord(ctx, rec, now)
}

// Delete removes the document, its record and the stored original.
func (s *Service) Delete(ctx context.Context, userID, documentID string) (Document, error) {
	doc, err := s.Repo.Get(ctx, userID, documentID)
	if err != nil {
		return Document{}, err
	}
	if err := s.Repo.Delete(ctx, userID, documentID); err != nil {
		return Document{}, err
	}
	s.removeObject(ctx, doc)
	return doc, nil
}

func (s *Service) removeObject(ctx context.Context, doc Document) {
	if s.Store == nil || doc.StorageKey == nil {
		return
	}
	if err := s.Store.Delete(ctx, *doc.StorageKey); err != nil {
		telemetry.Warn("documents.object.delete_failed", map[string]any{
			"document_id": doc.ID,
			"user_id":     doc.UserID,
			"error":       err.Error(),
		})
	}
}

// ReplayRecords lists the surviving processed records oldest first.
func (s *Service) ReplayRecords(ctx context.Context, userID string) ([]canonical.SourceRecord, error) {
	replays, err := s.Repo.ListProcessed(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]canonical.SourceRecord, 0, len(replays))
	for _, r := range replays {
		out = append(out, canonical.SourceRecord{
			DocumentID: r.Document.ID,
			DocType:    r.Record.DocType,
			Fields:     r.Record.Fields,
		})
	}
	return out, nil
}

var _ canonical.RecordSource = (*Service)(nil)
