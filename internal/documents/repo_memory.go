package documents

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu      sync.RWMutex
	docs    map[string][]Document // userId -> documents
	records map[string]ExtractedRecord
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		docs:    make(map[string][]Document),
		records: make(map[string]ExtractedRecord),
	}
}

// Create stores a new document for a user.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.UserID] = append(r.docs[doc.UserID], doc)
	return nil
}

// Get returns a document by ID for a user.
func (r *MemoryRepo) Get(ctx context.Context, userID, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.indexOf(userID, documentID)
	if i < 0 {
		return Document{}, ErrNotFound
	}
	return r.docs[userID][i], nil
}

func (r *MemoryRepo) indexOf(userID, documentID string) int {
	for i, doc := range r.docs[userID] {
		if doc.ID == documentID {
			return i
		}
	}
	return -1
}

// List returns documents for a user, newest first, honoring limit/offset.
func (r *MemoryRepo) List(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 20
	}

	r.mu.RLock()
	docs := append([]Document(nil), r.docs[userID]...)
	r.mu.RUnlock()

	if offset >= len(docs) {
		return []Document{}, nil
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].UploadedAt.Equal(docs[j].UploadedAt) {
			return docs[i].ID > docs[j].ID
		}
		return docs[i].UploadedAt.After(docs[j].UploadedAt)
	})
	end := len(docs)
	if offset+limit < end {
		end = offset + limit
	}
	return docs[offset:end], nil
}

// MarkFailed records a processing failure.
func (r *MemoryRepo) MarkFailed(ctx context.Context, userID, documentID, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(userID, documentID)
	if i < 0 {
		return ErrNotFound
	}
	r.docs[userID][i].Status = StatusFailed
	r.docs[userID][i].Error = &reason
	return nil
}

// SaveRecord stores rec and marks its document processed.
func (r *MemoryRepo) SaveRecord(ctx context.Context, rec ExtractedRecord, processedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(rec.UserID, rec.DocumentID)
	if i < 0 {
		return ErrNotFound
	}
	if rec.MissingCritical == nil {
		rec.MissingCritical = []string{}
	}
	r.records[rec.DocumentID] = rec
	doc := &r.docs[rec.UserID][i]
	doc.Status = StatusProcessed
	doc.Error = nil
	doc.ProcessedAt = &processedAt
	return nil
}

// GetRecord returns the extracted record of a document.
func (r *MemoryRepo) GetRecord(ctx context.Context, userID, documentID string) (ExtractedRecord, error) {
	if err := ctx.Err(); err != nil {
		return ExtractedRecord{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[documentID]
	if !ok || rec.UserID != userID {
		return ExtractedRecord{}, ErrNotFound
	}
	return rec, nil
}

// Delete removes a document and its record.
func (r *MemoryRepo) Delete(ctx context.Context, userID, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(userID, documentID)
	if i < 0 {
		return ErrNotFound
	}
	docs := r.docs[userID]
	r.docs[userID] = append(docs[:i:i], docs[i+1:]...)
	delete(r.records, documentID)
	return nil
}

// ListProcessed returns processed documents with their records, oldest upload first.
func (r *MemoryRepo) ListProcessed(ctx context.Context, userID string) ([]Replay, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []Replay{}
	for _, doc := range r.docs[userID] {
		if doc.Status != StatusProcessed {
			continue
		}
		rec, ok := r.records[doc.ID]
		if !ok {
			continue
		}
		out = append(out, Replay{Document: doc, Record: rec})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Document, out[j].Document
		if a.UploadedAt.Equal(b.UploadedAt) {
			return a.ID < b.ID
		}
		return a.UploadedAt.Before(b.UploadedAt)
	})
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
