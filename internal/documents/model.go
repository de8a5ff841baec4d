package documents

import (
	"time"

	"filing-backend/internal/fields"
)

// Status is the processing state of a document.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusProcessed Status = "PROCESSED"
	StatusFailed    Status = "FAILED"
)

// Method records how an extracted record's fields were produced.
type Method string

const (
	MethodRegex       Method = "regex"
	MethodLLM         Method = "llm"
	MethodLLMAndRegex Method = "llm+regex"
)

// Document represents an uploaded document owned by a user.
type Document struct {
	ID          string         `db:"id"`
	UserID      string         `db:"user_id"`
	DocType     fields.DocType `db:"doc_type"`
	FileName    string         `db:"file_name"`
	MimeType    string         `db:"mime_type"`
	SizeBytes   int64          `db:"size_bytes"`
	StorageKey  *string        `db:"storage_key"`
	ContentHash *string        `db:"content_hash"`
	Status      Status         `db:"status"`
	Error       *string        `db:"error"`
	UploadedAt  time.Time      `db:"uploaded_at"`
	ProcessedAt *time.Time     `db:"processed_at"`
}

// ExtractedRecord is the candidate field map stored for a processed document.
// It is written before normalization and removed only with its document.
type ExtractedRecord struct {
	DocumentID      string
	UserID          string
	DocType         fields.DocType
	Fields          fields.Map
	RawText         string
	Method          Method
	MissingCritical []string
	NeedsReview     bool
	CreatedAt       time.Time
}

// Replay pairs a processed document with its record for re-aggregation.
type Replay struct {
	Document Document
	Record   ExtractedRecord
}
