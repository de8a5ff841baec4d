package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"filing-backend/internal/canonical"
	"filing-backend/internal/documents"
	"filing-backend/internal/extract"
	"filing-backend/internal/fields"
	"filing-backend/internal/llm"
	"filing-backend/internal/shared/apperr"
	"filing-backend/internal/shared/metrics"
	"filing-backend/internal/shared/telemetry"
	"filing-backend/internal/usage"
)

// PartialWarning is reported when the record was stored but some canonical
// categories could not be written.
const PartialWarning = "some fields may not have been applied"

// TextExtractor turns uploaded bytes into text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, kind extract.Kind, progress extract.Progress) (extract.Result, error)
}

// Input is one upload handed to Process.
type Input struct {
	UserID       string
	DocType      fields.DocType
	FileName     string
	MimeType     string
	Data         []byte
	SpouseNumber int
	Progress     extract.Progress
}

// Result is what the upload collaborator receives.
type Result struct {
	Success         bool                       `json:"success"`
	DocumentID      string                     `json:"documentId,omitempty"`
	ExtractedData   fields.Map                 `json:"extractedData"`
	RawText         string                     `json:"rawText"`
	Error           string                     `json:"error,omitempty"`
	Warning         string                     `json:"warning,omitempty"`
	MissingCritical []string                   `json:"missingCritical"`
	NeedsReview     bool                       `json:"needsReview"`
	Method          documents.Method           `json:"method,omitempty"`
	Normalization   *canonical.MigrationReport `json:"normalization,omitempty"`
}

// Pipeline runs extraction, persistence and normalization for uploads.
type Pipeline struct {
	Docs   *documents.Service
	Text   TextExtractor
	LLM    *llm.Extractor
	Mode   Mode
	Engine *canonical.Engine
	Usage  *usage.Service
	Now    func() time.Time
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func failure(docID string, err error) (Result, error) {
	return Result{
		Success:         false,
		DocumentID:      docID,
		ExtractedData:   fields.Map{},
		MissingCritical: []string{},
		Error:           err.Error(),
	}, err
}

func validate(in Input) (extract.Kind, error) {
	if in.UserID == "" {
		return "", apperr.Input("pipeline.validate", errors.New("user id required"))
	}
	if !in.DocType.Valid() {
		return "", apperr.Input("pipeline.validate", fmt.Errorf("%w: %q", fields.ErrUnknownDocType, in.DocType))
	}
	if in.SpouseNumber < 0 || in.SpouseNumber > 2 {
		return "", apperr.Input("pipeline.validate", fmt.Errorf("spouse number %d out of range", in.SpouseNumber))
	}
	if len(in.Data) == 0 {
		return "", apperr.Input("pipeline.validate", extract.ErrEmpty)
	}
	return extract.KindFor(in.MimeType, in.FileName)
}

// Process stores, extracts and normalizes one uploaded document. Extraction
// failures are terminal for the document and no record is written. A
// normalization failure never undoes the stored record; it is reported as a
// warning on an otherwise successful result.
func (p *Pipeline) Process(ctx context.Context, in Input) (Result, error) {
	start := p.now()
	kind, err := validate(in)
	if err != nil {
		return failure("", err)
	}
	logFields := map[string]any{
		"user_id":  in.UserID,
		"doc_type": string(in.DocType),
		"kind":     string(kind),
		"bytes":    len(in.Data),
	}
	telemetry.Info("pipeline.process.start", logFields)

	doc, err := p.Docs.Upload(ctx, in.UserID, in.DocType, in.FileName, in.MimeType, in.Data)
	if err != nil {
		if errors.Is(err, documents.ErrInvalidInput) {
			return failure("", apperr.Input("pipeline.upload", err))
		}
		return failure("", apperr.Persistence("pipeline.upload", err))
	}
	logFields["document_id"] = doc.ID

	text, err := p.Text.Extract(ctx, in.Data, kind, in.Progress)
	if err != nil {
		p.markFailed(ctx, doc, err)
		logFields["error"] = err.Error()
		telemetry.Warn("pipeline.process.extract_failed", logFields)
		return failure(doc.ID, err)
	}
	logFields["text_method"] = text.Method

	session := p.session(in.UserID, doc.ID)
	defer func() {
		if session == nil {
			return
		}
		if cerr := session.Close(context.WithoutCancel(ctx)); cerr != nil {
			telemetry.Warn("pipeline.usage.close_failed", map[string]any{"document_id": doc.ID, "error": cerr.Error()})
		}
	}()

	m, method := p.extractFields(ctx, in.DocType, text.Text, session)
	if in.SpouseNumber == 2 {
		m["spouseNumber"] = 2
	}
	missing := fields.MissingCritical(in.DocType, m)
	if missing == nil {
		missing = []string{}
	}

	rec := documents.ExtractedRecord{
		DocumentID:      doc.ID,
		UserID:          in.UserID,
		DocType:         in.DocType,
		Fields:          m,
		RawText:         text.Text,
		Method:          method,
		MissingCritical: missing,
		NeedsReview:     len(missing) > 0,
	}
	if err := p.Docs.SaveRecord(ctx, rec); err != nil {
		perr := apperr.Persistence("pipeline.save_record", err)
		p.markFailed(ctx, doc, perr)
		return failure(doc.ID, perr)
	}
	metrics.IncDocumentProcessed()

	res := Result{
		Success:         true,
		DocumentID:      doc.ID,
		ExtractedData:   m,
		RawText:         text.Text,
		MissingCritical: missing,
		NeedsReview:     rec.NeedsReview,
		Method:          method,
	}

	report, err := p.Engine.Migrate(ctx, in.UserID, in.DocType, m)
	switch {
	case err != nil:
		report.Failed = append(report.Failed, canonical.CategoryFailure{Category: "all", Error: err.Error()})
		fallthrough
	case report.Partial():
		metrics.IncNormalizationPartial()
		res.Warning = PartialWarning
		logFields["failed_categories"] = len(report.Failed)
	}
	res.Normalization = &report

	elapsed := p.now().Sub(start)
	metrics.ObserveProcessingDurationMs(float64(elapsed.Milliseconds()))
	logFields["method"] = string(method)
	logFields["missing_critical"] = len(missing)
	logFields["duration_ms"] = elapsed.Milliseconds()
	telemetry.Info("pipeline.process.ok", logFields)
	return res, nil
}

func (p *Pipeline) session(userID, documentID string) *usage.Session {
	if p.Usage == nil {
		return nil
	}
	s := p.Usage.Begin(userID)
	s.SetDocument(documentID)
	return s
}

func (p *Pipeline) markFailed(ctx context.Context, doc documents.Document, cause error) {
	metrics.IncDocumentFailed()
	if err := p.Docs.MarkFailed(context.WithoutCancel(ctx), doc, cause.Error()); err != nil {
		telemetry.Error("pipeline.mark_failed", map[string]any{
			"document_id": doc.ID,
			"error":       err.Error(),
		})
	}
}

func (p *Pipeline) llmUsable(t fields.DocType) bool {
	return p.Mode != ModeOff && p.LLM.Enabled() && llm.Supported(t)
}

// extractFields produces the candidate map according to the configured mode.
// Model errors never fail the upload; the regex result is used instead.
func (p *Pipeline) extractFields(ctx context.Context, t fields.DocType, text string, session *usage.Session) (fields.Map, documents.Method) {
	var rec llm.Recorder
	if session != nil {
		rec = session
	}
	if !p.llmUsable(t) {
		return fields.Parse(text, t), documents.MethodRegex
	}

	switch p.Mode {
	case ModePrefer:
		lm, err := p.LLM.Extract(ctx, t, text, rec)
		regex := fields.Parse(text, t)
		if err != nil {
			p.logFallback(t, err)
			return regex, documents.MethodRegex
		}
		if fills(lm, regex) {
			return fields.Overlay(lm, regex), documents.MethodLLMAndRegex
		}
		return lm, documents.MethodLLM
	case ModeAssist:
		regex := fields.Parse(text, t)
		if len(fields.MissingCritical(t, regex)) == 0 {
			return regex, documents.MethodRegex
		}
		lm, err := p.LLM.Extract(ctx, t, text, rec)
		if err != nil {
			p.logFallback(t, err)
			return regex, documents.MethodRegex
		}
		return fields.Overlay(regex, lm), documents.MethodLLMAndRegex
	}
	return fields.Parse(text, t), documents.MethodRegex
}

func (p *Pipeline) logFallback(t fields.DocType, err error) {
	telemetry.Warn("pipeline.llm.fallback", map[string]any{
		"doc_type": string(t),
		"mode":     string(p.Mode),
		"error":    err.Error(),
	})
}

// fills reports whether extra supplies a value for a field that base leaves empty.
func fills(base, extra fields.Map) bool {
	overlaid := fields.Overlay(base, extra)
	for k, v := range overlaid {
		if k == "rawText" || v == nil || v == "" {
			continue
		}
		if prev, ok := base[k]; !ok || prev == nil || prev == "" {
			return true
		}
	}
	return false
}

// Delete removes a document with its record and rebuilds the user's canonical profile.
func (p *Pipeline) Delete(ctx context.Context, userID, documentID string) (canonical.ReaggregationReport, error) {
	if _, err := p.Docs.Delete(ctx, userID, documentID); err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			return canonical.ReaggregationReport{}, err
		}
		return canonical.ReaggregationReport{}, apperr.Persistence("pipeline.delete", err)
	}
	telemetry.Info("pipeline.delete.ok", map[string]any{"user_id": userID, "document_id": documentID})
	return p.Engine.Reaggregate(ctx, userID)
}

// Replace processes the new upload first, then deletes the old document and
// rebuilds the profile. A failed upload leaves the old document untouched.
func (p *Pipeline) Replace(ctx context.Context, userID, documentID string, in Input) (Result, error) {
	if _, err := p.Docs.Repo.Get(ctx, userID, documentID); err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			return failure(documentID, err)
		}
		return failure(documentID, apperr.Persistence("pipeline.replace", err))
	}
	in.UserID = userID
	res, err := p.Process(ctx, in)
	if err != nil {
		return res, err
	}
	if _, err := p.Delete(ctx, userID, documentID); err != nil {
		telemetry.Error("pipeline.replace.cleanup_failed", map[string]any{
			"user_id":      userID,
			"document_id":  documentID,
			"new_document": res.DocumentID,
			"error":        err.Error(),
		})
		return res, err
	}
	return res, nil
}

// Reaggregate rebuilds the user's canonical profile from the surviving records.
func (p *Pipeline) Reaggregate(ctx context.Context, userID string) (canonical.ReaggregationReport, error) {
	return p.Engine.Reaggregate(ctx, userID)
}
