package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"filing-backend/internal/shared/apperr"
	"filing-backend/internal/shared/cache"
	"filing-backend/internal/shared/telemetry"
	"filing-backend/internal/shared/util"
)

// Kind is the media family of an upload.
type Kind string

const (
	KindPDF   Kind = "pdf"
	KindImage Kind = "image"
)

// Methods reported in Result.Method.
const (
	MethodPDFText  = "pdf-text"
	MethodPDFOCR   = "pdf-ocr"
	MethodImageOCR = "image-ocr"
)

// DefaultMinTextChars is the text-layer length below which a PDF is treated as scan-only.
const DefaultMinTextChars = 10

var (
	ErrNoText = errors.New("no text could be extracted")
	ErrNoOCR  = errors.New("ocr engine not configured")
	ErrEmpty  = errors.New("empty file")
)

// Progress receives completion in [0,1]. A nil Progress is ignored.
type Progress func(fraction float64)

func (p Progress) report(v float64) {
	if p == nil {
		return
	}
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	p(v)
}

// scaled maps the [0,1] range of a sub-step onto [from,to] of p.
func (p Progress) scaled(from, to float64) Progress {
	if p == nil {
		return nil
	}
	return func(v float64) { p.report(from + (to-from)*v) }
}

// Result is the outcome of one extraction.
type Result struct {
	Success bool   `json:"success"`
	Text    string `json:"text"`
	Error   string `json:"error,omitempty"`
	Method  string `json:"method,omitempty"`
	Pages   int    `json:"pages,omitempty"`
}

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
	".gif":  true,
	".webp": true,
}

// KindFor maps a media type, falling back to the file extension for generic types.
func KindFor(mimeType, fileName string) (Kind, error) {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	switch {
	case clean == "application/pdf":
		return KindPDF, nil
	case strings.HasPrefix(clean, "image/"):
		return KindImage, nil
	case clean == "" || clean == "application/octet-stream":
		ext := strings.ToLower(filepath.Ext(fileName))
		if ext == ".pdf" {
			return KindPDF, nil
		}
		if imageExts[ext] {
			return KindImage, nil
		}
	}
	return "", apperr.Input("extract.kind", fmt.Errorf("unsupported media type %q (%s)", mimeType, fileName))
}

// Extractor turns PDF and image bytes into plain text.
type Extractor struct {
	OCR          OCR
	Cache        cache.Cache
	CacheTTL     time.Duration
	MinTextChars int
}

func (e *Extractor) minTextChars() int {
	if e.MinTextChars > 0 {
		return e.MinTextChars
	}
	return DefaultMinTextChars
}

// Extract reads the text of data. On failure the returned Result carries
// Success=false and the error message alongside the returned error.
func (e *Extractor) Extract(ctx context.Context, data []byte, kind Kind, progress Progress) (Result, error) {
	if err := ctx.Err(); err != nil {
		return failed(err)
	}
	if len(data) == 0 {
		return failed(apperr.Input("extract", ErrEmpty))
	}

	key := cache.Key("extract", util.HashContent(data), string(kind))
	if res, ok := e.cached(ctx, key); ok {
		progress.report(1)
		return res, nil
	}

	var (
		res Result
		err error
	)
	switch kind {
	case KindPDF:
		res, err = e.extractPDF(ctx, data, progress)
	case KindImage:
		res, err = e.extractImage(ctx, data, progress)
	default:
		err = apperr.Input("extract", fmt.Errorf("unsupported media kind %q", kind))
	}
	if err != nil {
		return failed(err)
	}

	res.Text = Normalize(res.Text)
	if strings.TrimSpace(res.Text) == "" {
		return failed(apperr.Input("extract", ErrNoText))
	}
	res.Success = true
	progress.report(1)
	e.store(ctx, key, res)
	return res, nil
}

func failed(err error) (Result, error) {
	return Result{Success: false, Error: err.Error()}, err
}

func (e *Extractor) extractPDF(ctx context.Context, data []byte, progress Progress) (Result, error) {
	info, probeErr := probePDF(data)
	if probeErr != nil {
		telemetry.Warn("extract.pdf.probe_failed", map[string]any{"err": probeErr})
	}

	text, pages, err := readTextLayer(data, progress.scaled(0, 0.3))
	if err != nil {
		telemetry.Warn("extract.pdf.text_layer_failed", map[string]any{"err": err})
		text = ""
	}
	if pages == 0 {
		pages = info.Pages
	}

	chars := utf8.RuneCountInString(strings.TrimSpace(text))
	if chars >= e.minTextChars() {
		progress.report(1)
		return Result{Text: text, Method: MethodPDFText, Pages: pages}, nil
	}

	telemetry.Info("extract.pdf.scan_only", map[string]any{
		"chars":       chars,
		"pages":       pages,
		"image_pages": info.ImagePages,
	})
	if e.OCR == nil {
		return Result{}, apperr.Extraction("extract.pdf", ErrNoOCR)
	}
	ocrText, ocrPages, err := e.OCR.RecognizePDF(ctx, data, progress.scaled(0.3, 1))
	if err != nil {
		return Result{}, apperr.Extraction("extract.pdf.ocr", err)
	}
	if ocrPages > 0 {
		pages = ocrPages
	}
	return Result{Text: ocrText, Method: MethodPDFOCR, Pages: pages}, nil
}

func (e *Extractor) extractImage(ctx context.Context, data []byte, progress Progress) (Result, error) {
	if e.OCR == nil {
		return Result{}, apperr.Extraction("extract.image", ErrNoOCR)
	}
	text, err := e.OCR.Recognize(ctx, data, progress)
	if err != nil {
		return Result{}, apperr.Extraction("extract.image.ocr", err)
	}
	return Result{Text: text, Method: MethodImageOCR, Pages: 1}, nil
}

func (e *Extractor) cached(ctx context.Context, key string) (Result, bool) {
	if e.Cache == nil {
		return Result{}, false
	}
	raw, ok, err := e.Cache.Get(ctx, key)
	if err != nil {
		telemetry.Warn("extract.cache.get_failed", map[string]any{"key": key, "err": err})
		return Result{}, false
	}
	if !ok {
		return Result{}, false
	}
	var res Result
	if err := json.Unmarshal(raw, &res); err != nil || !res.Success {
		return Result{}, false
	}
	return res, true
}

func (e *Extractor) store(ctx context.Context, key string, res Result) {
	if e.Cache == nil {
		return
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := e.Cache.Set(ctx, key, raw, e.CacheTTL); err != nil {
		telemetry.Warn("extract.cache.set_failed", map[string]any{"key": key, "err": err})
	}
}
