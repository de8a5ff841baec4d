package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"filing-backend/internal/shared/telemetry"
)

// OCR recognizes text in raster images and scan-only PDFs.
type OCR interface {
	Recognize(ctx context.Context, image []byte, progress Progress) (string, error)
	RecognizePDF(ctx context.Context, pdf []byte, progress Progress) (text string, pages int, err error)
}

// Tesseract runs the tesseract CLI; PDFs are rasterized with pdftoppm first.
// Tick is how often progress advances while tesseract runs.
type Tesseract struct {
	Runner      Runner
	Binary      string
	Pdftoppm    string
	Lang        string
	TessdataDir string
	DPI         int
	MaxPages    int
	Tick        time.Duration
}

var errNoPages = errors.New("pdftoppm produced no images")

var boxNoise = regexp.MustCompile(`(?m)^\s*[_\-]{3,}\s*$`)

func (t *Tesseract) runner() Runner {
	if t.Runner != nil {
		return t.Runner
	}
	return execRunner{}
}

func (t *Tesseract) binary() string {
	if t.Binary != "" {
		return t.Binary
	}
	return "tesseract"
}

func (t *Tesseract) pdftoppm() string {
	if t.Pdftoppm != "" {
		return t.Pdftoppm
	}
	return "pdftoppm"
}

func (t *Tesseract) lang() string {
	if t.Lang != "" {
		return t.Lang
	}
	return "eng"
}

func (t *Tesseract) tick() time.Duration {
	if t.Tick > 0 {
		return t.Tick
	}
	return 250 * time.Millisecond
}

func (t *Tesseract) dpi() int {
	if t.DPI > 0 {
		return t.DPI
	}
	return 300
}

// Recognize OCRs a single image.
func (t *Tesseract) Recognize(ctx context.Context, image []byte, progress Progress) (string, error) {
	dir, err := os.MkdirTemp("", "filing-ocr-*")
	if err != nil {
		return "", err
	}
	defer removeTemp(dir)

	path := filepath.Join(dir, "input")
	if err := os.WriteFile(path, image, 0o600); err != nil {
		return "", err
	}
	progress.report(0.05)
	text, err := t.recognizeTracked(ctx, path, progress, 0.1, 0.95)
	if err != nil {
		return "", err
	}
	progress.report(1)
	return text, nil
}

// RecognizePDF rasterizes every page and OCRs them in order.
func (t *Tesseract) RecognizePDF(ctx context.Context, pdf []byte, progress Progress) (string, int, error) {
	dir, err := os.MkdirTemp("", "filing-ocr-*")
	if err != nil {
		return "", 0, err
	}
	defer removeTemp(dir)

	in := filepath.Join(dir, "in.pdf")
	if err := os.WriteFile(in, pdf, 0o600); err != nil {
		return "", 0, err
	}
	prefix := filepath.Join(dir, "page")
	if _, stderr, err := t.runner().Run(ctx, t.pdftoppm(), "-r", strconv.Itoa(t.dpi()), "-png", in, prefix); err != nil {
		return "", 0, fmt.Errorf("pdftoppm: %w: %s", err, strings.TrimSpace(string(stderr)))
	}

	images, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(images)
	if t.MaxPages > 0 && len(images) > t.MaxPages {
		images = images[:t.MaxPages]
	}
	if len(images) == 0 {
		return "", 0, errNoPages
	}

	parts := make([]string, 0, len(images))
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}
		lo := 0.1 + 0.9*float64(i)/float64(len(images))
		hi := 0.1 + 0.9*float64(i+1)/float64(len(images))
		text, err := t.recognizeTracked(ctx, img, progress, lo, hi)
		if err != nil {
			return "", 0, fmt.Errorf("page %d: %w", i+1, err)
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n"), len(images), nil
}

// recognizeTracked runs tesseract on one file while reporting progress
// between lo and hi. The CLI prints no progress of its own, so the value
// closes a quarter of the remaining gap to hi on every tick and reaches hi
// only when the run ends.
func (t *Tesseract) recognizeTracked(ctx context.Context, path string, progress Progress, lo, hi float64) (string, error) {
	progress.report(lo)
	if progress == nil {
		return t.recognizeFile(ctx, path)
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(t.tick())
		defer ticker.Stop()
		cur := lo
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				cur += (hi - cur) / 4
				progress.report(cur)
			}
		}
	}()

	text, err := t.recognizeFile(ctx, path)
	close(done)
	wg.Wait()
	if err == nil {
		progress.report(hi)
	}
	return text, err
}

func (t *Tesseract) recognizeFile(ctx context.Context, path string) (string, error) {
	args := []string{path, "stdout", "-l", t.lang()}
	if t.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.TessdataDir)
	}
	out, stderr, err := t.runner().Run(ctx, t.binary(), args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(string(stderr)))
	}
	return boxNoise.ReplaceAllString(string(out), ""), nil
}

func removeTemp(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		telemetry.Warn("extract.ocr.cleanup_failed", map[string]any{"dir": dir, "err": err})
	}
}
