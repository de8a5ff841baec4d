package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pdfInfo is what the structural probe learns about a PDF.
type pdfInfo struct {
	Pages      int
	ImagePages int
}

// Swapped in tests that cannot ship real PDF fixtures.
var (
	probePDF      = pdfcpuProbe
	readTextLayer = ledongthucText
)

// pdfcpuProbe counts pages and the pages carrying image XObjects.
func pdfcpuProbe(data []byte) (info pdfInfo, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdfcpu probe panic: %v", r)
		}
	}()

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return pdfInfo{}, fmt.Errorf("pdfcpu read: %w", err)
	}
	info.Pages = ctx.PageCount
	if ctx.Optimize != nil {
		for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
			if len(pdfcpu.ImageObjNrs(ctx, pageNr)) > 0 {
				info.ImagePages++
			}
		}
	}
	return info, nil
}

// ledongthucText reads the text layer page by page, joining pages with '\n'.
func ledongthucText(data []byte, progress Progress) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf text layer panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, err
	}
	n := reader.NumPage()
	parts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			progress.report(float64(i) / float64(n))
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", n, fmt.Errorf("page %d: %w", i, err)
		}
		parts = append(parts, pageText)
		progress.report(float64(i) / float64(n))
	}
	return strings.Join(parts, "\n"), n, nil
}
