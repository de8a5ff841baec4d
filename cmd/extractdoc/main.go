// Command extractdoc runs text and field extraction on one local file and
// prints the candidate map as JSON. Nothing is persisted.
//
//	go run ./cmd/extractdoc --file stub.pdf --type payStub
//	go run ./cmd/extractdoc --file w2.png --type w2 --llm --out w2.json
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"filing-backend/internal/bootstrap"
	"filing-backend/internal/extract"
	"filing-backend/internal/fields"
	"filing-backend/internal/llm"
	"filing-backend/internal/shared/config"
)

type output struct {
	DocumentType    string         `json:"documentType"`
	Method          string         `json:"method"`
	Pages           int            `json:"pages"`
	ExtractedData   map[string]any `json:"extractedData"`
	MissingCritical []string       `json:"missingCritical"`
	RawText         string         `json:"rawText,omitempty"`
	LLMCalls        []llm.CallLog  `json:"llmCalls,omitempty"`
}

type callRecorder []llm.CallLog

func (r *callRecorder) Record(call llm.CallLog) { *r = append(*r, call) }

func main() {
	cfg := config.Load()

	fs := pflag.NewFlagSet("extractdoc", pflag.ExitOnError)
	path := fs.String("file", "", "path to a PDF or image")
	docType := fs.String("type", "", "document type: "+strings.Join(typeNames(), ", "))
	useLLM := fs.Bool("llm", false, "overlay the configured LLM provider's fields")
	withText := fs.Bool("text", false, "include the extracted raw text")
	outPath := fs.String("out", "", "write JSON output to this path as well as stdout")
	timeout := fs.Duration("timeout", 5*time.Minute, "overall deadline")
	_ = fs.Parse(os.Args[1:])

	if strings.TrimSpace(*path) == "" {
		exitErr("--file is required")
	}
	t, err := fields.ParseDocType(*docType)
	if err != nil {
		exitErr(err.Error())
	}
	kind, err := extract.KindFor("", *path)
	if err != nil {
		exitErr(err.Error())
	}
	data, err := os.ReadFile(*path)
	if err != nil {
		exitErr(fmt.Sprintf("read file: %v", err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	text := &extract.Extractor{
		OCR: &extract.Tesseract{
			Binary:   cfg.OCRTesseract,
			Pdftoppm: cfg.OCRPdftoppm,
			Lang:     cfg.OCRLang,
			DPI:      cfg.OCRDPI,
		},
		MinTextChars: cfg.OCRMinTextChars,
	}
	res, err := text.Extract(ctx, data, kind, func(v float64) {
		fmt.Fprintf(os.Stderr, "\rextracting %s: %3.0f%%", filepath.Base(*path), v*100)
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		exitErr(fmt.Sprintf("extract text: %v", err))
	}

	m := fields.Parse(res.Text, t)
	var calls callRecorder
	if *useLLM {
		ex, err := bootstrap.BuildLLM(ctx, cfg)
		if err != nil {
			exitErr(err.Error())
		}
		if !ex.Enabled() {
			exitErr("--llm needs LLM_PROVIDER and LLM_MODEL")
		}
		fromModel, err := ex.Extract(ctx, t, res.Text, &calls)
		if err != nil {
			fmt.Fprintf(os.Stderr, "llm extraction failed, keeping regex fields: %v\n", err)
		} else {
			m = fields.Overlay(fromModel, m)
		}
	}

	out := output{
		DocumentType:    t.String(),
		Method:          res.Method,
		Pages:           res.Pages,
		ExtractedData:   m,
		MissingCritical: fields.MissingCritical(t, m),
		LLMCalls:        calls,
	}
	if *withText {
		out.RawText = res.Text
	}

	pretty, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		exitErr(fmt.Sprintf("format json: %v", err))
	}
	pretty = append(pretty, '\n')
	if *outPath != "" {
		if err := os.WriteFile(*outPath, pretty, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}
	if _, err := os.Stdout.Write(pretty); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
}

func typeNames() []string {
	var names []string
	for _, t := range fields.DocTypes() {
		names = append(names, t.String())
	}
	return names
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
