package llm

import (
	"embed"
	"strings"

	"filing-backend/internal/fields"
)

//go:embed prompts/*.txt
var promptFS embed.FS

const textPlaceholder = "{{DOCUMENT_TEXT}}"

// Supported reports whether a prompt template exists for t.
func Supported(t fields.DocType) bool {
	_, ok := PromptTemplate(t)
	return ok
}

// PromptTemplate returns the fixed template for t and whether t has one.
func PromptTemplate(t fields.DocType) (string, bool) {
	if !t.Valid() {
		return "", false
	}
	raw, err := promptFS.ReadFile("prompts/" + string(t) + ".txt")
	if err != nil {
		return "", false
	}
	return string(raw), true
}

// BuildPrompt fills the template for t with already truncated text.
func BuildPrompt(t fields.DocType, text string) (string, bool) {
	tmpl, ok := PromptTemplate(t)
	if !ok {
		return "", false
	}
	return strings.Replace(tmpl, textPlaceholder, text, 1), true
}
