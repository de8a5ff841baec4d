package pipeline

import (
	"fmt"
	"strings"
)

// Mode selects how the model is used next to the regex engine.
type Mode string

const (
	// ModeOff uses the regex engine only.
	ModeOff Mode = "off"
	// ModePrefer asks the model first and falls back to regex on error.
	ModePrefer Mode = "prefer"
	// ModeAssist runs regex first and asks the model only when critical fields are missing.
	ModeAssist Mode = "assist"
)

// ParseMode normalizes and validates a mode string. Empty means off.
func ParseMode(raw string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(raw))); m {
	case "":
		return ModeOff, nil
	case ModeOff, ModePrefer, ModeAssist:
		return m, nil
	default:
		return "", fmt.Errorf("llm mode %q is invalid", raw)
	}
}
