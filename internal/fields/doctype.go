package fields

import (
	"errors"
	"fmt"
	"strings"
)

// DocType is the declared kind of an uploaded document.
type DocType string

const (
	DriversLicense      DocType = "driversLicense"
	TaxReturn           DocType = "taxReturn"
	PayStub             DocType = "payStub"
	BankStatement       DocType = "bankStatement"
	W2                  DocType = "w2"
	Form1099            DocType = "1099"
	MarriageCertificate DocType = "marriageCertificate"
	PriorCourtOrder     DocType = "priorCourtOrder"
	ProfitAndLoss       DocType = "profitAndLoss"
)

// ErrUnknownDocType is returned when a document type is outside the closed set.
var ErrUnknownDocType = errors.New("unknown document type")

var docTypes = []DocType{
	DriversLicense,
	TaxReturn,
	PayStub,
	BankStatement,
	W2,
	Form1099,
	MarriageCertificate,
	PriorCourtOrder,
	ProfitAndLoss,
}

// DocTypes lists every supported document type in a stable order.
func DocTypes() []DocType {
	out := make([]DocType, len(docTypes))
	copy(out, docTypes)
	return out
}

// Valid reports whether t is one of the supported document types.
func (t DocType) Valid() bool {
	for _, known := range docTypes {
		if t == known {
			return true
		}
	}
	return false
}

func (t DocType) String() string { return string(t) }

// ParseDocType accepts the wire name of a document type.
func ParseDocType(raw string) (DocType, error) {
	t := DocType(strings.TrimSpace(raw))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownDocType, raw)
	}
	return t, nil
}
