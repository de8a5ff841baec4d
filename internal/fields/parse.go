package fields

import (
	"regexp"
	"strings"
)

// Map is the candidate field map produced for one document. Nested values are
// map[string]any (for example address) and []any of map[string]any (dependents).
type Map map[string]any

// String returns the string stored under key, or "".
func (m Map) String(key string) string {
	s, _ := m[key].(string)
	return s
}

// Float returns the number stored under key.
func (m Map) Float(key string) (float64, bool) {
	v, ok := m[key].(float64)
	return v, ok
}

type parser func(text string) Map

var parsers = map[DocType]parser{
	DriversLicense:      parseDriversLicense,
	TaxReturn:           parseTaxReturn,
	PayStub:             parsePayStub,
	BankStatement:       parseBankStatement,
	W2:                  parseW2,
	Form1099:            parse1099,
	MarriageCertificate: parseMarriageCertificate,
	PriorCourtOrder:     parsePriorCourtOrder,
	ProfitAndLoss:       parseProfitAndLoss,
}

// Parse extracts a candidate field map from raw text for the given document type.
// Expected fields that were not found are present with a nil value. An unknown
// type yields only rawText. Parse never panics on malformed text and is a pure
// function of its inputs.
func Parse(text string, t DocType) Map {
	p, ok := parsers[t]
	if !ok {
		return Map{"rawText": text}
	}
	m := p(text)
	for _, f := range registry[t].Expected {
		if _, ok := m[f]; !ok {
			m[f] = nil
		}
	}
	m["rawText"] = text
	return m
}

var derivers = map[DocType]func(Map){
	PayStub:       derivePayStub,
	BankStatement: deriveBankAccounts,
	ProfitAndLoss: deriveNetProfit,
	TaxReturn: func(m Map) {
		if fs := m.String("filingStatus"); fs != "" {
			m["filingStatus"] = NormalizeFilingStatus(fs)
		}
	},
	Form1099: func(m Map) {
		if v := m.String("formVariant"); v != "" {
			m["formVariant"] = strings.ToUpper(v)
		}
	},
}

// Complete brings a candidate map produced outside the regex parsers (model
// output, overlays) into the shape Parse returns: printed amounts become
// numbers, US dates become ISO dates, derived fields are filled, absent
// expected fields are nil and rawText is set.
func Complete(t DocType, m Map, text string) Map {
	out := make(Map, len(m)+1)
	for k, v := range m {
		if k == "rawText" {
			continue
		}
		out[k] = coerce(FieldKind(k), v)
	}
	if d, ok := derivers[t]; ok {
		d(out)
	}
	for _, f := range registry[t].Expected {
		if _, ok := out[f]; !ok {
			out[f] = nil
		}
	}
	out["rawText"] = text
	return out
}

func coerce(kind string, v any) any {
	s, isString := v.(string)
	if !isString {
		return v
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	switch kind {
	case KindNumber:
		if f, ok := ParseAmount(s); ok {
			return f
		}
		return nil
	case KindDate:
		return NormalizeDate(s)
	}
	return s
}

// Overlay returns a copy of base in which every empty field is taken from extra.
func Overlay(base, extra Map) Map {
	out := make(Map, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		if k == "rawText" || isEmpty(v) {
			continue
		}
		if isEmpty(out[k]) {
			out[k] = v
		}
	}
	return out
}

var (
	cityStateZip = regexp.MustCompile(`([A-Za-z][A-Za-z .'\-]*?),?\s+([A-Z]{2})\.?\s+(\d{5}(?:-\d{4})?)\b`)
	streetLine   = regexp.MustCompile(`(?im)^\s*(\d{1,6}\s+[A-Za-z0-9 .'\-]+?\s(?:st|street|ave|avenue|rd|road|blvd|boulevard|dr|drive|ln|lane|ct|court|way|pl|place|cir|circle|pkwy|parkway|hwy|highway|ter|terrace)\.?(?:\s+(?:apt|unit|ste|suite|#)\.?\s*[A-Za-z0-9\-]+)?)\b`)
)

// parseAddress returns a {street, city, state, zip} map, or nil when nothing matched.
func parseAddress(text string, streetLabels ...string) map[string]any {
	addr := map[string]any{}
	street := ""
	if v, ok := (rule{kind: kindText, patterns: labeledText(streetLabels...)}).find(text); ok {
		street = v.(string)
	} else if m := streetLine.FindStringSubmatch(text); m != nil {
		street = cleanText(m[1])
	}

	if loc := cityStateZip.FindStringSubmatchIndex(street); loc != nil {
		addr["city"] = cleanText(street[loc[2]:loc[3]])
		addr["state"] = street[loc[4]:loc[5]]
		addr["zip"] = street[loc[6]:loc[7]]
		street = cleanText(street[:loc[2]])
	} else if m := cityStateZip.FindStringSubmatch(text); m != nil {
		addr["city"] = cleanText(m[1])
		addr["state"] = m[2]
		addr["zip"] = m[3]
	}
	if street != "" {
		addr["street"] = street
	}
	if len(addr) == 0 {
		return nil
	}
	return addr
}

var (
	personSSN   = regexp.MustCompile(`(?:\d{3}|[xX*]{3})[- ]?(?:\d{2}|[xX*]{2})[- ]?\d{4}`)
	personDate  = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{4}|\d{4}-\d{2}-\d{2}`)
	personRel   = regexp.MustCompile(`(?i)\b(son|daughter|stepson|stepdaughter|stepchild|foster\s+child|grandchild|grandson|granddaughter|niece|nephew|child)\b`)
	personLabel = regexp.MustCompile(`(?i)\b(?:dob|born|date\s+of\s+birth|ssn|relationship|age\s*\d*)\b\s*[:#]?`)
)

// parsePersonLine splits a free-form "Name, SSN, relationship, DOB" line.
func parsePersonLine(line string) map[string]any {
	person := map[string]any{}
	rest := line
	if s := personSSN.FindString(rest); s != "" {
		person["ssn"] = s
		rest = strings.Replace(rest, s, " ", 1)
	}
	if d := personDate.FindString(rest); d != "" {
		person["dateOfBirth"] = NormalizeDate(d)
		rest = strings.Replace(rest, d, " ", 1)
	}
	if m := personRel.FindStringSubmatch(rest); m != nil {
		person["relationship"] = strings.ToLower(spaceRun.ReplaceAllString(m[1], " "))
		rest = strings.Replace(rest, m[0], " ", 1)
	}
	rest = personLabel.ReplaceAllString(rest, " ")
	rest = strings.NewReplacer(",", " ", ";", " ", "(", " ", ")", " ", "|", " ").Replace(rest)
	if name := cleanText(rest); name != "" {
		person["fullName"] = name
	}
	if person["fullName"] == nil {
		return nil
	}
	return person
}

// collectPeople parses every line captured by re into a person map.
func collectPeople(text string, re *regexp.Regexp) []any {
	var out []any
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		if p := parsePersonLine(m[1]); p != nil {
			out = append(out, p)
		}
	}
	return out
}

var stateCodes = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR", "california": "CA",
	"colorado": "CO", "connecticut": "CT", "delaware": "DE", "district of columbia": "DC",
	"florida": "FL", "georgia": "GA", "hawaii": "HI", "idaho": "ID", "illinois": "IL",
	"indiana": "IN", "iowa": "IA", "kansas": "KS", "kentucky": "KY", "louisiana": "LA",
	"maine": "ME", "maryland": "MD", "massachusetts": "MA", "michigan": "MI", "minnesota": "MN",
	"mississippi": "MS", "missouri": "MO", "montana": "MT", "nebraska": "NE", "nevada": "NV",
	"new hampshire": "NH", "new jersey": "NJ", "new mexico": "NM", "new york": "NY",
	"north carolina": "NC", "north dakota": "ND", "ohio": "OH", "oklahoma": "OK", "oregon": "OR",
	"pennsylvania": "PA", "rhode island": "RI", "south carolina": "SC", "south dakota": "SD",
	"tennessee": "TN", "texas": "TX", "utah": "UT", "vermont": "VT", "virginia": "VA",
	"washington": "WA", "west virginia": "WV", "wisconsin": "WI", "wyoming": "WY",
}

// NormalizeState maps a state name or code to its two-letter code; unknown input is returned cleaned.
func NormalizeState(raw string) string {
	s := cleanText(raw)
	lower := strings.ToLower(strings.TrimPrefix(strings.ToLower(s), "state of "))
	if code, ok := stateCodes[lower]; ok {
		return code
	}
	if len(s) == 2 {
		up := strings.ToUpper(s)
		for _, code := range stateCodes {
			if code == up {
				return up
			}
		}
	}
	return s
}

var stateNamePattern = func() string {
	names := make([]string, 0, len(stateCodes))
	for name := range stateCodes {
		names = append(names, strings.ReplaceAll(name, " ", `\s+`))
	}
	// Longest first so "west virginia" wins over "virginia".
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && len(names[j]) > len(names[j-1]); j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
	return strings.Join(names, "|")
}()
