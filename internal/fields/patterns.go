package fields

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type valueKind int

const (
	kindText valueKind = iota
	kindAmount
	kindDate
	kindSSN
	kindYear
	kindID
	kindLast4
)

const (
	textValue   = `([^\n]+)`
	wordValue   = `([A-Za-z][A-Za-z'\-]*)`
	amountValue = `\$?\s*(\(?-?\$?[\d,]*\d(?:\.\d{1,2})?\)?)`
	dateValue   = `(\d{1,2}[/-]\d{1,2}[/-]\d{4}|\d{4}-\d{2}-\d{2})`
	ssnValue    = `((?:\d{3}|[xX*]{3})[- ]?(?:\d{2}|[xX*]{2})[- ]?\d{4})`
	yearValue   = `((?:19|20)\d{2})\b`
	idValue     = `([A-Z0-9][A-Z0-9\-/.:]{2,24})`
	einValue    = `(\d{2}-?\d{7})\b`
	last4Value  = `[xX*#.\-\s\d]*?(\d{4})\b`

	isoDate = "2006-01-02"
	// boundary keeps labels from matching inside a longer word.
	boundary = `(?:^|[^\p{L}\p{N}])`
)

// rule extracts one field: the first pattern with a usable match wins.
type rule struct {
	key      string
	kind     valueKind
	patterns []*regexp.Regexp
	// skipAfter drops matches whose label follows one of these words on the same line.
	skipAfter []string
}

// labeled builds one pattern per label; the separator after the label is optional.
func labeled(value string, labels ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(labels))
	for _, l := range labels {
		out = append(out, regexp.MustCompile(`(?im)`+boundary+`(?:`+l+`)\s*[:#]?\s*`+value))
	}
	return out
}

// labeledText requires a ':' or '#' after the label and captures the rest of the line.
func labeledText(labels ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(labels))
	for _, l := range labels {
		out = append(out, regexp.MustCompile(`(?im)`+boundary+`(?:`+l+`)\s*[:#]\s*`+textValue))
	}
	return out
}

// labeledBelow captures the line following a label line, as printed on boxed forms.
func labeledBelow(labels ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(labels))
	for _, l := range labels {
		out = append(out, regexp.MustCompile(`(?im)`+boundary+`(?:`+l+`)[^\n]*\n[ \t]*`+textValue))
	}
	return out
}

func patterns(groups ...[]*regexp.Regexp) []*regexp.Regexp {
	var out []*regexp.Regexp
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func raw(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

func (r rule) find(text string) (any, bool) {
	for _, re := range r.patterns {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			if len(loc) < 4 || loc[2] < 0 {
				continue
			}
			if r.skipped(text, loc[0]) {
				continue
			}
			if v, ok := convert(r.kind, text[loc[2]:loc[3]]); ok {
				return v, true
			}
		}
	}
	return nil, false
}

func (r rule) skipped(text string, at int) bool {
	if len(r.skipAfter) == 0 || text[at] == '\n' {
		return false
	}
	lineStart := strings.LastIndexByte(text[:at], '\n') + 1
	prefix := strings.ToLower(text[lineStart:at])
	prefix = strings.NewReplacer("'", "", "’", "").Replace(prefix)
	prefix = strings.TrimRight(prefix, " \t:#.,")
	for _, w := range r.skipAfter {
		if strings.HasSuffix(prefix, w) {
			return true
		}
	}
	return false
}

// applyRules runs every rule over text and collects the hits.
func applyRules(text string, rules []rule) Map {
	m := Map{}
	for _, r := range rules {
		if v, ok := r.find(text); ok {
			m[r.key] = v
		}
	}
	return m
}

func convert(kind valueKind, raw string) (any, bool) {
	switch kind {
	case kindAmount:
		return ParseAmount(raw)
	case kindDate:
		return NormalizeDate(raw), true
	case kindSSN:
		s := strings.TrimSpace(raw)
		return s, s != ""
	case kindYear:
		return strings.TrimSpace(raw), true
	case kindID:
		s := strings.ToUpper(strings.Trim(strings.TrimSpace(raw), ".:/-"))
		return s, strings.ContainsAny(s, "0123456789")
	case kindLast4:
		s := strings.TrimSpace(raw)
		return s, len(s) == 4
	default:
		s := cleanText(cutAtLabel(raw))
		return s, s != ""
	}
}

var spaceRun = regexp.MustCompile(`\s+`)

// inlineLabel finds a "Label:" that OCR joined onto the same line as the value.
var inlineLabel = regexp.MustCompile(`\p{L}[\p{L}'’.)]*\s*:(?:\s|$)`)

// labelWords may precede the last word of a multi-word label ("Last name:",
// "Your social security number:").
var labelWords = map[string]bool{
	"your": true, "spouse": true, "spouses": true, "employee": true, "employer": true,
	"first": true, "middle": true, "last": true, "name": true, "names": true, "initial": true,
	"and": true, "social": true, "security": true, "number": true, "no": true, "ssn": true,
	"date": true, "of": true, "birth": true, "dob": true, "home": true, "address": true,
	"account": true, "id": true, "ein": true,
}

// cutAtLabel keeps only the text before the next inline label on the line.
func cutAtLabel(raw string) string {
	loc := inlineLabel.FindStringIndex(raw)
	if loc == nil {
		return raw
	}
	words := strings.Fields(raw[:loc[0]])
	for len(words) > 0 && labelWords[labelKey(words[len(words)-1])] {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

func labelKey(w string) string {
	w = strings.ToLower(strings.Trim(w, ".,()"))
	w = strings.TrimSuffix(strings.TrimSuffix(w, "'s"), "’s")
	return w
}

func cleanText(raw string) string {
	s := spaceRun.ReplaceAllString(raw, " ")
	return strings.Trim(s, " ,;|:")
}

// ParseAmount strips currency symbols and thousands separators; parentheses mean negative.
func ParseAmount(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
	}
	s = strings.NewReplacer("$", "", ",", "", "(", "", ")", "", " ", "").Replace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		v = -v
	}
	return v, true
}

var usDate = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})$`)

// NormalizeDate rewrites MM/DD/YYYY (or M-D-YYYY) as YYYY-MM-DD when the parts
// form a real calendar date. Anything else is returned trimmed but unchanged.
func NormalizeDate(raw string) string {
	s := strings.TrimSpace(raw)
	m := usDate.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 {
		return s
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return s
	}
	return t.Format(isoDate)
}

// Pay frequencies recognised by the engine.
const (
	Weekly      = "weekly"
	Biweekly    = "biweekly"
	Semimonthly = "semimonthly"
	Monthly     = "monthly"
	Yearly      = "yearly"
)

var multipliers = map[string]float64{
	Weekly:      52,
	Biweekly:    26,
	Semimonthly: 24,
	Monthly:     12,
	Yearly:      1,
}

// Multiplier returns the number of pay periods per year for freq.
func Multiplier(freq string) (float64, bool) {
	v, ok := multipliers[freq]
	return v, ok
}

// NormalizeFrequency maps a printed pay frequency onto one of the known values, or "".
func NormalizeFrequency(raw string) string {
	s := strings.ToLower(raw)
	s = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	switch {
	case s == "":
		return ""
	case strings.HasPrefix(s, "biweekly"), strings.HasPrefix(s, "everyotherweek"),
		strings.HasPrefix(s, "every2weeks"), strings.HasPrefix(s, "fortnight"):
		return Biweekly
	case strings.HasPrefix(s, "semimonthly"), strings.HasPrefix(s, "twicemonthly"), strings.HasPrefix(s, "twiceamonth"):
		return Semimonthly
	case strings.HasPrefix(s, "weekly"):
		return Weekly
	case strings.HasPrefix(s, "monthly"):
		return Monthly
	case strings.HasPrefix(s, "annual"), strings.HasPrefix(s, "yearly"):
		return Yearly
	default:
		return ""
	}
}

// FrequencyFromSpan infers a pay frequency from an inclusive ISO date range:
// up to 7 days weekly, up to 14 biweekly, up to 31 monthly, otherwise yearly.
func FrequencyFromSpan(start, end string) (string, bool) {
	s, err := time.Parse(isoDate, start)
	if err != nil {
		return "", false
	}
	e, err := time.Parse(isoDate, end)
	if err != nil || e.Before(s) {
		return "", false
	}
	days := int(e.Sub(s).Hours()/24) + 1
	switch {
	case days <= 7:
		return Weekly, true
	case days <= 14:
		return Biweekly, true
	case days <= 31:
		return Monthly, true
	default:
		return Yearly, true
	}
}

var rangeSep = `\s*(?:-|–|—|to|through|thru)\s*`

// rangePatterns matches "<label>: DATE to DATE" plus the split begin/end form.
func rangePatterns(labels ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(labels)+1)
	for _, l := range labels {
		out = append(out, regexp.MustCompile(`(?i)`+boundary+`(?:`+l+`)\s*(?:dates?)?\s*[:#]?\s*(?:from\s+)?`+dateValue+rangeSep+dateValue))
	}
	out = append(out, regexp.MustCompile(`(?is)(?:period\s+)?(?:beginning|begin|start(?:ing)?)(?:\s+date)?\s*[:#]?\s*`+dateValue+`.*?(?:period\s+)?(?:ending|end)(?:\s+date)?\s*[:#]?\s*`+dateValue))
	return out
}

func findRange(text string, res []*regexp.Regexp) (string, string, bool) {
	for _, re := range res {
		if m := re.FindStringSubmatch(text); m != nil {
			return NormalizeDate(m[1]), NormalizeDate(m[2]), true
		}
	}
	return "", "", false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
