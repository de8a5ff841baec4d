package fields

import (
	"regexp"
	"strings"
)

const nameSuffix = `(?:'|’)?s?(?:\s+(?:full\s+)?name)?`

var marriageRules = []rule{
	{key: "party1FullName", kind: kindText, patterns: labeledText(
		`party\s*(?:a|1|one)`+nameSuffix, `spouse\s*(?:a|1|one)`+nameSuffix, `applicant\s*(?:a|1|one)`+nameSuffix,
		`groom`+nameSuffix, `husband`+nameSuffix)},
	{key: "party2FullName", kind: kindText, patterns: labeledText(
		`party\s*(?:b|2|two)`+nameSuffix, `spouse\s*(?:b|2|two)`+nameSuffix, `applicant\s*(?:b|2|two)`+nameSuffix,
		`bride`+nameSuffix, `wife`+nameSuffix)},
	{key: "dateOfMarriage", kind: kindDate, patterns: labeled(dateValue,
		`date\s+of\s+marriage`, `marriage\s+date`, `date\s+of\s+ceremony`, `married\s+on`, `date\s+married`)},
	{key: "placeCity", kind: kindText, patterns: labeledText(`city\s+of\s+marriage`, `city`, `town`)},
	{key: "placeCounty", kind: kindText, patterns: labeledText(`county\s+of\s+marriage`, `county`)},
	{key: "placeState", kind: kindText, patterns: labeledText(`state\s+of\s+marriage`, `state`)},
	{key: "certificateNumber", kind: kindID, patterns: labeled(idValue,
		`certificate\s+(?:number|no\.?|#)`, `license\s+(?:number|no\.?|#)`, `file\s+(?:number|no\.?)`, `registration\s+(?:number|no\.?)`)},
	{key: "officiant", kind: kindText, patterns: labeledText(
		`officiant(?:'|’)?s?(?:\s+name)?`, `officiated\s+by`, `solemnized\s+by`, `performed\s+by`)},
}

var placeOfMarriage = regexp.MustCompile(`(?im)` + boundary + `place\s+of\s+marriage\s*[:#]\s*([^\n,]+),\s*(?:([^\n,]+?)\s+county\s*,\s*)?([^\n,]+)$`)

func parseMarriageCertificate(text string) Map {
	m := applyRules(text, marriageRules)
	if p := placeOfMarriage.FindStringSubmatch(text); p != nil {
		if m["placeCity"] == nil {
			m["placeCity"] = cleanText(p[1])
		}
		if m["placeCounty"] == nil && p[2] != "" {
			m["placeCounty"] = cleanText(p[2])
		}
		if m["placeState"] == nil {
			m["placeState"] = cleanText(p[3])
		}
	}
	if c := m.String("placeCounty"); c != "" {
		m["placeCounty"] = trimCounty(c)
	}
	if s := m.String("placeState"); s != "" {
		m["placeState"] = NormalizeState(s)
	}
	return m
}

var courtOrderRules = []rule{
	{key: "caseNumber", kind: kindID, patterns: labeled(idValue,
		`case\s+(?:number|no\.?|#)`, `cause\s+(?:number|no\.?|#)`, `docket\s+(?:number|no\.?|#)`, `file\s+(?:number|no\.?)`)},
	{key: "courtName", kind: kindText, patterns: patterns(
		labeledText(`court(?:\s+name)?`),
		raw(`(?im)^[ \t]*(?:in\s+the\s+)?([A-Za-z .'\-]*\bcourt\b[^\n]*)$`),
	)},
	{key: "county", kind: kindText, patterns: patterns(
		labeledText(`county`),
		raw(`(?i)\bcounty\s+of\s+([A-Za-z .'\-]+?)\s*(?:,|\n|$)`, `(?i)\b([A-Z][A-Za-z.'\-]*(?:\s+[A-Z][A-Za-z.'\-]*)?)\s+county\b`),
	)},
	{key: "state", kind: kindText, patterns: patterns(
		labeledText(`state`),
		raw(`(?i)\bstate\s+of\s+(`+stateNamePattern+`)\b`, `(?i)\bcourt\s+of\s+(`+stateNamePattern+`)\b`),
	)},
	{key: "judgeName", kind: kindText, patterns: patterns(
		labeledText(`judge(?:'|’)?s?(?:\s+name)?`, `judicial\s+officer`, `commissioner`),
		raw(`(?im)\bhon(?:orable|\.)\s+([A-Z][^\n,]+)`),
	)},
	{key: "orderDate", kind: kindDate, patterns: labeled(dateValue,
		`date\s+of\s+order`, `order\s+date`, `dated`, `entered(?:\s+on)?`, `date\s+signed`, `signed(?:\s+on)?`, `filed(?:\s+on)?`)},
	{key: "orderType", kind: kindText, patterns: patterns(
		labeledText(`order\s+type`, `type\s+of\s+order`),
		raw(`(?i)\b(judgment\s+of\s+dissolution|dissolution\s+of\s+marriage|divorce\s+decree|final\s+decree|child\s+support\s+order|custody\s+order|protective\s+order|restraining\s+order|parenting\s+plan|spousal\s+support\s+order|temporary\s+order|modification\s+order)\b`),
	)},
	{key: "petitionerName", kind: kindText, patterns: labeledText(`petitioner(?:'|’)?s?(?:\s+name)?`, `plaintiff`)},
	{key: "respondentName", kind: kindText, patterns: labeledText(`respondent(?:'|’)?s?(?:\s+name)?`, `defendant`)},
	{key: "childSupportAmount", kind: kindAmount, patterns: labeled(amountValue,
		`child\s+support\s+(?:in\s+the\s+amount\s+of|of)`, `child\s+support(?:\s+(?:amount|payment|obligation))?`)},
	{key: "spousalSupportAmount", kind: kindAmount, patterns: labeled(amountValue,
		`spousal\s+support\s+(?:in\s+the\s+amount\s+of|of)`, `spousal\s+support(?:\s+(?:amount|payment))?`, `alimony(?:\s+of)?`, `maintenance(?:\s+of)?`)},
}

var (
	childLine    = regexp.MustCompile(`(?im)^[ \t]*(?:minor\s+)?child(?:\s*#?\s*\d+)?\s*[:#][ \t]*([^\n]+)$`)
	leadingInThe = regexp.MustCompile(`(?i)^in\s+the\s+`)
)

func parsePriorCourtOrder(text string) Map {
	m := applyRules(text, courtOrderRules)
	if c := m.String("courtName"); c != "" {
		m["courtName"] = cleanText(leadingInThe.ReplaceAllString(c, ""))
	}
	if c := m.String("county"); c != "" {
		m["county"] = trimCounty(c)
	}
	if s := m.String("state"); s != "" {
		m["state"] = NormalizeState(s)
	}
	if t := m.String("orderType"); t != "" {
		m["orderType"] = strings.ToLower(t)
	}
	if kids := collectPeople(text, childLine); len(kids) > 0 {
		m["children"] = kids
	}
	return m
}

func trimCounty(raw string) string {
	s := cleanText(raw)
	lower := strings.ToLower(s)
	if strings.HasSuffix(lower, " county") {
		s = s[:len(s)-len(" county")]
	}
	return s
}
