package fields

import (
	"regexp"
	"strings"
)

var nameSkip = []string{"first", "last", "middle", "given", "family", "spouse", "spouses", "employer", "employers", "business", "bank", "file", "account"}

var driversLicenseRules = []rule{
	{key: "licenseNumber", kind: kindID, patterns: patterns(
		labeled(idValue, `(?:driver'?s?\s+)?licen[sc]e\s+(?:number|no\.?|#)`, `dl\s*(?:no\.?|#|number)`, `dln`, `lic\s*(?:no\.?|#)`, `dl`),
	)},
	{key: "lastName", kind: kindText, patterns: patterns(
		labeledText(`last\s+name`, `surname`, `family\s+name`),
		labeled(wordValue, `ln\b`),
	)},
	{key: "firstName", kind: kindText, patterns: patterns(
		labeledText(`first\s+name`, `given\s+name`),
		labeled(wordValue, `fn\b`),
	)},
	{key: "middleName", kind: kindText, patterns: patterns(
		labeledText(`middle\s+name`),
		labeled(wordValue, `mn\b`),
	)},
	{key: "fullName", kind: kindText, patterns: labeledText(`full\s+name`, `name`), skipAfter: nameSkip},
	{key: "dateOfBirth", kind: kindDate, patterns: labeled(dateValue, `dob`, `date\s+of\s+birth`, `birth\s*date`, `born`)},
	{key: "expirationDate", kind: kindDate, patterns: labeled(dateValue, `exp(?:ires|iration)?(?:\s+date)?`)},
	{key: "issueDate", kind: kindDate, patterns: labeled(dateValue, `iss(?:ued|ue\s+date)?`)},
	{key: "sex", kind: kindText, patterns: labeled(`([MF])\b`, `sex`, `gender`)},
}

var licenseStateHeader = regexp.MustCompile(`(?i)\b(` + stateNamePattern + `)\b[^\n]*\b(?:driver|license|identification)`)

func parseDriversLicense(text string) Map {
	m := applyRules(text, driversLicenseRules)
	if s, ok := m["sex"].(string); ok {
		m["sex"] = strings.ToUpper(s)
	}
	if addr := parseAddress(text, `address`, `addr`, `residence`); addr != nil {
		m["address"] = addr
	}
	if h := licenseStateHeader.FindStringSubmatch(text); h != nil {
		m["licenseState"] = NormalizeState(h[1])
	} else if addr, ok := m["address"].(map[string]any); ok && addr["state"] != nil {
		m["licenseState"] = addr["state"]
	}
	return m
}
