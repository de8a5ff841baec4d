package fields

import (
	"regexp"
	"strings"
)

var spouseSkip = []string{"spouse", "spouses"}

var taxReturnRules = []rule{
	{key: "taxYear", kind: kindYear, patterns: patterns(
		labeled(yearValue, `tax\s+year`, `for\s+the\s+year`),
		raw(`(?i)\b((?:19|20)\d{2})\s+(?:form\s+1040|u\.?s\.?\s+individual\s+income\s+tax)`, `(?i)form\s+1040[^\n]*?\b((?:19|20)\d{2})\b`),
	)},
	{key: "filingStatus", kind: kindText, patterns: labeledText(`filing\s+status`)},
	{key: "firstName", kind: kindText, skipAfter: spouseSkip, patterns: labeledText(`your\s+first\s+name(?:\s+and\s+(?:middle\s+)?initial)?`, `first\s+name(?:\s+and\s+(?:middle\s+)?initial)?`)},
	{key: "lastName", kind: kindText, skipAfter: spouseSkip, patterns: labeledText(`last\s+name`)},
	{key: "fullName", kind: kindText, skipAfter: nameSkip, patterns: labeledText(`taxpayer(?:\s+name)?`, `name\(s\)\s+shown\s+on\s+return`, `your\s+name`, `name`)},
	{key: "ssn", kind: kindSSN, skipAfter: spouseSkip, patterns: labeled(ssnValue, `your\s+social\s+security\s+number`, `social\s+security\s+(?:number|no\.?)`, `ssn`)},
	{key: "spouseFirstName", kind: kindText, patterns: labeledText(`spouse(?:'|’)?s?\s+first\s+name(?:\s+and\s+(?:middle\s+)?initial)?`)},
	{key: "spouseLastName", kind: kindText, patterns: labeledText(`spouse(?:'|’)?s?\s+last\s+name`)},
	{key: "spouseFullName", kind: kindText, patterns: labeledText(`spouse(?:'|’)?s?\s+name`, `spouse`)},
	{key: "spouseSsn", kind: kindSSN, patterns: labeled(ssnValue, `spouse(?:'|’)?s?\s+social\s+security\s+(?:number|no\.?)`, `spouse(?:'|’)?s?\s+ssn`)},
	{key: "wages", kind: kindAmount, patterns: labeled(amountValue, `wages,?\s+salaries,?\s+(?:and\s+)?tips`, `total\s+amount\s+from\s+form\(?s\)?\s+w-2`, `wages`)},
	{key: "interestIncome", kind: kindAmount, patterns: labeled(amountValue, `taxable\s+interest`, `interest\s+income`)},
	{key: "dividendIncome", kind: kindAmount, patterns: labeled(amountValue, `ordinary\s+dividends`, `dividend\s+income`)},
	{key: "businessIncome", kind: kindAmount, patterns: labeled(amountValue, `business\s+income(?:\s+or\s+\(loss\))?`, `schedule\s+c\s+income`)},
	{key: "totalIncome", kind: kindAmount, patterns: labeled(amountValue, `total\s+income`)},
	{key: "adjustedGrossIncome", kind: kindAmount, patterns: labeled(amountValue, `adjusted\s+gross\s+income`, `agi`)},
	{key: "federalTaxWithheld", kind: kindAmount, patterns: labeled(amountValue, `federal\s+income\s+tax\s+withheld`, `total\s+tax\s+withheld`)},
	{key: "totalTax", kind: kindAmount, patterns: labeled(amountValue, `total\s+tax`)},
}

var (
	filingCheckbox = regexp.MustCompile(`(?im)(?:\[\s*x\s*\]|\(\s*x\s*\)|☒|■|✓|✔)\s*(single|married\s+filing\s+jointly|married\s+filing\s+separately|head\s+of\s+household|qualifying\s+(?:surviving\s+spouse|widow\(?er\)?))`)
	dependentLine  = regexp.MustCompile(`(?im)^[ \t]*dependent(?:\s*#?\s*\d+)?\s*[:#][ \t]*([^\n]+)$`)
)

// NormalizeFilingStatus maps a printed filing status to a snake_case value.
func NormalizeFilingStatus(raw string) string {
	s := strings.ToLower(cleanText(raw))
	switch {
	case strings.Contains(s, "jointly"):
		return "married_filing_jointly"
	case strings.Contains(s, "separately"):
		return "married_filing_separately"
	case strings.Contains(s, "head of household"):
		return "head_of_household"
	case strings.Contains(s, "qualifying"), strings.Contains(s, "widow"):
		return "qualifying_surviving_spouse"
	case strings.HasPrefix(s, "single"):
		return "single"
	default:
		return s
	}
}

func parseTaxReturn(text string) Map {
	m := applyRules(text, taxReturnRules)
	if fs := m.String("filingStatus"); fs != "" {
		m["filingStatus"] = NormalizeFilingStatus(fs)
	} else if c := filingCheckbox.FindStringSubmatch(text); c != nil {
		m["filingStatus"] = NormalizeFilingStatus(c[1])
	}
	if addr := parseAddress(text, `home\s+address(?:\s*\(number\s+and\s+street\))?`, `address`); addr != nil {
		m["address"] = addr
	}
	if deps := collectPeople(text, dependentLine); len(deps) > 0 {
		m["dependents"] = deps
	}
	return m
}

var w2Rules = []rule{
	{key: "taxYear", kind: kindYear, patterns: patterns(
		labeled(yearValue, `tax\s+year`),
		raw(`(?i)\b((?:19|20)\d{2})\s+(?:form\s+)?w-?2\b`, `(?i)wage\s+and\s+tax\s+statement\s*((?:19|20)\d{2})\b`, `(?i)\bw-?2\b[^\n]*?\b((?:19|20)\d{2})\b`),
	)},
	{key: "employerName", kind: kindText, patterns: patterns(
		labeledText(`employer(?:'|’)?s?\s+name`, `employer`),
		labeledBelow(`employer(?:'|’)?s?\s+name,?\s+address`),
	)},
	{key: "employerEin", kind: kindText, patterns: patterns(
		labeled(einValue, `employer\s+identification\s+number(?:\s*\(ein\))?`, `employer(?:'|’)?s?\s+(?:fed(?:eral)?\s+)?id(?:entification)?\s+(?:number|no\.?)`, `f?ein`),
		raw(`\b(\d{2}-\d{7})\b`),
	)},
	{key: "employerAddress", kind: kindText, patterns: labeledText(`employer(?:'|’)?s?\s+address`)},
	{key: "employeeFullName", kind: kindText, patterns: patterns(
		labeledText(`employee(?:'|’)?s?\s+(?:full\s+)?name`, `employee`),
		labeledBelow(`employee(?:'|’)?s?\s+first\s+name`),
	)},
	{key: "employeeSsn", kind: kindSSN, patterns: labeled(ssnValue, `employee(?:'|’)?s?\s+social\s+security\s+number`, `employee(?:'|’)?s?\s+ssn`, `ssn`)},
	{key: "wages", kind: kindAmount, patterns: labeled(amountValue, `wages,?\s+tips,?\s+(?:and\s+)?other\s+comp(?:ensation|\.)?`, `box\s*1\b`)},
	{key: "federalTaxWithheld", kind: kindAmount, patterns: labeled(amountValue, `federal\s+income\s+tax\s+withheld`, `box\s*2\b`)},
	{key: "socialSecurityWages", kind: kindAmount, patterns: labeled(amountValue, `social\s+security\s+wages`, `box\s*3\b`)},
	{key: "socialSecurityTax", kind: kindAmount, patterns: labeled(amountValue, `social\s+security\s+tax\s+withheld`, `box\s*4\b`)},
	{key: "medicareWages", kind: kindAmount, patterns: labeled(amountValue, `medicare\s+wages(?:\s+and\s+tips)?`, `box\s*5\b`)},
	{key: "medicareTax", kind: kindAmount, patterns: labeled(amountValue, `medicare\s+tax\s+withheld`, `box\s*6\b`)},
	{key: "stateWages", kind: kindAmount, patterns: labeled(amountValue, `state\s+wages,?(?:\s+tips,?\s+etc\.?)?`, `box\s*16\b`)},
	{key: "stateTax", kind: kindAmount, patterns: labeled(amountValue, `state\s+income\s+tax`, `box\s*17\b`)},
}

func parseW2(text string) Map {
	return applyRules(text, w2Rules)
}

var form1099Rules = []rule{
	{key: "taxYear", kind: kindYear, patterns: patterns(
		labeled(yearValue, `tax\s+year`, `for\s+calendar\s+year`, `calendar\s+year`),
		raw(`(?i)\b((?:19|20)\d{2})\s+form\s+1099`, `(?i)form\s+1099[^\n]*?\b((?:19|20)\d{2})\b`),
	)},
	{key: "formVariant", kind: kindText, patterns: raw(`(?i)\b1099-?(NEC|MISC|INT|DIV|K|G|R|B)\b`)},
	{key: "payerName", kind: kindText, patterns: patterns(
		labeledText(`payer(?:'|’)?s?\s+name`, `payer`),
		labeledBelow(`payer(?:'|’)?s?\s+name,?\s+street`),
	)},
	{key: "payerTin", kind: kindText, patterns: labeled(einValue, `payer(?:'|’)?s?\s+(?:tin|federal\s+identification\s+number)`)},
	{key: "recipientFullName", kind: kindText, patterns: patterns(
		labeledText(`recipient(?:'|’)?s?\s+name`, `recipient`),
		labeledBelow(`recipient(?:'|’)?s?\s+name`),
	)},
	{key: "recipientSsn", kind: kindSSN, patterns: labeled(ssnValue, `recipient(?:'|’)?s?\s+(?:tin|ssn|identification\s+number)`, `ssn`)},
	{key: "nonemployeeCompensation", kind: kindAmount, patterns: labeled(amountValue, `nonemployee\s+compensation`)},
	{key: "otherIncome", kind: kindAmount, patterns: labeled(amountValue, `other\s+income`)},
	{key: "interestIncome", kind: kindAmount, patterns: labeled(amountValue, `interest\s+income`)},
	{key: "ordinaryDividends", kind: kindAmount, patterns: labeled(amountValue, `total\s+ordinary\s+dividends`, `ordinary\s+dividends`)},
	{key: "federalTaxWithheld", kind: kindAmount, patterns: labeled(amountValue, `federal\s+income\s+tax\s+withheld`)},
}

func parse1099(text string) Map {
	m := applyRules(text, form1099Rules)
	if v := m.String("formVariant"); v != "" {
		m["formVariant"] = strings.ToUpper(v)
	}
	return m
}
