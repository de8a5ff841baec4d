package canonical

import (
	"regexp"
	"strconv"
	"strings"

	"filing-backend/internal/fields"
)

// ValueKind tells the resolver how to coerce a candidate value.
type ValueKind string

const (
	KindText   ValueKind = "text"
	KindNumber ValueKind = "number"
	KindDate   ValueKind = "date"
	KindSSN4   ValueKind = "ssn4"
	KindBool   ValueKind = "bool"
	KindID     ValueKind = "id"
	KindEIN    ValueKind = "ein"
)

// FieldAlias maps a canonical column to the candidate keys that can fill it,
// in priority order. Keys may address nested maps with dots ("address.city").
type FieldAlias struct {
	Column  string
	Aliases []string
	Kind    ValueKind
}

// NameAliases locate a person's name parts. Full is split when First or Last
// cannot be resolved.
type NameAliases struct {
	First  []string
	Middle []string
	Last   []string
	Full   []string
}

var personName = NameAliases{
	First:  []string{"firstName", "givenName"},
	Middle: []string{"middleName", "middleInitial"},
	Last:   []string{"lastName", "surname", "familyName"},
	Full:   []string{"fullName", "employeeFullName", "employeeName", "recipientFullName", "name"},
}

var spouseName = NameAliases{
	First:  []string{"spouseFirstName"},
	Middle: []string{"spouseMiddleName"},
	Last:   []string{"spouseLastName"},
	Full:   []string{"spouseFullName", "spouseName"},
}

var personalAliases = []FieldAlias{
	{Column: "date_of_birth", Aliases: []string{"dateOfBirth", "dob", "birthDate"}, Kind: KindDate},
	{Column: "ssn_last_4", Aliases: []string{"ssn", "employeeSsn", "recipientSsn", "ssnLast4"}, Kind: KindSSN4},
	{Column: "sex", Aliases: []string{"sex", "gender"}, Kind: KindText},
	{Column: "drivers_license_number", Aliases: []string{"licenseNumber", "driversLicenseNumber"}, Kind: KindID},
	{Column: "drivers_license_state", Aliases: []string{"licenseState", "driversLicenseState"}, Kind: KindText},
	{Column: "street", Aliases: []string{"address.street", "address.line1"}, Kind: KindText},
	{Column: "city", Aliases: []string{"address.city"}, Kind: KindText},
	{Column: "state", Aliases: []string{"address.state"}, Kind: KindText},
	{Column: "zip", Aliases: []string{"address.zip", "address.postalCode"}, Kind: KindText},
	{Column: "phone", Aliases: []string{"phone", "phoneNumber"}, Kind: KindText},
	{Column: "email", Aliases: []string{"email", "emailAddress"}, Kind: KindText},
	{Column: "filing_status", Aliases: []string{"filingStatus"}, Kind: KindText},
}

// personAliases are the personal columns that also exist on spouse_info.
var personAliases = []FieldAlias{
	{Column: "date_of_birth", Aliases: []string{"dateOfBirth", "dob", "birthDate"}, Kind: KindDate},
	{Column: "ssn_last_4", Aliases: []string{"ssn", "employeeSsn", "recipientSsn", "ssnLast4"}, Kind: KindSSN4},
}

var spouseAliases = []FieldAlias{
	{Column: "date_of_birth", Aliases: []string{"spouseDateOfBirth", "spouseDob"}, Kind: KindDate},
	{Column: "ssn_last_4", Aliases: []string{"spouseSsn", "spouseSsnLast4"}, Kind: KindSSN4},
}

var marriageAliases = []FieldAlias{
	{Column: "date_of_marriage", Aliases: []string{"dateOfMarriage", "marriageDate"}, Kind: KindDate},
	{Column: "place_city", Aliases: []string{"placeCity", "city"}, Kind: KindText},
	{Column: "place_county", Aliases: []string{"placeCounty", "county"}, Kind: KindText},
	{Column: "place_state", Aliases: []string{"placeState", "state"}, Kind: KindText},
	{Column: "certificate_number", Aliases: []string{"certificateNumber", "licenseNumber"}, Kind: KindID},
	{Column: "officiant", Aliases: []string{"officiant", "officiantName"}, Kind: KindText},
	{Column: "spouse1_name", Aliases: []string{"party1FullName", "spouse1Name"}, Kind: KindText},
	{Column: "spouse2_name", Aliases: []string{"party2FullName", "spouse2Name"}, Kind: KindText},
}

var courtAliases = []FieldAlias{
	{Column: "case_number", Aliases: []string{"caseNumber", "docketNumber"}, Kind: KindID},
	{Column: "court_name", Aliases: []string{"courtName"}, Kind: KindText},
	{Column: "county", Aliases: []string{"county"}, Kind: KindText},
	{Column: "state", Aliases: []string{"state"}, Kind: KindText},
	{Column: "judge_name", Aliases: []string{"judgeName", "judge"}, Kind: KindText},
	{Column: "prior_order_date", Aliases: []string{"orderDate", "priorOrderDate"}, Kind: KindDate},
	{Column: "prior_order_type", Aliases: []string{"orderType", "priorOrderType"}, Kind: KindText},
	{Column: "petitioner_name", Aliases: []string{"petitionerName", "petitioner"}, Kind: KindText},
	{Column: "respondent_name", Aliases: []string{"respondentName", "respondent"}, Kind: KindText},
	{Column: "child_support_amount", Aliases: []string{"childSupportAmount"}, Kind: KindNumber},
	{Column: "spousal_support_amount", Aliases: []string{"spousalSupportAmount", "alimonyAmount"}, Kind: KindNumber},
}

var incomeAliases = []FieldAlias{
	{Column: "pay_frequency", Aliases: []string{"payFrequency"}, Kind: KindText},
	{Column: "gross_pay_per_period", Aliases: []string{"wageIncome", "grossPay"}, Kind: KindNumber},
	{Column: "net_pay_per_period", Aliases: []string{"netPay"}, Kind: KindNumber},
	{Column: "gross_annual_income", Aliases: []string{"annualIncome", "grossAnnualIncome"}, Kind: KindNumber},
	{Column: "gross_monthly_income", Aliases: []string{"monthlyIncome", "grossMonthlyIncome"}, Kind: KindNumber},
	{Column: "ytd_gross", Aliases: []string{"ytdGross"}, Kind: KindNumber},
	{Column: "w2_wages", Aliases: []string{"wages", "w2Wages"}, Kind: KindNumber},
	{Column: "self_employment_income", Aliases: []string{"nonemployeeCompensation", "selfEmploymentIncome", "netProfit"}, Kind: KindNumber},
	{Column: "business_income", Aliases: []string{"businessIncome", "netProfit"}, Kind: KindNumber},
	{Column: "interest_income", Aliases: []string{"interestIncome"}, Kind: KindNumber},
	{Column: "dividend_income", Aliases: []string{"dividendIncome", "ordinaryDividends"}, Kind: KindNumber},
	{Column: "other_income", Aliases: []string{"otherIncome"}, Kind: KindNumber},
	{Column: "adjusted_gross_income", Aliases: []string{"adjustedGrossIncome"}, Kind: KindNumber},
	{Column: "tax_year", Aliases: []string{"taxYear"}, Kind: KindText},
}

// expenseAliases map per-document withholding figures to expense columns.
// Resolved amounts are scaled to monthly values by expenseScale.
var expenseAliases = map[fields.DocType][]FieldAlias{
	fields.PayStub: {
		{Column: "federal_tax", Aliases: []string{"federalTax"}, Kind: KindNumber},
		{Column: "state_tax", Aliases: []string{"stateTax"}, Kind: KindNumber},
		{Column: "social_security", Aliases: []string{"socialSecurity"}, Kind: KindNumber},
		{Column: "medicare", Aliases: []string{"medicare"}, Kind: KindNumber},
		{Column: "health_insurance", Aliases: []string{"healthInsurance"}, Kind: KindNumber},
		{Column: "retirement", Aliases: []string{"retirement"}, Kind: KindNumber},
		{Column: "union_dues", Aliases: []string{"unionDues"}, Kind: KindNumber},
	},
	fields.W2: {
		{Column: "federal_tax", Aliases: []string{"federalTaxWithheld"}, Kind: KindNumber},
		{Column: "state_tax", Aliases: []string{"stateTax"}, Kind: KindNumber},
		{Column: "social_security", Aliases: []string{"socialSecurityTax"}, Kind: KindNumber},
		{Column: "medicare", Aliases: []string{"medicareTax"}, Kind: KindNumber},
	},
	fields.Form1099: {
		{Column: "federal_tax", Aliases: []string{"federalTaxWithheld"}, Kind: KindNumber},
	},
	fields.TaxReturn: {
		{Column: "federal_tax", Aliases: []string{"totalTax", "federalTaxWithheld"}, Kind: KindNumber},
	},
}

var childAliases = []FieldAlias{
	{Column: "date_of_birth", Aliases: []string{"dateOfBirth", "dob", "birthDate"}, Kind: KindDate},
	{Column: "relationship", Aliases: []string{"relationship"}, Kind: KindText},
	{Column: "ssn_last_4", Aliases: []string{"ssn", "ssnLast4"}, Kind: KindSSN4},
}

var employerAliases = []FieldAlias{
	{Column: "employer_name", Aliases: []string{"employerName", "name"}, Kind: KindText},
	{Column: "employer_address", Aliases: []string{"employerAddress", "address"}, Kind: KindText},
	{Column: "employer_ein", Aliases: []string{"employerEin", "ein"}, Kind: KindEIN},
}

var assetAliases = []FieldAlias{
	{Column: "asset_type", Aliases: []string{"assetType", "type", "accountType"}, Kind: KindText},
	{Column: "institution", Aliases: []string{"institution", "bankName"}, Kind: KindText},
	{Column: "account_last_4", Aliases: []string{"accountLast4", "accountNumberLast4", "accountNumber"}, Kind: KindSSN4},
	{Column: "description", Aliases: []string{"description"}, Kind: KindText},
	{Column: "value", Aliases: []string{"value", "balance", "currentValue"}, Kind: KindNumber},
}

var debtAliases = []FieldAlias{
	{Column: "debt_type", Aliases: []string{"debtType", "type", "accountType"}, Kind: KindText},
	{Column: "creditor", Aliases: []string{"creditor", "lender", "institution"}, Kind: KindText},
	{Column: "account_last_4", Aliases: []string{"accountLast4", "accountNumberLast4", "accountNumber"}, Kind: KindSSN4},
	{Column: "balance", Aliases: []string{"balance", "amountOwed"}, Kind: KindNumber},
	{Column: "monthly_payment", Aliases: []string{"monthlyPayment", "minimumPayment"}, Kind: KindNumber},
}

// Resolve returns the columns of aliases that have a usable value in m.
// For each column the first alias with a non-null, non-empty value wins.
func Resolve(m map[string]any, aliases []FieldAlias) Values {
	out := Values{}
	for _, a := range aliases {
		for _, key := range a.Aliases {
			if v, ok := coerceValue(a.Kind, lookup(m, key)); ok {
				out[a.Column] = v
				break
			}
		}
	}
	return out
}

// ResolveName fills first_name, middle_name and last_name from n. Explicit
// parts win; the full name only fills the parts that are missing.
func ResolveName(m map[string]any, n NameAliases) Values {
	out := Resolve(m, []FieldAlias{
		{Column: "first_name", Aliases: n.First, Kind: KindText},
		{Column: "middle_name", Aliases: n.Middle, Kind: KindText},
		{Column: "last_name", Aliases: n.Last, Kind: KindText},
	})
	if out["first_name"] != nil && out["last_name"] != nil {
		return out
	}
	full := Resolve(m, []FieldAlias{{Column: "full", Aliases: n.Full, Kind: KindText}})
	name, ok := full["full"].(string)
	if !ok {
		return out
	}
	first, middle, last := SplitName(name)
	setIfMissing(out, "first_name", first)
	setIfMissing(out, "middle_name", middle)
	setIfMissing(out, "last_name", last)
	return out
}

func setIfMissing(v Values, col, s string) {
	if s == "" || v[col] != nil {
		return
	}
	v[col] = s
}

var nameSuffixes = map[string]bool{"jr": true, "sr": true, "ii": true, "iii": true, "iv": true}

// SplitName splits a full name on whitespace into first, middle and last.
// "Last, First Middle" is recognized. Interior tokens become the middle name.
func SplitName(full string) (first, middle, last string) {
	full = strings.Join(strings.Fields(full), " ")
	if before, after, ok := strings.Cut(full, ","); ok {
		rest := strings.Fields(after)
		if len(rest) > 0 && !nameSuffixes[suffixKey(rest[0])] {
			last = strings.TrimSpace(before)
			first = rest[0]
			middle = strings.Join(rest[1:], " ")
			return first, middle, last
		}
		full = strings.TrimSpace(before)
	}

	tokens := strings.Fields(full)
	for len(tokens) > 2 && nameSuffixes[suffixKey(tokens[len(tokens)-1])] {
		tokens = tokens[:len(tokens)-1]
	}
	switch len(tokens) {
	case 0:
		return "", "", ""
	case 1:
		return tokens[0], "", ""
	}
	first = tokens[0]
	last = tokens[len(tokens)-1]
	middle = strings.Join(tokens[1:len(tokens)-1], " ")
	return first, middle, last
}

func suffixKey(tok string) string {
	return strings.ToLower(strings.TrimSuffix(tok, "."))
}

// SSNLast4 keeps only the last four digits of an identifier. It reports
// false when fewer than four digits are present.
func SSNLast4(raw string) (string, bool) {
	digits := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			digits = append(digits, raw[i])
		}
	}
	if len(digits) < 4 {
		return "", false
	}
	return string(digits[len(digits)-4:]), true
}

func lookup(m map[string]any, path string) any {
	var cur any = m
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			if fm, isMap := cur.(fields.Map); isMap {
				obj = fm
			} else {
				return nil
			}
		}
		cur = obj[part]
	}
	return cur
}

func coerceValue(kind ValueKind, v any) (any, bool) {
	if v == nil {
		return nil, false
	}
	switch kind {
	case KindNumber:
		switch x := v.(type) {
		case float64:
			return x, true
		case int:
			return float64(x), true
		case int64:
			return float64(x), true
		case string:
			return fields.ParseAmount(x)
		}
		return nil, false
	case KindBool:
		switch x := v.(type) {
		case bool:
			return x, true
		case string:
			switch strings.ToLower(strings.TrimSpace(x)) {
			case "true", "yes", "y", "1":
				return true, true
			case "false", "no", "n", "0":
				return false, true
			}
		}
		return nil, false
	case KindSSN4:
		s, ok := textValue(v)
		if !ok {
			return nil, false
		}
		return SSNLast4(s)
	case KindDate:
		s, ok := textValue(v)
		if !ok {
			return nil, false
		}
		return fields.NormalizeDate(s), true
	case KindEIN:
		// Stored as XX-XXXXXXX so it never looks like an SSN.
		s, ok := textValue(v)
		if !ok {
			return nil, false
		}
		s = scrubSSN(s, ssnShaped)
		if d := digitsOf(s); len(d) == 9 {
			return d[:2] + "-" + d[2:], true
		}
		return s, s != ""
	case KindID:
		// Printed identifiers keep undashed digit runs.
		s, ok := textValue(v)
		if !ok {
			return nil, false
		}
		s = scrubSSN(s, ssnShaped)
		return s, s != ""
	default:
		s, ok := textValue(v)
		if !ok {
			return nil, false
		}
		s = scrubSSN(s, ssnShaped, ssnLabeled, nineDigits)
		return s, s != ""
	}
}

var (
	ssnShaped  = regexp.MustCompile(`\b\d{3}(?:-\d{2}-| \d{2} )\d{4}\b`)
	ssnLabeled = regexp.MustCompile(`(?i)\b(?:ssn|soc(?:ial)?\.?\s+sec(?:urity)?\.?(?:\s+(?:number|no\.?))?)\s*(?:[:#]\s*|$)`)
	nineDigits = regexp.MustCompile(`\b\d{9}\b`)
)

// scrubSSN removes full social security numbers from free text. Only
// ssn_last_4 may carry SSN digits, so any SSN-shaped run and a dangling
// SSN label are dropped before a text column is written.
func scrubSSN(s string, res ...*regexp.Regexp) string {
	hit := false
	for _, re := range res {
		if re.MatchString(s) {
			hit = true
			s = re.ReplaceAllString(s, " ")
		}
	}
	if !hit {
		return s
	}
	return strings.Trim(strings.Join(strings.Fields(s), " "), " ,;:#")
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func textValue(v any) (string, bool) {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		s = strconv.Itoa(x)
	case bool:
		s = strconv.FormatBool(x)
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}
