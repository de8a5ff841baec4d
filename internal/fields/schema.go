package fields

// Schema lists the fields a parser is expected to produce for one document type.
// Critical fields are advisory: their absence flags a record for review, nothing more.
type Schema struct {
	Expected []string
	Critical []string
}

var registry = map[DocType]Schema{
	DriversLicense: {
		Expected: []string{"firstName", "middleName", "lastName", "fullName", "dateOfBirth", "licenseNumber", "licenseState", "expirationDate", "issueDate", "sex", "address"},
		Critical: []string{"lastName", "dateOfBirth", "licenseNumber"},
	},
	TaxReturn: {
		Expected: []string{"taxYear", "filingStatus", "firstName", "lastName", "fullName", "ssn", "spouseFirstName", "spouseLastName", "spouseFullName", "spouseSsn", "address", "wages", "interestIncome", "dividendIncome", "businessIncome", "totalIncome", "adjustedGrossIncome", "federalTaxWithheld", "totalTax", "dependents"},
		Critical: []string{"taxYear", "filingStatus", "adjustedGrossIncome"},
	},
	PayStub: {
		Expected: []string{"employerName", "employerAddress", "employeeFullName", "employeeSsn", "payPeriodStart", "payPeriodEnd", "payDate", "payFrequency", "wageIncome", "netPay", "ytdGross", "federalTax", "stateTax", "socialSecurity", "medicare", "healthInsurance", "retirement", "annualIncome", "monthlyIncome"},
		Critical: []string{"employerName", "wageIncome", "payFrequency"},
	},
	BankStatement: {
		Expected: []string{"bankName", "accountHolder", "accountNumberLast4", "accountType", "statementStartDate", "statementEndDate", "beginningBalance", "endingBalance", "totalDeposits", "totalWithdrawals", "minimumPayment", "address"},
		Critical: []string{"bankName", "endingBalance"},
	},
	W2: {
		Expected: []string{"taxYear", "employerName", "employerEin", "employerAddress", "employeeFullName", "employeeSsn", "wages", "federalTaxWithheld", "socialSecurityWages", "socialSecurityTax", "medicareWages", "medicareTax", "stateWages", "stateTax"},
		Critical: []string{"employerName", "wages"},
	},
	Form1099: {
		Expected: []string{"taxYear", "formVariant", "payerName", "payerTin", "recipientFullName", "recipientSsn", "nonemployeeCompensation", "otherIncome", "interestIncome", "ordinaryDividends", "federalTaxWithheld"},
		Critical: []string{"payerName"},
	},
	MarriageCertificate: {
		Expected: []string{"party1FullName", "party2FullName", "dateOfMarriage", "placeCity", "placeCounty", "placeState", "certificateNumber", "officiant"},
		Critical: []string{"party1FullName", "party2FullName", "dateOfMarriage"},
	},
	PriorCourtOrder: {
		Expected: []string{"caseNumber", "courtName", "county", "state", "judgeName", "orderDate", "orderType", "petitionerName", "respondentName", "childSupportAmount", "spousalSupportAmount", "children"},
		Critical: []string{"caseNumber", "courtName"},
	},
	ProfitAndLoss: {
		Expected: []string{"businessName", "ownerName", "periodStart", "periodEnd", "grossReceipts", "totalExpenses", "netProfit"},
		Critical: []string{"netProfit"},
	},
}

// Lookup returns the schema registered for t.
func Lookup(t DocType) (Schema, bool) {
	s, ok := registry[t]
	return s, ok
}

// ExpectedFields returns the fields a parser for t may produce.
func ExpectedFields(t DocType) []string {
	return append([]string(nil), registry[t].Expected...)
}

// CriticalFields returns the advisory critical subset for t.
func CriticalFields(t DocType) []string {
	return append([]string(nil), registry[t].Critical...)
}

// MissingCritical lists the critical fields of t that are absent or empty in m.
func MissingCritical(t DocType, m map[string]any) []string {
	var missing []string
	for _, f := range registry[t].Critical {
		if isEmpty(m[f]) {
			missing = append(missing, f)
		}
	}
	return missing
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	default:
		return false
	}
}

// Value kinds of candidate fields.
const (
	KindString = "string"
	KindNumber = "number"
	KindDate   = "date"
	KindObject = "object"
	KindList   = "list"
)

var fieldKinds = map[string]string{}

func init() {
	for _, k := range []string{
		"wages", "interestIncome", "dividendIncome", "businessIncome", "totalIncome", "adjustedGrossIncome",
		"federalTaxWithheld", "totalTax", "wageIncome", "netPay", "ytdGross", "federalTax", "stateTax",
		"socialSecurity", "medicare", "healthInsurance", "retirement", "annualIncome", "monthlyIncome",
		"beginningBalance", "endingBalance", "totalDeposits", "totalWithdrawals", "minimumPayment",
		"socialSecurityWages", "socialSecurityTax", "medicareWages", "medicareTax", "stateWages",
		"nonemployeeCompensation", "otherIncome", "ordinaryDividends", "childSupportAmount",
		"spousalSupportAmount", "grossReceipts", "totalExpenses", "netProfit",
	} {
		fieldKinds[k] = KindNumber
	}
	for _, k := range []string{
		"dateOfBirth", "expirationDate", "issueDate", "payPeriodStart", "payPeriodEnd", "payDate",
		"statementStartDate", "statementEndDate", "dateOfMarriage", "orderDate", "periodStart", "periodEnd",
	} {
		fieldKinds[k] = KindDate
	}
	fieldKinds["address"] = KindObject
	for _, k := range []string{"dependents", "children", "assets", "debts", "employers"} {
		fieldKinds[k] = KindList
	}
}

// FieldKind reports the value kind of a candidate field; unknown keys are strings.
func FieldKind(key string) string {
	if k, ok := fieldKinds[key]; ok {
		return k
	}
	return KindString
}
