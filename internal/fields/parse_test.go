package fields

import (
	"reflect"
	"testing"
)

const acmeStub = `ACME CORP EARNINGS STATEMENT
EMPLOYER: Acme Corp
EMPLOYEE: Jane Q Public
PAY PERIOD: 01/01/2024 TO 01/14/2024
PAY DATE: 01/19/2024
GROSS PAY: $4,000.00
YTD GROSS: $8,000.00
FEDERAL INCOME TAX: $400.00
SOCIAL SECURITY: $248.00
MEDICARE: $58.00
NET PAY: $3,294.00
`

func TestParsePayStubEndToEnd(t *testing.T) {
	m := Parse(acmeStub, PayStub)

	if got := m.String("employerName"); got != "Acme Corp" {
		t.Fatalf("employerName = %q", got)
	}
	if got, _ := m.Float("wageIncome"); got != 4000 {
		t.Fatalf("wageIncome = %v", got)
	}
	if got := m.String("payFrequency"); got != Biweekly {
		t.Fatalf("payFrequency = %q", got)
	}
	if got, _ := m.Float("annualIncome"); got != 104000 {
		t.Fatalf("annualIncome = %v", got)
	}
	if got := m.String("payPeriodStart"); got != "2024-01-01" {
		t.Fatalf("payPeriodStart = %q", got)
	}
	if got := m.String("payPeriodEnd"); got != "2024-01-14" {
		t.Fatalf("payPeriodEnd = %q", got)
	}
	if got, _ := m.Float("ytdGross"); got != 8000 {
		t.Fatalf("ytdGross = %v", got)
	}
	if got, _ := m.Float("netPay"); got != 3294 {
		t.Fatalf("netPay = %v", got)
	}
	if got := m.String("employeeFullName"); got != "Jane Q Public" {
		t.Fatalf("employeeFullName = %q", got)
	}
	if got := m.String("rawText"); got != acmeStub {
		t.Fatalf("rawText not preserved")
	}
}

func TestParsePayStubExplicitFrequencyWins(t *testing.T) {
	text := "Employer: Globex\nPay Frequency: Weekly\nPay Period: 01/01/2024 - 01/14/2024\nGross Pay 1,000.00\n"
	m := Parse(text, PayStub)
	if got := m.String("payFrequency"); got != Weekly {
		t.Fatalf("payFrequency = %q", got)
	}
	if got, _ := m.Float("annualIncome"); got != 52000 {
		t.Fatalf("annualIncome = %v", got)
	}
}

func TestParsePayStubSkipsYearToDateGross(t *testing.T) {
	text := "YTD GROSS PAY: 12,000.00\nGROSS PAY: 2,000.00\n"
	m := Parse(text, PayStub)
	if got, _ := m.Float("wageIncome"); got != 2000 {
		t.Fatalf("wageIncome = %v", got)
	}
	if got, _ := m.Float("ytdGross"); got != 12000 {
		t.Fatalf("ytdGross = %v", got)
	}
}

func TestParseIsPure(t *testing.T) {
	for _, dt := range DocTypes() {
		a := Parse(acmeStub, dt)
		b := Parse(acmeStub, dt)
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("%s: parse not deterministic", dt)
		}
	}
}

func TestParseUnknownTypeReturnsRawTextOnly(t *testing.T) {
	m := Parse("hello world", DocType("unknownType"))
	want := Map{"rawText": "hello world"}
	if !reflect.DeepEqual(m, want) {
		t.Fatalf("got %#v", m)
	}
}

func TestParseFillsMissingExpectedFieldsWithNil(t *testing.T) {
	m := Parse("nothing useful here", W2)
	for _, f := range ExpectedFields(W2) {
		v, ok := m[f]
		if !ok {
			t.Fatalf("expected key %s present", f)
		}
		if v != nil {
			t.Fatalf("expected %s nil, got %v", f, v)
		}
	}
	if missing := MissingCritical(W2, m); !reflect.DeepEqual(missing, []string{"employerName", "wages"}) {
		t.Fatalf("missing critical = %v", missing)
	}
}

func TestParseDriversLicense(t *testing.T) {
	text := `CALIFORNIA DRIVER LICENSE
DL D1234567
LN SMITH
FN JOHN
DOB 03/15/1985
EXP 03/15/2029
SEX M
ADDRESS: 123 MAIN ST, SPRINGFIELD, CA 90210
`
	m := Parse(text, DriversLicense)
	checks := map[string]string{
		"licenseNumber":  "D1234567",
		"lastName":       "SMITH",
		"firstName":      "JOHN",
		"dateOfBirth":    "1985-03-15",
		"expirationDate": "2029-03-15",
		"sex":            "M",
		"licenseState":   "CA",
	}
	for k, want := range checks {
		if got := m.String(k); got != want {
			t.Fatalf("%s = %q, want %q", k, got, want)
		}
	}
	addr, ok := m["address"].(map[string]any)
	if !ok {
		t.Fatalf("address missing: %#v", m["address"])
	}
	want := map[string]any{"street": "123 MAIN ST", "city": "SPRINGFIELD", "state": "CA", "zip": "90210"}
	if !reflect.DeepEqual(addr, want) {
		t.Fatalf("address = %#v", addr)
	}
}

func TestParseTaxReturnDependents(t *testing.T) {
	text := `2023 Form 1040 U.S. Individual Income Tax Return
Filing Status: Married filing jointly
Your first name and middle initial: John A
Last name: Doe
Your social security number: 123-45-6789
Spouse's first name and middle initial: Mary
Spouse's last name: Doe
Spouse's social security number: 987-65-4321
Dependent 1: Tommy Doe 111-22-3333 son
Dependent 2: Sally Doe 444-55-6666 daughter
Wages, salaries, tips: 85,000.00
Taxable interest: 120.50
Adjusted gross income: 84,000.00
`
	m := Parse(text, TaxReturn)
	if got := m.String("taxYear"); got != "2023" {
		t.Fatalf("taxYear = %q", got)
	}
	if got := m.String("filingStatus"); got != "married_filing_jointly" {
		t.Fatalf("filingStatus = %q", got)
	}
	if got := m.String("firstName"); got != "John A" {
		t.Fatalf("firstName = %q", got)
	}
	if got := m.String("lastName"); got != "Doe" {
		t.Fatalf("lastName = %q", got)
	}
	if got := m.String("ssn"); got != "123-45-6789" {
		t.Fatalf("ssn = %q", got)
	}
	if got := m.String("spouseFirstName"); got != "Mary" {
		t.Fatalf("spouseFirstName = %q", got)
	}
	if got := m.String("spouseSsn"); got != "987-65-4321" {
		t.Fatalf("spouseSsn = %q", got)
	}
	if got, _ := m.Float("wages"); got != 85000 {
		t.Fatalf("wages = %v", got)
	}
	if got, _ := m.Float("adjustedGrossIncome"); got != 84000 {
		t.Fatalf("agi = %v", got)
	}
	deps, ok := m["dependents"].([]any)
	if !ok || len(deps) != 2 {
		t.Fatalf("dependents = %#v", m["dependents"])
	}
	first := deps[0].(map[string]any)
	if first["fullName"] != "Tommy Doe" || first["ssn"] != "111-22-3333" || first["relationship"] != "son" {
		t.Fatalf("first dependent = %#v", first)
	}
}

func TestParseBankStatementRoutesAccounts(t *testing.T) {
	checking := `First National Bank
Account Holder: Jane Public
Account Number: XXXX-XXXX-1234
Account Type: Checking
Statement Period: 01/01/2024 - 01/31/2024
Beginning Balance: $1,000.00
Ending Balance: $2,500.75
`
	m := Parse(checking, BankStatement)
	if got := m.String("bankName"); got != "First National Bank" {
		t.Fatalf("bankName = %q", got)
	}
	if got := m.String("accountNumberLast4"); got != "1234" {
		t.Fatalf("last4 = %q", got)
	}
	if got := m.String("statementEndDate"); got != "2024-01-31" {
		t.Fatalf("statementEndDate = %q", got)
	}
	assets, ok := m["assets"].([]any)
	if !ok || len(assets) != 1 {
		t.Fatalf("assets = %#v", m["assets"])
	}
	asset := assets[0].(map[string]any)
	if asset["assetType"] != "checking" || asset["value"] != 2500.75 || asset["institution"] != "First National Bank" {
		t.Fatalf("asset = %#v", asset)
	}
	if m["debts"] != nil {
		t.Fatalf("unexpected debts %#v", m["debts"])
	}

	card := "Bank: Capital Two\nAccount Type: Credit Card\nAccount Number: 9876\nNew Balance: $1,200.00\nMinimum Payment Due: $35.00\n"
	m = Parse(card, BankStatement)
	debts, ok := m["debts"].([]any)
	if !ok || len(debts) != 1 {
		t.Fatalf("debts = %#v", m["debts"])
	}
	debt := debts[0].(map[string]any)
	if debt["debtType"] != "credit_card" || debt["balance"] != 1200.0 || debt["monthlyPayment"] != 35.0 || debt["creditor"] != "Capital Two" {
		t.Fatalf("debt = %#v", debt)
	}
}

func TestParseW2(t *testing.T) {
	text := `2023 W-2 Wage and Tax Statement
Employer: Initech LLC
Employer identification number: 12-3456789
Employee: Peter Gibbons
Employee's social security number: 123-45-6789
Wages, tips, other compensation: 72,500.00
Federal income tax withheld: 9,800.00
Social security tax withheld: 4,495.00
Medicare tax withheld: 1,051.25
`
	m := Parse(text, W2)
	if m.String("taxYear") != "2023" || m.String("employerName") != "Initech LLC" || m.String("employerEin") != "12-3456789" {
		t.Fatalf("header fields wrong: %#v", m)
	}
	if got, _ := m.Float("wages"); got != 72500 {
		t.Fatalf("wages = %v", got)
	}
	if got, _ := m.Float("medicareTax"); got != 1051.25 {
		t.Fatalf("medicareTax = %v", got)
	}
}

func TestParse1099(t *testing.T) {
	text := "Form 1099-NEC 2023\nPayer's name: Widgets Inc\nRecipient's name: Sam Contractor\nNonemployee compensation: $15,000.00\n"
	m := Parse(text, Form1099)
	if m.String("formVariant") != "NEC" || m.String("taxYear") != "2023" || m.String("payerName") != "Widgets Inc" {
		t.Fatalf("unexpected %#v", m)
	}
	if got, _ := m.Float("nonemployeeCompensation"); got != 15000 {
		t.Fatalf("nec = %v", got)
	}
}

func TestParseMarriageCertificate(t *testing.T) {
	text := `CERTIFICATE OF MARRIAGE
Party A Name: John Albert Doe
Party B Name: Mary Ann Smith
Date of Marriage: 06/20/2015
Place of Marriage: Springfield, Sangamon County, Illinois
Certificate No: 2015-004321
Officiant: Rev. Alan Green
`
	m := Parse(text, MarriageCertificate)
	checks := map[string]string{
		"party1FullName":    "John Albert Doe",
		"party2FullName":    "Mary Ann Smith",
		"dateOfMarriage":    "2015-06-20",
		"placeCity":         "Springfield",
		"placeCounty":       "Sangamon",
		"placeState":        "IL",
		"certificateNumber": "2015-004321",
		"officiant":         "Rev. Alan Green",
	}
	for k, want := range checks {
		if got := m.String(k); got != want {
			t.Fatalf("%s = %q, want %q", k, got, want)
		}
	}
}

func TestParsePriorCourtOrder(t *testing.T) {
	text := `SUPERIOR COURT OF CALIFORNIA, COUNTY OF ORANGE
Case Number: FL-2019-00123
Petitioner: John Doe
Respondent: Mary Doe
JUDGMENT OF DISSOLUTION
Child support in the amount of $850.00 per month
Spousal support: $400.00
Child 1: Emma Doe, DOB 03/04/2015
Child 2: Liam Doe, DOB 07/09/2017
Dated: 02/01/2020
Hon. Patricia Reyes
`
	m := Parse(text, PriorCourtOrder)
	if got := m.String("caseNumber"); got != "FL-2019-00123" {
		t.Fatalf("caseNumber = %q", got)
	}
	if got := m.String("county"); got != "ORANGE" {
		t.Fatalf("county = %q", got)
	}
	if got := m.String("state"); got != "CA" {
		t.Fatalf("state = %q", got)
	}
	if got := m.String("orderType"); got != "judgment of dissolution" {
		t.Fatalf("orderType = %q", got)
	}
	if got, _ := m.Float("childSupportAmount"); got != 850 {
		t.Fatalf("childSupportAmount = %v", got)
	}
	if got, _ := m.Float("spousalSupportAmount"); got != 400 {
		t.Fatalf("spousalSupportAmount = %v", got)
	}
	if got := m.String("orderDate"); got != "2020-02-01" {
		t.Fatalf("orderDate = %q", got)
	}
	if got := m.String("judgeName"); got != "Patricia Reyes" {
		t.Fatalf("judgeName = %q", got)
	}
	kids, ok := m["children"].([]any)
	if !ok || len(kids) != 2 {
		t.Fatalf("children = %#v", m["children"])
	}
	if kid := kids[1].(map[string]any); kid["fullName"] != "Liam Doe" || kid["dateOfBirth"] != "2017-07-09" {
		t.Fatalf("second child = %#v", kid)
	}
}

func TestParseProfitAndLossDerivesNetProfit(t *testing.T) {
	text := "Business Name: Corner Bakery\nFor the period 01/01/2023 to 12/31/2023\nGross receipts: 120,000\nTotal expenses: 80,500.50\n"
	m := Parse(text, ProfitAndLoss)
	if got, _ := m.Float("netProfit"); got != 39499.5 {
		t.Fatalf("netProfit = %v", got)
	}
	if m.String("periodStart") != "2023-01-01" || m.String("periodEnd") != "2023-12-31" {
		t.Fatalf("period = %v..%v", m["periodStart"], m["periodEnd"])
	}
}

func TestCompleteCoercesModelOutput(t *testing.T) {
	raw := Map{
		"employerName":   "Acme Corp",
		"wageIncome":     "$4,000.00",
		"payPeriodStart": "01/01/2024",
		"payPeriodEnd":   "01/14/2024",
		"payFrequency":   nil,
		"netPay":         "",
		"rawText":        "ignored",
	}
	m := Complete(PayStub, raw, "stub text")

	if got, _ := m.Float("wageIncome"); got != 4000 {
		t.Fatalf("wageIncome = %v", m["wageIncome"])
	}
	if got := m.String("payFrequency"); got != Biweekly {
		t.Fatalf("payFrequency = %q", got)
	}
	if got, _ := m.Float("annualIncome"); got != 104000 {
		t.Fatalf("annualIncome = %v", m["annualIncome"])
	}
	if m["netPay"] != nil {
		t.Fatalf("expected empty netPay to become nil, got %v", m["netPay"])
	}
	if _, ok := m["ytdGross"]; !ok {
		t.Fatal("expected ytdGross key present")
	}
	if m.String("rawText") != "stub text" {
		t.Fatalf("rawText = %q", m.String("rawText"))
	}
	if raw["wageIncome"] != "$4,000.00" {
		t.Fatal("Complete must not mutate its input")
	}
}

func TestCompleteRoutesBankDebt(t *testing.T) {
	m := Complete(BankStatement, Map{"bankName": "First Bank", "accountType": "Credit Card", "endingBalance": 1200.5}, "")
	debts, ok := m["debts"].([]any)
	if !ok || len(debts) != 1 {
		t.Fatalf("expected one debt, got %v", m["debts"])
	}
	d := debts[0].(map[string]any)
	if d["creditor"] != "First Bank" || d["balance"] != 1200.5 || d["debtType"] != "credit_card" {
		t.Fatalf("unexpected debt %v", d)
	}
}

func TestOverlayFillsOnlyGaps(t *testing.T) {
	base := Map{"employerName": "Acme Corp", "wageIncome": nil, "netPay": 3294.0}
	extra := Map{"employerName": "ACME", "wageIncome": 4000.0, "rawText": "x"}
	got := Overlay(base, extra)
	want := Map{"employerName": "Acme Corp", "wageIncome": 4000.0, "netPay": 3294.0}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Overlay = %v, want %v", got, want)
	}
}

func TestParseStopsTextAtInlineLabel(t *testing.T) {
	cases := []struct {
		name string
		doc  DocType
		text string
		want map[string]string
	}{
		{
			name: "pay stub name and ssn on one line",
			doc:  PayStub,
			text: "EMPLOYER: Acme Corp\nEMPLOYEE: Jane Public SSN: 123-45-6789\nGROSS PAY: $4,000.00\n",
			want: map[string]string{"employeeFullName": "Jane Public", "employeeSsn": "123-45-6789"},
		},
		{
			name: "w2 name and ssn on one line",
			doc:  W2,
			text: "Form W-2 Wage and Tax Statement 2023\nEMPLOYER: Initech LLC\nEMPLOYEE: Jane Public SSN: 123-45-6789\nWAGES, TIPS, OTHER COMPENSATION: $52,000.00\n",
			want: map[string]string{"employeeFullName": "Jane Public", "employeeSsn": "123-45-6789"},
		},
		{
			name: "1040 name row",
			doc:  TaxReturn,
			text: "Form 1040 U.S. Individual Income Tax Return 2023\nYour first name and middle initial: JOHN A   Last name: DOE   Your social security number: 123-45-6789\n",
			want: map[string]string{"firstName": "JOHN A", "lastName": "DOE", "ssn": "123-45-6789"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := Parse(tc.text, tc.doc)
			for key, want := range tc.want {
				if got := m.String(key); got != want {
					t.Fatalf("%s = %q, want %q", key, got, want)
				}
			}
		})
	}
}

func TestCutAtLabel(t *testing.T) {
	cases := map[string]string{
		"Jane Public":                                 "Jane Public",
		"Jane Public SSN: 123-45-6789":                "Jane Public",
		"JOHN A Last name: DOE":                       "JOHN A",
		"DOE Your social security number: 123456789": "DOE",
		"123 MAIN ST, SPRINGFIELD, CA 90210":          "123 MAIN ST, SPRINGFIELD, CA 90210",
		"Pay at 10:30":                                "Pay at 10:30",
	}
	for in, want := range cases {
		if got := cutAtLabel(in); got != want {
			t.Fatalf("cutAtLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
