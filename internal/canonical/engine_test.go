package canonical

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filing-backend/internal/fields"
	"filing-backend/internal/shared/apperr"
)

const acmeStub = `ACME CORP EARNINGS STATEMENT
EMPLOYER: Acme Corp
EMPLOYEE: Jane Q Public
PAY PERIOD: 01/01/2024 TO 01/14/2024
GROSS PAY: $4,000.00
YTD GROSS: $8,000.00
FEDERAL INCOME TAX: $400.00
SOCIAL SECURITY: $248.00
MEDICARE: $58.00
NET PAY: $3,294.00
`

type staticRecords struct {
	records []SourceRecord
	err     error
}

func (s *staticRecords) ReplayRecords(ctx context.Context, userID string) ([]SourceRecord, error) {
	return s.records, s.err
}

func newTestEngine(records ...SourceRecord) (*Engine, *MemoryRepo, *staticRecords) {
	repo := NewMemoryRepo()
	src := &staticRecords{records: records}
	return NewEngine(repo, src), repo, src
}

func str(s string) *string { return &s }

func taxReturnWithDependents(names ...string) fields.Map {
	deps := make([]any, 0, len(names))
	for _, n := range names {
		deps = append(deps, map[string]any{"fullName": n, "relationship": "son", "ssn": "111-22-3333"})
	}
	return fields.Map{"taxYear": "2023", "firstName": "John", "lastName": "Doe", "dependents": deps}
}

func TestSplitName(t *testing.T) {
	cases := []struct {
		in                  string
		first, middle, last string
	}{
		{"Jane Q Public", "Jane", "Q", "Public"},
		{"Jane Public", "Jane", "", "Public"},
		{"Mary Ann Van Buren", "Mary", "Ann Van", "Buren"},
		{"Public, Jane Q", "Jane", "Q", "Public"},
		{"John Smith Jr.", "John", "", "Smith"},
		{"  Cher  ", "Cher", "", ""},
		{"", "", "", ""},
	}
	for _, tc := range cases {
		first, middle, last := SplitName(tc.in)
		assert.Equal(t, []string{tc.first, tc.middle, tc.last}, []string{first, middle, last}, tc.in)
	}
}

func TestSSNLast4(t *testing.T) {
	got, ok := SSNLast4("123-45-6789")
	require.True(t, ok)
	assert.Equal(t, "6789", got)

	got, ok = SSNLast4("XXX-XX-1234")
	require.True(t, ok)
	assert.Equal(t, "1234", got)

	_, ok = SSNLast4("12")
	assert.False(t, ok)
}

func TestResolveFirstNonEmptyAliasWins(t *testing.T) {
	m := map[string]any{
		"wageIncome": nil,
		"grossPay":   "4,000.00",
		"address":    map[string]any{"city": "Austin"},
	}
	got := Resolve(m, []FieldAlias{
		{Column: "gross_pay_per_period", Aliases: []string{"wageIncome", "grossPay"}, Kind: KindNumber},
		{Column: "city", Aliases: []string{"city", "address.city"}, Kind: KindText},
		{Column: "zip", Aliases: []string{"address.zip"}, Kind: KindText},
	})
	assert.Equal(t, Values{"gross_pay_per_period": 4000.0, "city": "Austin"}, got)
}

func TestMigrateSplitsEmployeeFullName(t *testing.T) {
	engine, repo, _ := newTestEngine()
	ctx := context.Background()

	_, err := engine.Migrate(ctx, "u1", fields.PayStub, fields.Map{"employeeFullName": "Jane Q Public"})
	require.NoError(t, err)

	p, err := repo.Profile(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, p.PersonalInfo)
	assert.Equal(t, str("Jane"), p.PersonalInfo.FirstName)
	assert.Equal(t, str("Q"), p.PersonalInfo.MiddleName)
	assert.Equal(t, str("Public"), p.PersonalInfo.LastName)
}

func TestMigrateStoresOnlySSNLast4(t *testing.T) {
	engine, repo, _ := newTestEngine()
	ctx := context.Background()

	m := fields.Map{"firstName": "John", "lastName": "Doe", "ssn": "123-45-6789", "spouseFullName": "Mary Doe", "spouseSsn": "987654321"}
	_, err := engine.Migrate(ctx, "u1", fields.TaxReturn, m)
	require.NoError(t, err)

	p, err := repo.Profile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, str("6789"), p.PersonalInfo.SSNLast4)
	assert.Equal(t, str("4321"), p.SpouseInfo.SSNLast4)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "123-45-6789")
	assert.NotContains(t, string(raw), "123456789")
	assert.NotContains(t, string(raw), "987654321")
}

func TestMigratePayStubEndToEnd(t *testing.T) {
	engine, repo, _ := newTestEngine()
	ctx := context.Background()

	m := fields.Parse(acmeStub, fields.PayStub)
	report, err := engine.Migrate(ctx, "u1", fields.PayStub, m)
	require.NoError(t, err)
	assert.False(t, report.Partial())
	assert.Contains(t, report.Applied, "income")

	p, err := repo.Profile(ctx, "u1")
	require.NoError(t, err)

	require.Len(t, p.Incomes, 1)
	in := p.Incomes[0]
	assert.Equal(t, 1, in.SpouseNumber)
	assert.Equal(t, 104000.0, *in.GrossAnnualIncome)
	assert.Equal(t, 4000.0, *in.GrossPayPerPeriod)
	assert.Equal(t, str(fields.Biweekly), in.PayFrequency)

	require.Len(t, p.Employers, 1)
	assert.Equal(t, str("Acme Corp"), p.Employers[0].EmployerName)

	require.Len(t, p.Expenses, 1)
	assert.Equal(t, 866.67, *p.Expenses[0].FederalTax)
	assert.Equal(t, 125.67, *p.Expenses[0].Medicare)

	assert.Equal(t, str("Jane"), p.PersonalInfo.FirstName)
}

func TestMigrateRoutesSpouseTwo(t *testing.T) {
	engine, repo, _ := newTestEngine()
	ctx := context.Background()

	m := fields.Parse(acmeStub, fields.PayStub)
	m["spouseNumber"] = 2.0
	_, err := engine.Migrate(ctx, "u1", fields.PayStub, m)
	require.NoError(t, err)

	p, err := repo.Profile(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, p.PersonalInfo)
	require.NotNil(t, p.SpouseInfo)
	assert.Equal(t, str("Jane"), p.SpouseInfo.FirstName)
	require.Len(t, p.Incomes, 1)
	assert.Equal(t, 2, p.Incomes[0].SpouseNumber)
	require.Len(t, p.Employers, 1)
	assert.Equal(t, 2, p.Employers[0].SpouseNumber)
}

func TestMigrateSingletonOverwritesOnlyResolvedFields(t *testing.T) {
	engine, repo, _ := newTestEngine()
	ctx := context.Background()

	_, err := engine.Migrate(ctx, "u1", fields.DriversLicense, fields.Map{"fullName": "Jane Q Public", "dateOfBirth": "1990-04-02", "licenseNumber": "D1234567"})
	require.NoError(t, err)
	_, err = engine.Migrate(ctx, "u1", fields.W2, fields.Map{"employeeFullName": "Jane Smith", "dateOfBirth": nil, "wages": 52000.0})
	require.NoError(t, err)

	p, err := repo.Profile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, str("Smith"), p.PersonalInfo.LastName)
	assert.Equal(t, str("1990-04-02"), p.PersonalInfo.DateOfBirth)
	assert.Equal(t, str("D1234567"), p.PersonalInfo.DriversLicenseNumber)
}

func TestMigrateCourtOrderDerivesMinorChildren(t *testing.T) {
	engine, repo, _ := newTestEngine()
	ctx := context.Background()

	_, err := engine.Migrate(ctx, "u1", fields.PriorCourtOrder, fields.Map{"caseNumber": "FL-2020-001", "courtName": "Superior Court"})
	require.NoError(t, err)
	p, _ := repo.Profile(ctx, "u1")
	require.NotNil(t, p.CourtInfo.HasMinorChildren)
	assert.False(t, *p.CourtInfo.HasMinorChildren)

	_, err = engine.Migrate(ctx, "u1", fields.TaxReturn, taxReturnWithDependents("Tommy Doe"))
	require.NoError(t, err)
	p, _ = repo.Profile(ctx, "u1")
	assert.True(t, *p.CourtInfo.HasMinorChildren)
	assert.Equal(t, str("FL-2020-001"), p.CourtInfo.CaseNumber)
	require.Len(t, p.Children, 1)
	assert.Equal(t, str("3333"), p.Children[0].SSNLast4)
}

func TestMigrateCategoryFailureIsIsolated(t *testing.T) {
	engine, repo, _ := newTestEngine()
	repo.fault = func(op string, table Table) error {
		if table == TableExpense {
			return errors.New("disk full")
		}
		return nil
	}
	ctx := context.Background()

	report, err := engine.Migrate(ctx, "u1", fields.PayStub, fields.Parse(acmeStub, fields.PayStub))
	require.NoError(t, err)
	require.True(t, report.Partial())
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "expense", report.Failed[0].Category)
	assert.Contains(t, report.Applied, "income")
	assert.Contains(t, report.Applied, "employers")

	repo.fault = nil
	p, _ := repo.Profile(ctx, "u1")
	assert.Len(t, p.Incomes, 1)
	assert.Empty(t, p.Expenses)
}

func TestMigrateRejectsBadInput(t *testing.T) {
	engine, _, _ := newTestEngine()
	_, err := engine.Migrate(context.Background(), "", fields.PayStub, fields.Map{})
	require.ErrorIs(t, err, apperr.ErrInput)
	_, err = engine.Migrate(context.Background(), "u1", fields.DocType("passport"), fields.Map{})
	require.ErrorIs(t, err, apperr.ErrInput)
}

func TestReaggregateIsIdempotent(t *testing.T) {
	a := SourceRecord{DocumentID: "a", DocType: fields.PayStub, Fields: fields.Parse(acmeStub, fields.PayStub)}
	b := SourceRecord{DocumentID: "b", DocType: fields.TaxReturn, Fields: taxReturnWithDependents("Tommy Doe", "Sally Doe")}
	engine, repo, _ := newTestEngine(a, b)
	ctx := context.Background()

	_, err := engine.Reaggregate(ctx, "u1")
	require.NoError(t, err)
	first, _ := repo.Profile(ctx, "u1")
	_, err = engine.Reaggregate(ctx, "u1")
	require.NoError(t, err)
	second, _ := repo.Profile(ctx, "u1")

	assert.Equal(t, first, second)
	j1, _ := json.Marshal(first)
	j2, _ := json.Marshal(second)
	assert.Equal(t, string(j1), string(j2))
}

func TestReaggregateAfterDeleteMatchesFreshBuild(t *testing.T) {
	a := SourceRecord{DocumentID: "a", DocType: fields.PayStub, Fields: fields.Parse(acmeStub, fields.PayStub)}
	b := SourceRecord{DocumentID: "b", DocType: fields.TaxReturn, Fields: taxReturnWithDependents("Tommy Doe")}
	engine, repo, src := newTestEngine(a, b)
	ctx := context.Background()

	_, err := engine.Reaggregate(ctx, "u1")
	require.NoError(t, err)

	src.records = []SourceRecord{a}
	_, err = engine.Reaggregate(ctx, "u1")
	require.NoError(t, err)
	afterDelete, _ := repo.Profile(ctx, "u1")

	fresh, freshRepo, _ := newTestEngine(a)
	_, err = fresh.Reaggregate(ctx, "u1")
	require.NoError(t, err)
	want, _ := freshRepo.Profile(ctx, "u1")

	assert.Equal(t, want, afterDelete)
	assert.Empty(t, afterDelete.Children)
}

func TestReaggregateReplacesDependents(t *testing.T) {
	older := SourceRecord{DocumentID: "2022", DocType: fields.TaxReturn, Fields: taxReturnWithDependents("Tommy Doe", "Sally Doe")}
	newer := SourceRecord{DocumentID: "2023", DocType: fields.TaxReturn, Fields: taxReturnWithDependents("Tommy Doe")}
	engine, repo, _ := newTestEngine(older, newer)
	ctx := context.Background()

	_, err := engine.Reaggregate(ctx, "u1")
	require.NoError(t, err)
	p, _ := repo.Profile(ctx, "u1")
	require.Len(t, p.Children, 1)
	assert.Equal(t, str("Tommy"), p.Children[0].FirstName)
}

func TestReaggregateWithNoDocumentsClearsTables(t *testing.T) {
	engine, repo, _ := newTestEngine()
	ctx := context.Background()
	_, err := engine.Migrate(ctx, "u1", fields.PayStub, fields.Parse(acmeStub, fields.PayStub))
	require.NoError(t, err)
	_, err = engine.Migrate(ctx, "u2", fields.PayStub, fields.Parse(acmeStub, fields.PayStub))
	require.NoError(t, err)

	report, err := engine.Reaggregate(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, report.Documents)

	p, _ := repo.Profile(ctx, "u1")
	assert.True(t, p.Empty())
	other, _ := repo.Profile(ctx, "u2")
	assert.Len(t, other.Incomes, 1)
}

func TestReaggregateFailureKeepsPreviousState(t *testing.T) {
	a := SourceRecord{DocumentID: "a", DocType: fields.PayStub, Fields: fields.Parse(acmeStub, fields.PayStub)}
	engine, repo, src := newTestEngine(a)
	ctx := context.Background()

	_, err := engine.Reaggregate(ctx, "u1")
	require.NoError(t, err)
	before, _ := repo.Profile(ctx, "u1")

	repo.fault = func(op string, table Table) error {
		if op == "clear" {
			return errors.New("connection lost")
		}
		return nil
	}
	src.records = nil
	_, err = engine.Reaggregate(ctx, "u1")
	require.ErrorIs(t, err, apperr.ErrReaggregation)

	repo.fault = nil
	after, _ := repo.Profile(ctx, "u1")
	assert.Equal(t, before, after)

	src.err = errors.New("documents unavailable")
	_, err = engine.Reaggregate(ctx, "u1")
	require.ErrorIs(t, err, apperr.ErrReaggregation)
}

func TestBuildViewTotals(t *testing.T) {
	engine, repo, _ := newTestEngine()
	ctx := context.Background()
	_, err := engine.Migrate(ctx, "u1", fields.PayStub, fields.Parse(acmeStub, fields.PayStub))
	require.NoError(t, err)
	bank := fields.Map{"assets": []any{map[string]any{"assetType": "checking", "value": 1500.25}}, "debts": []any{map[string]any{"debtType": "credit_card", "balance": 300.0}}}
	_, err = engine.Migrate(ctx, "u1", fields.BankStatement, bank)
	require.NoError(t, err)

	p, _ := repo.Profile(ctx, "u1")
	v := BuildView(p)
	assert.Equal(t, 104000.0, v.FinancialInfo.TotalAnnualIncome)
	assert.Equal(t, 1500.25, v.FinancialInfo.TotalAssets)
	assert.Equal(t, 300.0, v.FinancialInfo.TotalDebts)
	assert.NotNil(t, v.CourtInfo.Children)

	raw, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"financial_info"`)
	assert.Contains(t, string(raw), `"first_name":"Jane"`)
}

var fullSSN = regexp.MustCompile(`\b\d{3}[- ]?\d{2}[- ]?\d{4}\b`)

func TestMigrateKeepsFullSSNOutOfNameColumns(t *testing.T) {
	cases := []struct {
		name     string
		doc      fields.DocType
		text     string
		first    string
		last     string
		ssnLast4 string
	}{
		{
			name:     "pay stub",
			doc:      fields.PayStub,
			text:     "EMPLOYER: Acme Corp\nEMPLOYEE: Jane Public SSN: 123-45-6789\nGROSS PAY: $4,000.00\n",
			first:    "Jane",
			last:     "Public",
			ssnLast4: "6789",
		},
		{
			name:     "w2",
			doc:      fields.W2,
			text:     "Form W-2 Wage and Tax Statement 2023\nEMPLOYER: Initech LLC\nEMPLOYEE: Jane Public SSN: 123-45-6789\nWAGES, TIPS, OTHER COMPENSATION: $52,000.00\n",
			first:    "Jane",
			last:     "Public",
			ssnLast4: "6789",
		},
		{
			name:     "1040",
			doc:      fields.TaxReturn,
			text:     "Form 1040 U.S. Individual Income Tax Return 2023\nYour first name and middle initial: JOHN A   Last name: DOE   Your social security number: 123-45-6789\n",
			first:    "JOHN A",
			last:     "DOE",
			ssnLast4: "6789",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine, repo, _ := newTestEngine()
			ctx := context.Background()

			_, err := engine.Migrate(ctx, "u1", tc.doc, fields.Parse(tc.text, tc.doc))
			require.NoError(t, err)

			p, err := repo.Profile(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, str(tc.first), p.PersonalInfo.FirstName)
			assert.Equal(t, str(tc.last), p.PersonalInfo.LastName)
			assert.Equal(t, str(tc.ssnLast4), p.PersonalInfo.SSNLast4)

			raw, err := json.Marshal(p)
			require.NoError(t, err)
			assert.False(t, fullSSN.Match(raw), "full SSN stored: %s", raw)
		})
	}
}

func TestMigrateScrubsSSNFromTextValues(t *testing.T) {
	engine, repo, _ := newTestEngine()
	ctx := context.Background()

	m := fields.Map{
		"employeeFullName": "Jane Public SSN: 123-45-6789",
		"employerName":     "Acme Corp 987 65 4321",
		"employerEin":      "123456789",
	}
	_, err := engine.Migrate(ctx, "u1", fields.W2, m)
	require.NoError(t, err)

	p, err := repo.Profile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, str("Jane"), p.PersonalInfo.FirstName)
	assert.Equal(t, str("Public"), p.PersonalInfo.LastName)
	require.Len(t, p.Employers, 1)
	assert.Equal(t, str("Acme Corp"), p.Employers[0].EmployerName)
	assert.Equal(t, str("12-3456789"), p.Employers[0].EmployerEIN)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.False(t, fullSSN.Match(raw), "full SSN stored: %s", raw)
}

func TestCoerceIdentifierKeepsPlainDigits(t *testing.T) {
	v, ok := coerceValue(KindID, "123456789")
	require.True(t, ok)
	assert.Equal(t, "123456789", v)

	_, ok = coerceValue(KindID, "123-45-6789")
	assert.False(t, ok)

	v, ok = coerceValue(KindText, "Public 123456789")
	require.True(t, ok)
	assert.Equal(t, "Public", v)
}

func TestMigrateEmptyDependentsClearsChildren(t *testing.T) {
	engine, repo, _ := newTestEngine()
	ctx := context.Background()

	_, err := engine.Migrate(ctx, "u1", fields.TaxReturn, taxReturnWithDependents("Tommy Doe", "Sally Doe"))
	require.NoError(t, err)

	// Absent or null lists leave the stored children alone.
	for _, m := range []fields.Map{{"taxYear": "2024"}, {"taxYear": "2024", "dependents": nil}} {
		_, err = engine.Migrate(ctx, "u1", fields.TaxReturn, m)
		require.NoError(t, err)
		p, err := repo.Profile(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, p.Children, 2)
	}

	_, err = engine.Migrate(ctx, "u1", fields.TaxReturn, fields.Map{"taxYear": "2024", "dependents": []any{}})
	require.NoError(t, err)

	p, err := repo.Profile(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, p.Children)
	require.NotNil(t, p.CourtInfo)
	require.NotNil(t, p.CourtInfo.HasMinorChildren)
	assert.False(t, *p.CourtInfo.HasMinorChildren)
}

func TestMigrateEmptyDebtsClearsCollection(t *testing.T) {
	engine, repo, _ := newTestEngine()
	ctx := context.Background()

	debt := map[string]any{"debtType": "credit card", "creditor": "Big Bank", "balance": 1200.0}
	_, err := engine.Migrate(ctx, "u1", fields.BankStatement, fields.Map{"debts": []any{debt}})
	require.NoError(t, err)
	p, _ := repo.Profile(ctx, "u1")
	require.Len(t, p.Debts, 1)

	_, err = engine.Migrate(ctx, "u1", fields.BankStatement, fields.Map{"debts": []any{}})
	require.NoError(t, err)
	p, _ = repo.Profile(ctx, "u1")
	assert.Empty(t, p.Debts)
}
