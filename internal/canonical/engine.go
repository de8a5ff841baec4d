package canonical

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"filing-backend/internal/fields"
	"filing-backend/internal/shared/apperr"
	"filing-backend/internal/shared/metrics"
	"filing-backend/internal/shared/telemetry"
)

// SourceRecord is one surviving extracted record replayed during re-aggregation.
type SourceRecord struct {
	DocumentID string
	DocType    fields.DocType
	Fields     fields.Map
}

// RecordSource lists a user's processed records oldest first.
type RecordSource interface {
	ReplayRecords(ctx context.Context, userID string) ([]SourceRecord, error)
}

// CategoryFailure names a category whose writes were rolled back.
type CategoryFailure struct {
	Category string `json:"category"`
	Error    string `json:"error"`
}

// MigrationReport lists the categories written for one document.
type MigrationReport struct {
	Applied []string          `json:"applied"`
	Failed  []CategoryFailure `json:"failed,omitempty"`
}

// Partial reports whether at least one category failed.
func (r MigrationReport) Partial() bool { return len(r.Failed) > 0 }

// ReaggregationReport summarizes a completed rebuild.
type ReaggregationReport struct {
	Documents int      `json:"documents"`
	Partial   []string `json:"partialDocuments,omitempty"`
}

// Engine migrates candidate maps into the canonical tables.
type Engine struct {
	Repo    Repo
	Records RecordSource
}

// NewEngine constructs an Engine.
func NewEngine(repo Repo, records RecordSource) *Engine {
	return &Engine{Repo: repo, Records: records}
}

type category struct {
	name    string
	applies func(fields.DocType) bool
	run     func(ctx context.Context, w Writer, src source) error
}

type source struct {
	userID  string
	spouse  int
	docType fields.DocType
	m       fields.Map
}

func docTypes(types ...fields.DocType) func(fields.DocType) bool {
	return func(t fields.DocType) bool {
		for _, want := range types {
			if t == want {
				return true
			}
		}
		return false
	}
}

var personDocs = []fields.DocType{fields.DriversLicense, fields.TaxReturn, fields.PayStub, fields.W2, fields.Form1099}

var categories = []category{
	{name: "personal_info", applies: docTypes(personDocs...), run: migratePersonal},
	{name: "spouse_info", applies: docTypes(append(personDocs, fields.MarriageCertificate)...), run: migrateSpouse},
	{name: "marriage_info", applies: docTypes(fields.MarriageCertificate), run: migrateMarriage},
	{name: "court_info", applies: docTypes(fields.PriorCourtOrder), run: migrateCourt},
	{name: "income", applies: docTypes(fields.PayStub, fields.W2, fields.Form1099, fields.TaxReturn, fields.ProfitAndLoss), run: migrateIncome},
	{name: "expense", applies: docTypes(fields.PayStub, fields.W2, fields.Form1099, fields.TaxReturn), run: migrateExpense},
	{name: "children", applies: docTypes(fields.TaxReturn, fields.PriorCourtOrder), run: migrateChildren},
	{name: "employers", applies: docTypes(fields.PayStub, fields.W2), run: migrateEmployers},
	{name: "assets", applies: docTypes(fields.BankStatement), run: migrateAssets},
	{name: "debts", applies: docTypes(fields.BankStatement), run: migrateDebts},
}

// Migrate applies one document's candidate map to the user's canonical
// tables. Each category is isolated: a failing category is reported in the
// result and the others still commit.
func (e *Engine) Migrate(ctx context.Context, userID string, t fields.DocType, m fields.Map) (MigrationReport, error) {
	if strings.TrimSpace(userID) == "" {
		return MigrationReport{}, apperr.Input("canonical.migrate", errors.New("user id is required"))
	}
	if !t.Valid() {
		return MigrationReport{}, apperr.Input("canonical.migrate", fmt.Errorf("%w: %q", fields.ErrUnknownDocType, t))
	}
	if err := ctx.Err(); err != nil {
		return MigrationReport{}, err
	}
	return migrate(ctx, e.Repo, userID, t, m), nil
}

func migrate(ctx context.Context, w Writer, userID string, t fields.DocType, m fields.Map) MigrationReport {
	src := source{userID: userID, spouse: SpouseNumber(m), docType: t, m: m}
	report := MigrationReport{Applied: []string{}}
	for _, c := range categories {
		if !c.applies(t) {
			continue
		}
		err := w.Isolated(ctx, c.name, func(iw Writer) error {
			return c.run(ctx, iw, src)
		})
		if err != nil {
			telemetry.Warn("canonical.migrate.category_failed", map[string]any{
				"user_id":  userID,
				"doc_type": string(t),
				"category": c.name,
				"err":      err,
			})
			report.Failed = append(report.Failed, CategoryFailure{Category: c.name, Error: err.Error()})
			continue
		}
		report.Applied = append(report.Applied, c.name)
	}
	return report
}

// Reaggregate rebuilds the user's canonical tables from every surviving
// record, oldest first, inside one repository stage. The previous state is
// kept when anything in the stage fails.
func (e *Engine) Reaggregate(ctx context.Context, userID string) (ReaggregationReport, error) {
	if strings.TrimSpace(userID) == "" {
		return ReaggregationReport{}, apperr.Input("canonical.reaggregate", errors.New("user id is required"))
	}
	start := time.Now()
	records, err := e.Records.ReplayRecords(ctx, userID)
	if err != nil {
		return ReaggregationReport{}, e.reaggregationFailed(userID, fmt.Errorf("load records: %w", err))
	}

	report := ReaggregationReport{Documents: len(records)}
	err = e.Repo.Stage(ctx, func(w Writer) error {
		if err := w.ClearUser(ctx, userID); err != nil {
			return fmt.Errorf("clear: %w", err)
		}
		for _, rec := range records {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !rec.DocType.Valid() {
				return fmt.Errorf("record %s: %w: %q", rec.DocumentID, fields.ErrUnknownDocType, rec.DocType)
			}
			if r := migrate(ctx, w, userID, rec.DocType, rec.Fields); r.Partial() {
				report.Partial = append(report.Partial, rec.DocumentID)
			}
		}
		return nil
	})
	if err != nil {
		return ReaggregationReport{}, e.reaggregationFailed(userID, err)
	}

	metrics.IncReaggregation()
	telemetry.Info("canonical.reaggregate.ok", map[string]any{
		"user_id":     userID,
		"documents":   report.Documents,
		"partial":     len(report.Partial),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return report, nil
}

func (e *Engine) reaggregationFailed(userID string, err error) error {
	metrics.IncReaggregationFailed()
	telemetry.Error("canonical.reaggregate.failed", map[string]any{"user_id": userID, "err": err})
	return apperr.Reaggregation("canonical.reaggregate", err)
}

// Profile returns the user's canonical snapshot.
func (e *Engine) Profile(ctx context.Context, userID string) (Profile, error) {
	p, err := e.Repo.Profile(ctx, userID)
	if err != nil {
		return Profile{}, apperr.Persistence("canonical.profile", err)
	}
	return p, nil
}

// SpouseNumber reads the spouse routing field of a candidate map. Anything
// other than 2 means the primary filer.
func SpouseNumber(m fields.Map) int {
	switch v := m["spouseNumber"].(type) {
	case float64:
		if v == 2 {
			return 2
		}
	case int:
		if v == 2 {
			return 2
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n == 2 {
			return 2
		}
	}
	return 1
}

func upsert(ctx context.Context, w Writer, t Table, key Key, v Values) error {
	if len(v) == 0 {
		return nil
	}
	return w.UpsertSingleton(ctx, t, key, v)
}

func merge(dst, src Values) Values {
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func migratePersonal(ctx context.Context, w Writer, src source) error {
	v := Resolve(src.m, personalAliases)
	if src.spouse == 2 {
		// Only household level fields stay with the primary filer.
		v = Resolve(src.m, []FieldAlias{{Column: "filing_status", Aliases: []string{"filingStatus"}, Kind: KindText}})
	} else {
		merge(v, ResolveName(src.m, personName))
	}
	if s, ok := v["state"].(string); ok {
		v["state"] = fields.NormalizeState(s)
	}
	return upsert(ctx, w, TablePersonal, Key{UserID: src.userID}, v)
}

func migrateSpouse(ctx context.Context, w Writer, src source) error {
	var v Values
	switch {
	case src.docType == fields.MarriageCertificate:
		v = ResolveName(src.m, NameAliases{Full: []string{"party2FullName"}})
	case src.spouse == 2:
		v = merge(ResolveName(src.m, personName), Resolve(src.m, personAliases))
	default:
		v = merge(ResolveName(src.m, spouseName), Resolve(src.m, spouseAliases))
	}
	return upsert(ctx, w, TableSpouse, Key{UserID: src.userID}, v)
}

func migrateMarriage(ctx context.Context, w Writer, src source) error {
	return upsert(ctx, w, TableMarriage, Key{UserID: src.userID}, Resolve(src.m, marriageAliases))
}

func migrateCourt(ctx context.Context, w Writer, src source) error {
	if err := upsert(ctx, w, TableCourt, Key{UserID: src.userID}, Resolve(src.m, courtAliases)); err != nil {
		return err
	}
	return refreshMinorChildren(ctx, w, src.userID)
}

// refreshMinorChildren recomputes court_info.has_minor_children from the
// children collection.
func refreshMinorChildren(ctx context.Context, w Writer, userID string) error {
	n, err := w.CountChildren(ctx, userID)
	if err != nil {
		return err
	}
	return w.UpsertSingleton(ctx, TableCourt, Key{UserID: userID}, Values{"has_minor_children": n > 0})
}

func migrateIncome(ctx context.Context, w Writer, src source) error {
	return upsert(ctx, w, TableIncome, Key{UserID: src.userID, SpouseNumber: src.spouse}, Resolve(src.m, incomeAliases))
}

func migrateExpense(ctx context.Context, w Writer, src source) error {
	scale, ok := expenseScale(src.docType, src.m)
	if !ok {
		return nil
	}
	v := Resolve(src.m, expenseAliases[src.docType])
	for col, amount := range v {
		v[col] = round2(amount.(float64) * scale)
	}
	return upsert(ctx, w, TableExpense, Key{UserID: src.userID, SpouseNumber: src.spouse}, v)
}

// expenseScale converts a document's amounts to monthly figures: per-period
// pay stub deductions use the pay frequency, annual forms divide by twelve.
func expenseScale(t fields.DocType, m fields.Map) (float64, bool) {
	if t != fields.PayStub {
		return 1.0 / 12, true
	}
	mult, ok := fields.Multiplier(fields.NormalizeFrequency(m.String("payFrequency")))
	if !ok {
		return 0, false
	}
	return mult / 12, true
}

func migrateChildren(ctx context.Context, w Writer, src source) error {
	items, supplied := listOf(src.m, "children", "dependents")
	if !supplied {
		return nil
	}
	rows := make([]Values, 0, len(items))
	for _, item := range items {
		v := merge(ResolveName(item, personName), Resolve(item, childAliases))
		if len(v) == 0 {
			continue
		}
		rows = append(rows, v)
	}
	if len(rows) == 0 && len(items) > 0 {
		return nil
	}
	if err := w.ReplaceCollection(ctx, TableChildren, Key{UserID: src.userID}, rows); err != nil {
		return err
	}
	return refreshMinorChildren(ctx, w, src.userID)
}

func migrateEmployers(ctx context.Context, w Writer, src source) error {
	listed, supplied := listOf(src.m, "employers")
	items := listed
	if len(items) == 0 {
		items = []map[string]any{src.m}
	}
	rows := make([]Values, 0, len(items))
	for _, item := range items {
		v := Resolve(item, employerAliases)
		if v["employer_name"] == nil {
			continue
		}
		rows = append(rows, v)
	}
	// Only an explicit empty list clears the scope.
	if len(rows) == 0 && (!supplied || len(listed) > 0) {
		return nil
	}
	return w.ReplaceCollection(ctx, TableEmployers, Key{UserID: src.userID, SpouseNumber: src.spouse}, rows)
}

func migrateAssets(ctx context.Context, w Writer, src source) error {
	return replaceFrom(ctx, w, TableAssets, src, "assets", assetAliases)
}

func migrateDebts(ctx context.Context, w Writer, src source) error {
	return replaceFrom(ctx, w, TableDebts, src, "debts", debtAliases)
}

func replaceFrom(ctx context.Context, w Writer, t Table, src source, key string, aliases []FieldAlias) error {
	items, supplied := listOf(src.m, key)
	if !supplied {
		return nil
	}
	rows := make([]Values, 0, len(items))
	for _, item := range items {
		if v := Resolve(item, aliases); len(v) > 0 {
			rows = append(rows, v)
		}
	}
	if len(rows) == 0 && len(items) > 0 {
		return nil
	}
	return w.ReplaceCollection(ctx, t, Key{UserID: src.userID}, rows)
}

// listOf returns the object items of the first non-empty array under keys.
// supplied is also true for an explicit empty array, which tells "clear the
// collection" apart from an absent or null field.
func listOf(m fields.Map, keys ...string) (items []map[string]any, supplied bool) {
	for _, k := range keys {
		raw, ok := asList(m[k])
		if !ok {
			continue
		}
		if len(raw) == 0 {
			supplied = true
			continue
		}
		out := make([]map[string]any, 0, len(raw))
		for _, item := range raw {
			switch x := item.(type) {
			case map[string]any:
				out = append(out, x)
			case fields.Map:
				out = append(out, x)
			}
		}
		if len(out) > 0 {
			return out, true
		}
	}
	return nil, supplied
}

func asList(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case []map[string]any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out, true
	case []fields.Map:
		out := make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out, true
	}
	return nil, false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
