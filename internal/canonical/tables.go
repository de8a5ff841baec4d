package canonical

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/google/uuid"
)

// Table names a canonical table.
type Table string

const (
	TablePersonal  Table = "personal_info"
	TableSpouse    Table = "spouse_info"
	TableMarriage  Table = "marriage_info"
	TableCourt     Table = "court_info"
	TableIncome    Table = "income"
	TableExpense   Table = "expense"
	TableChildren  Table = "children"
	TableEmployers Table = "employers"
	TableAssets    Table = "assets"
	TableDebts     Table = "debts"
)

// Tables lists every canonical table in clear/replay order.
var Tables = []Table{
	TablePersonal, TableSpouse, TableMarriage, TableCourt, TableIncome,
	TableExpense, TableChildren, TableEmployers, TableAssets, TableDebts,
}

type tableDef struct {
	// Columns are the data columns, excluding keys, ids and position.
	Columns      []string
	SpouseScoped bool
	Collection   bool
}

var tableDefs = map[Table]tableDef{
	TablePersonal: {Columns: []string{
		"first_name", "middle_name", "last_name", "date_of_birth", "ssn_last_4", "sex",
		"drivers_license_number", "drivers_license_state", "street", "city", "state", "zip",
		"phone", "email", "filing_status",
	}},
	TableSpouse: {Columns: []string{"first_name", "middle_name", "last_name", "date_of_birth", "ssn_last_4"}},
	TableMarriage: {Columns: []string{
		"date_of_marriage", "place_city", "place_county", "place_state", "certificate_number",
		"officiant", "spouse1_name", "spouse2_name",
	}},
	TableCourt: {Columns: []string{
		"case_number", "court_name", "county", "state", "judge_name", "prior_order_date",
		"prior_order_type", "petitioner_name", "respondent_name", "child_support_amount",
		"spousal_support_amount", "has_minor_children",
	}},
	TableIncome: {SpouseScoped: true, Columns: []string{
		"pay_frequency", "gross_pay_per_period", "net_pay_per_period", "gross_annual_income",
		"gross_monthly_income", "ytd_gross", "w2_wages", "self_employment_income", "business_income",
		"interest_income", "dividend_income", "other_income", "adjusted_gross_income", "tax_year",
	}},
	TableExpense: {SpouseScoped: true, Columns: []string{
		"federal_tax", "state_tax", "social_security", "medicare", "health_insurance", "retirement", "union_dues",
	}},
	TableChildren: {Collection: true, Columns: []string{
		"first_name", "middle_name", "last_name", "date_of_birth", "relationship", "ssn_last_4",
	}},
	TableEmployers: {Collection: true, SpouseScoped: true, Columns: []string{
		"employer_name", "employer_address", "employer_ein",
	}},
	TableAssets: {Collection: true, Columns: []string{
		"asset_type", "institution", "account_last_4", "description", "value",
	}},
	TableDebts: {Collection: true, Columns: []string{
		"debt_type", "creditor", "account_last_4", "balance", "monthly_payment",
	}},
}

// Key addresses a singleton row or a collection scope. SpouseNumber is
// ignored for tables that are not spouse scoped.
type Key struct {
	UserID       string
	SpouseNumber int
}

// Values maps column names to non-nil column values.
type Values map[string]any

func lookupTable(t Table) (tableDef, error) {
	def, ok := tableDefs[t]
	if !ok {
		return tableDef{}, fmt.Errorf("unknown canonical table %q", t)
	}
	return def, nil
}

// checkColumns rejects columns the table does not define.
func checkColumns(t Table, def tableDef, v Values) error {
	for col := range v {
		if !def.hasColumn(col) {
			return fmt.Errorf("%s has no column %q", t, col)
		}
	}
	return nil
}

func (d tableDef) hasColumn(col string) bool {
	for _, c := range d.Columns {
		if c == col {
			return true
		}
	}
	return false
}

func (d tableDef) scope(k Key) Key {
	if !d.SpouseScoped {
		return Key{UserID: k.UserID}
	}
	if k.SpouseNumber == 0 {
		k.SpouseNumber = 1
	}
	return k
}

var rowNamespace = uuid.MustParse("6f1c3b52-8d4e-4b7a-9a57-2d0f6f3e9b11")

// rowID derives a stable collection row id so rebuilt tables are identical.
func rowID(t Table, scope Key, position int) string {
	name := scope.UserID + "|" + string(t) + "|" + strconv.Itoa(scope.SpouseNumber) + "|" + strconv.Itoa(position)
	return uuid.NewSHA1(rowNamespace, []byte(name)).String()
}

// fill copies values into the db-tagged fields of the struct dst points to.
func fill(dst any, v Values) {
	rv := reflect.ValueOf(dst).Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		col := rt.Field(i).Tag.Get("db")
		val, ok := v[col]
		if col == "" || !ok || val == nil {
			continue
		}
		field := rv.Field(i)
		src := reflect.ValueOf(val)
		if field.Kind() == reflect.Ptr {
			elem := reflect.New(field.Type().Elem())
			if !src.Type().ConvertibleTo(elem.Elem().Type()) {
				continue
			}
			elem.Elem().Set(src.Convert(elem.Elem().Type()))
			field.Set(elem)
			continue
		}
		if src.Type().ConvertibleTo(field.Type()) {
			field.Set(src.Convert(field.Type()))
		}
	}
}
