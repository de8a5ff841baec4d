package canonical

// PersonalInfo is the primary filer of a user profile.
type PersonalInfo struct {
	UserID               string  `db:"user_id" json:"-"`
	FirstName            *string `db:"first_name" json:"first_name"`
	MiddleName           *string `db:"middle_name" json:"middle_name"`
	LastName             *string `db:"last_name" json:"last_name"`
	DateOfBirth          *string `db:"date_of_birth" json:"date_of_birth"`
	SSNLast4             *string `db:"ssn_last_4" json:"ssn_last_4"`
	Sex                  *string `db:"sex" json:"sex"`
	DriversLicenseNumber *string `db:"drivers_license_number" json:"drivers_license_number"`
	DriversLicenseState  *string `db:"drivers_license_state" json:"drivers_license_state"`
	Street               *string `db:"street" json:"street"`
	City                 *string `db:"city" json:"city"`
	State                *string `db:"state" json:"state"`
	Zip                  *string `db:"zip" json:"zip"`
	Phone                *string `db:"phone" json:"phone"`
	Email                *string `db:"email" json:"email"`
	FilingStatus         *string `db:"filing_status" json:"filing_status"`
}

// SpouseInfo is the second party of the profile.
type SpouseInfo struct {
	UserID      string  `db:"user_id" json:"-"`
	FirstName   *string `db:"first_name" json:"first_name"`
	MiddleName  *string `db:"middle_name" json:"middle_name"`
	LastName    *string `db:"last_name" json:"last_name"`
	DateOfBirth *string `db:"date_of_birth" json:"date_of_birth"`
	SSNLast4    *string `db:"ssn_last_4" json:"ssn_last_4"`
}

type MarriageInfo struct {
	UserID            string  `db:"user_id" json:"-"`
	DateOfMarriage    *string `db:"date_of_marriage" json:"date_of_marriage"`
	PlaceCity         *string `db:"place_city" json:"place_city"`
	PlaceCounty       *string `db:"place_county" json:"place_county"`
	PlaceState        *string `db:"place_state" json:"place_state"`
	CertificateNumber *string `db:"certificate_number" json:"certificate_number"`
	Officiant         *string `db:"officiant" json:"officiant"`
	Spouse1Name       *string `db:"spouse1_name" json:"spouse1_name"`
	Spouse2Name       *string `db:"spouse2_name" json:"spouse2_name"`
}

// CourtInfo describes the prior court order on file. HasMinorChildren is
// derived from the children collection and never read from a document.
type CourtInfo struct {
	UserID               string   `db:"user_id" json:"-"`
	CaseNumber           *string  `db:"case_number" json:"case_number"`
	CourtName            *string  `db:"court_name" json:"court_name"`
	County               *string  `db:"county" json:"county"`
	State                *string  `db:"state" json:"state"`
	JudgeName            *string  `db:"judge_name" json:"judge_name"`
	PriorOrderDate       *string  `db:"prior_order_date" json:"prior_order_date"`
	PriorOrderType       *string  `db:"prior_order_type" json:"prior_order_type"`
	PetitionerName       *string  `db:"petitioner_name" json:"petitioner_name"`
	RespondentName       *string  `db:"respondent_name" json:"respondent_name"`
	ChildSupportAmount   *float64 `db:"child_support_amount" json:"child_support_amount"`
	SpousalSupportAmount *float64 `db:"spousal_support_amount" json:"spousal_support_amount"`
	HasMinorChildren     *bool    `db:"has_minor_children" json:"has_minor_children"`
}

// Income holds one spouse's income figures.
type Income struct {
	UserID               string   `db:"user_id" json:"-"`
	SpouseNumber         int      `db:"spouse_number" json:"spouse_number"`
	PayFrequency         *string  `db:"pay_frequency" json:"pay_frequency"`
	GrossPayPerPeriod    *float64 `db:"gross_pay_per_period" json:"gross_pay_per_period"`
	NetPayPerPeriod      *float64 `db:"net_pay_per_period" json:"net_pay_per_period"`
	GrossAnnualIncome    *float64 `db:"gross_annual_income" json:"gross_annual_income"`
	GrossMonthlyIncome   *float64 `db:"gross_monthly_income" json:"gross_monthly_income"`
	YTDGross             *float64 `db:"ytd_gross" json:"ytd_gross"`
	W2Wages              *float64 `db:"w2_wages" json:"w2_wages"`
	SelfEmploymentIncome *float64 `db:"self_employment_income" json:"self_employment_income"`
	BusinessIncome       *float64 `db:"business_income" json:"business_income"`
	InterestIncome       *float64 `db:"interest_income" json:"interest_income"`
	DividendIncome       *float64 `db:"dividend_income" json:"dividend_income"`
	OtherIncome          *float64 `db:"other_income" json:"other_income"`
	AdjustedGrossIncome  *float64 `db:"adjusted_gross_income" json:"adjusted_gross_income"`
	TaxYear              *string  `db:"tax_year" json:"tax_year"`
}

// Expense holds one spouse's monthly deductions.
type Expense struct {
	UserID          string   `db:"user_id" json:"-"`
	SpouseNumber    int      `db:"spouse_number" json:"spouse_number"`
	FederalTax      *float64 `db:"federal_tax" json:"federal_tax"`
	StateTax        *float64 `db:"state_tax" json:"state_tax"`
	SocialSecurity  *float64 `db:"social_security" json:"social_security"`
	Medicare        *float64 `db:"medicare" json:"medicare"`
	HealthInsurance *float64 `db:"health_insurance" json:"health_insurance"`
	Retirement      *float64 `db:"retirement" json:"retirement"`
	UnionDues       *float64 `db:"union_dues" json:"union_dues"`
}

type Child struct {
	ID           string  `db:"id" json:"id"`
	UserID       string  `db:"user_id" json:"-"`
	Position     int     `db:"position" json:"position"`
	FirstName    *string `db:"first_name" json:"first_name"`
	MiddleName   *string `db:"middle_name" json:"middle_name"`
	LastName     *string `db:"last_name" json:"last_name"`
	DateOfBirth  *string `db:"date_of_birth" json:"date_of_birth"`
	Relationship *string `db:"relationship" json:"relationship"`
	SSNLast4     *string `db:"ssn_last_4" json:"ssn_last_4"`
}

type Employer struct {
	ID              string  `db:"id" json:"id"`
	UserID          string  `db:"user_id" json:"-"`
	SpouseNumber    int     `db:"spouse_number" json:"spouse_number"`
	Position        int     `db:"position" json:"position"`
	EmployerName    *string `db:"employer_name" json:"employer_name"`
	EmployerAddress *string `db:"employer_address" json:"employer_address"`
	EmployerEIN     *string `db:"employer_ein" json:"employer_ein"`
}

type Asset struct {
	ID           string   `db:"id" json:"id"`
	UserID       string   `db:"user_id" json:"-"`
	Position     int      `db:"position" json:"position"`
	AssetType    *string  `db:"asset_type" json:"asset_type"`
	Institution  *string  `db:"institution" json:"institution"`
	AccountLast4 *string  `db:"account_last_4" json:"account_last_4"`
	Description  *string  `db:"description" json:"description"`
	Value        *float64 `db:"value" json:"value"`
}

type Debt struct {
	ID             string   `db:"id" json:"id"`
	UserID         string   `db:"user_id" json:"-"`
	Position       int      `db:"position" json:"position"`
	DebtType       *string  `db:"debt_type" json:"debt_type"`
	Creditor       *string  `db:"creditor" json:"creditor"`
	AccountLast4   *string  `db:"account_last_4" json:"account_last_4"`
	Balance        *float64 `db:"balance" json:"balance"`
	MonthlyPayment *float64 `db:"monthly_payment" json:"monthly_payment"`
}

// Profile is a snapshot of every canonical table for one user. Slices are
// never nil so two snapshots of the same state compare and marshal equal.
type Profile struct {
	PersonalInfo *PersonalInfo `json:"personal_info"`
	SpouseInfo   *SpouseInfo   `json:"spouse_info"`
	MarriageInfo *MarriageInfo `json:"marriage_info"`
	CourtInfo    *CourtInfo    `json:"court_info"`
	Incomes      []Income      `json:"income"`
	Expenses     []Expense     `json:"expense"`
	Children     []Child       `json:"children"`
	Employers    []Employer    `json:"employers"`
	Assets       []Asset       `json:"assets"`
	Debts        []Debt        `json:"debts"`
}

func (p *Profile) normalize() {
	if p.Incomes == nil {
		p.Incomes = []Income{}
	}
	if p.Expenses == nil {
		p.Expenses = []Expense{}
	}
	if p.Children == nil {
		p.Children = []Child{}
	}
	if p.Employers == nil {
		p.Employers = []Employer{}
	}
	if p.Assets == nil {
		p.Assets = []Asset{}
	}
	if p.Debts == nil {
		p.Debts = []Debt{}
	}
}

// Empty reports whether the snapshot holds no canonical data.
func (p Profile) Empty() bool {
	return p.PersonalInfo == nil && p.SpouseInfo == nil && p.MarriageInfo == nil && p.CourtInfo == nil &&
		len(p.Incomes) == 0 && len(p.Expenses) == 0 && len(p.Children) == 0 &&
		len(p.Employers) == 0 && len(p.Assets) == 0 && len(p.Debts) == 0
}
