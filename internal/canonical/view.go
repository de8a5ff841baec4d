package canonical

// View is the consumer shape of a profile.
type View struct {
	PersonalInfo  *PersonalInfo `json:"personal_info"`
	FinancialInfo FinancialInfo `json:"financial_info"`
	MarriageInfo  MarriageView  `json:"marriage_info"`
	CourtInfo     CourtView     `json:"court_info"`
}

// FinancialInfo groups income, expense and balance sheet rows with totals.
type FinancialInfo struct {
	Incomes              []Income   `json:"income"`
	Expenses             []Expense  `json:"expenses"`
	Employers            []Employer `json:"employers"`
	Assets               []Asset    `json:"assets"`
	Debts                []Debt     `json:"debts"`
	TotalAnnualIncome    float64    `json:"total_annual_income"`
	TotalMonthlyExpenses float64    `json:"total_monthly_expenses"`
	TotalAssets          float64    `json:"total_assets"`
	TotalDebts           float64    `json:"total_debts"`
}

type MarriageView struct {
	*MarriageInfo
	Spouse *SpouseInfo `json:"spouse"`
}

type CourtView struct {
	*CourtInfo
	Children []Child `json:"children"`
}

// BuildView flattens p into the consumer view.
func BuildView(p Profile) View {
	p.normalize()
	fin := FinancialInfo{
		Incomes:   p.Incomes,
		Expenses:  p.Expenses,
		Employers: p.Employers,
		Assets:    p.Assets,
		Debts:     p.Debts,
	}
	for _, in := range p.Incomes {
		fin.TotalAnnualIncome += annualIncome(in)
	}
	for _, ex := range p.Expenses {
		fin.TotalMonthlyExpenses += sum(ex.FederalTax, ex.StateTax, ex.SocialSecurity, ex.Medicare,
			ex.HealthInsurance, ex.Retirement, ex.UnionDues)
	}
	for _, a := range p.Assets {
		fin.TotalAssets += sum(a.Value)
	}
	for _, d := range p.Debts {
		fin.TotalDebts += sum(d.Balance)
	}
	fin.TotalAnnualIncome = round2(fin.TotalAnnualIncome)
	fin.TotalMonthlyExpenses = round2(fin.TotalMonthlyExpenses)
	fin.TotalAssets = round2(fin.TotalAssets)
	fin.TotalDebts = round2(fin.TotalDebts)

	return View{
		PersonalInfo:  p.PersonalInfo,
		FinancialInfo: fin,
		MarriageInfo:  MarriageView{MarriageInfo: p.MarriageInfo, Spouse: p.SpouseInfo},
		CourtInfo:     CourtView{CourtInfo: p.CourtInfo, Children: p.Children},
	}
}

// annualIncome prefers the stated gross annual income over W-2 wages and adds
// the non-wage sources once.
func annualIncome(in Income) float64 {
	total := first(in.GrossAnnualIncome, in.W2Wages)
	total += first(in.SelfEmploymentIncome, in.BusinessIncome)
	return total + sum(in.InterestIncome, in.DividendIncome, in.OtherIncome)
}

func first(vals ...*float64) float64 {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return 0
}

func sum(vals ...*float64) float64 {
	var total float64
	for _, v := range vals {
		if v != nil {
			total += *v
		}
	}
	return total
}
