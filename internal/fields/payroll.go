package fields

var ytd = []string{"ytd", "year to date", "year-to-date"}

var payStubRules = []rule{
	{key: "employerName", kind: kindText, patterns: labeledText(`employer(?:\s+name)?`, `company(?:\s+name)?`, `paid\s+by`)},
	{key: "employerAddress", kind: kindText, patterns: labeledText(`employer\s+address`, `company\s+address`)},
	{key: "employeeFullName", kind: kindText, patterns: labeledText(`employee(?:\s+name)?`, `pay\s+to\s+the\s+order\s+of`, `pay\s+to`), skipAfter: nameSkip},
	{key: "employeeSsn", kind: kindSSN, patterns: labeled(ssnValue, `ssn`, `social\s+security\s+(?:number|no\.?|#)`)},
	{key: "payDate", kind: kindDate, patterns: labeled(dateValue, `pay\s+date`, `check\s+date`, `date\s+paid`, `advice\s+date`)},
	{key: "payFrequency", kind: kindText, patterns: labeledText(`pay\s+frequency`, `frequency`, `pay\s+schedule`)},
	{key: "wageIncome", kind: kindAmount, skipAfter: ytd, patterns: labeled(amountValue,
		`gross\s+pay`, `gross\s+earnings`, `gross\s+wages`, `total\s+gross`, `gross`)},
	{key: "netPay", kind: kindAmount, skipAfter: ytd, patterns: labeled(amountValue,
		`net\s+pay`, `net\s+amount`, `take\s+home(?:\s+pay)?`, `net`)},
	{key: "ytdGross", kind: kindAmount, patterns: labeled(amountValue,
		`ytd\s+gross(?:\s+pay|\s+earnings)?`, `year[\s-]+to[\s-]+date\s+gross`, `gross\s+ytd`)},
	{key: "annualIncome", kind: kindAmount, patterns: labeled(amountValue, `annual\s+(?:salary|income|pay)`)},
	{key: "federalTax", kind: kindAmount, skipAfter: ytd, patterns: labeled(amountValue,
		`federal\s+income\s+tax`, `fed(?:eral)?\s+(?:withholding|w/h|tax)`, `fitw?\b`)},
	{key: "stateTax", kind: kindAmount, skipAfter: ytd, patterns: labeled(amountValue,
		`state\s+income\s+tax`, `state\s+(?:withholding|w/h|tax)`, `sitw?\b`)},
	{key: "socialSecurity", kind: kindAmount, skipAfter: ytd, patterns: labeled(amountValue,
		`social\s+security(?:\s+tax)?`, `soc\s+sec(?:\s+tax)?`, `oasdi`, `fica`)},
	{key: "medicare", kind: kindAmount, skipAfter: ytd, patterns: labeled(amountValue,
		`medicare(?:\s+tax)?`, `med\s+tax`)},
	{key: "healthInsurance", kind: kindAmount, skipAfter: ytd, patterns: labeled(amountValue,
		`health\s+insurance`, `medical(?:\s+insurance)?`, `health`)},
	{key: "retirement", kind: kindAmount, skipAfter: ytd, patterns: labeled(amountValue,
		`401\s*\(?k\)?`, `403\s*\(?b\)?`, `retirement(?:\s+contribution)?`)},
}

var payPeriod = rangePatterns(`pay\s+period`, `period`, `pay\s+dates`)

func parsePayStub(text string) Map {
	m := applyRules(text, payStubRules)
	if start, end, ok := findRange(text, payPeriod); ok {
		m["payPeriodStart"] = start
		m["payPeriodEnd"] = end
	}
	derivePayStub(m)
	return m
}

// derivePayStub settles the pay frequency (explicit label first, then the
// pay-period span) and the annual and monthly income derived from it.
func derivePayStub(m Map) {
	freq := NormalizeFrequency(m.String("payFrequency"))
	if freq == "" {
		delete(m, "payFrequency")
		start, end := m.String("payPeriodStart"), m.String("payPeriodEnd")
		if start != "" && end != "" {
			freq, _ = FrequencyFromSpan(start, end)
		}
	}
	if freq != "" {
		m["payFrequency"] = freq
	}

	if _, direct := m.Float("annualIncome"); !direct {
		if gross, ok := m.Float("wageIncome"); ok {
			if mult, ok := Multiplier(freq); ok {
				m["annualIncome"] = round2(gross * mult)
			}
		}
	}
	if annual, ok := m.Float("annualIncome"); ok {
		m["monthlyIncome"] = round2(annual / 12)
	}
}
