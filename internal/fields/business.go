package fields

var profitAndLossRules = []rule{
	{key: "businessName", kind: kindText, patterns: labeledText(`business\s+name`, `company(?:\s+name)?`, `business`, `dba`, `d/b/a`)},
	{key: "ownerName", kind: kindText, patterns: labeledText(`owner(?:'|’)?s?(?:\s+name)?`, `proprietor`, `prepared\s+for`)},
	{key: "grossReceipts", kind: kindAmount, patterns: labeled(amountValue,
		`gross\s+receipts(?:\s+or\s+sales)?`, `total\s+revenue`, `gross\s+sales`, `total\s+sales`, `total\s+income`, `revenue`, `sales`)},
	{key: "totalExpenses", kind: kindAmount, patterns: labeled(amountValue,
		`total\s+(?:operating\s+)?expenses`, `expenses`)},
	{key: "netProfit", kind: kindAmount, patterns: labeled(amountValue,
		`net\s+profit(?:\s+(?:or\s+)?\(?loss\)?)?`, `net\s+income`, `net\s+earnings`, `net\s+\(?loss\)?`)},
}

var reportingPeriod = rangePatterns(`for\s+the\s+period`, `reporting\s+period`, `period`, `from`)

func parseProfitAndLoss(text string) Map {
	m := applyRules(text, profitAndLossRules)
	if start, end, ok := findRange(text, reportingPeriod); ok {
		m["periodStart"] = start
		m["periodEnd"] = end
	}
	deriveNetProfit(m)
	return m
}

func deriveNetProfit(m Map) {
	if _, ok := m.Float("netProfit"); ok {
		return
	}
	gross, gok := m.Float("grossReceipts")
	expenses, eok := m.Float("totalExpenses")
	if gok && eok {
		m["netProfit"] = round2(gross - expenses)
	}
}
