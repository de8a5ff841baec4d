package fields

import (
	"regexp"
	"strings"
)

var bankRules = []rule{
	{key: "bankName", kind: kindText, patterns: patterns(
		labeledText(`bank(?:\s+name)?`, `financial\s+institution`, `institution`),
		raw(`(?im)^[ \t]*([A-Za-z][A-Za-z&.' \-]*\b(?:bank|credit\s+union|savings\s+and\s+loan|federal\s+savings|trust\s+company)\b[A-Za-z&.' \-]*?)[ \t]*$`),
	)},
	{key: "accountHolder", kind: kindText, skipAfter: []string{"bank"}, patterns: labeledText(
		`account\s+holder(?:\s+name)?`, `account\s+name`, `customer(?:\s+name)?`, `prepared\s+for`, `name`)},
	{key: "accountNumberLast4", kind: kindLast4, patterns: labeled(last4Value,
		`account\s+(?:number|no\.?|#)`, `acct\.?\s*(?:number|no\.?|#)?`, `card\s+(?:number|ending\s+in)`, `ending\s+in`)},
	{key: "accountType", kind: kindText, patterns: patterns(
		labeledText(`account\s+type`, `type\s+of\s+account`),
		raw(`(?i)\b(checking|savings|money\s+market|certificate\s+of\s+deposit|credit\s+card|line\s+of\s+credit|mortgage|auto\s+loan|personal\s+loan|student\s+loan|brokerage|ira|401\s*\(?k\)?|loan)\b`),
	)},
	{key: "beginningBalance", kind: kindAmount, patterns: labeled(amountValue,
		`beginning\s+balance`, `opening\s+balance`, `previous\s+balance`, `starting\s+balance`, `balance\s+forward`)},
	{key: "endingBalance", kind: kindAmount, patterns: labeled(amountValue,
		`ending\s+balance`, `closing\s+balance`, `new\s+balance`, `statement\s+balance`, `current\s+balance`)},
	{key: "totalDeposits", kind: kindAmount, patterns: labeled(amountValue,
		`total\s+deposits(?:\s+and\s+(?:other\s+)?(?:credits|additions))?`, `deposits\s+and\s+(?:other\s+)?(?:credits|additions)`, `total\s+credits`)},
	{key: "totalWithdrawals", kind: kindAmount, patterns: labeled(amountValue,
		`total\s+withdrawals(?:\s+and\s+(?:other\s+)?debits)?`, `withdrawals\s+and\s+(?:other\s+)?(?:debits|subtractions)`, `total\s+debits`)},
	{key: "minimumPayment", kind: kindAmount, patterns: labeled(amountValue,
		`minimum\s+payment(?:\s+due)?`, `monthly\s+payment`, `payment\s+due`)},
}

var statementPeriod = rangePatterns(`statement\s+period`, `for\s+the\s+period`, `statement\s+dates`, `period`)

// Account types that describe money owed rather than held.
var debtAccountTypes = map[string]bool{
	"credit_card":    true,
	"line_of_credit": true,
	"mortgage":       true,
	"auto_loan":      true,
	"personal_loan":  true,
	"student_loan":   true,
	"loan":           true,
}

var accountTypeWords = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeAccountType maps a printed account type to a snake_case value.
func NormalizeAccountType(raw string) string {
	s := strings.Trim(accountTypeWords.ReplaceAllString(strings.ToLower(raw), "_"), "_")
	switch {
	case s == "":
		return ""
	case strings.Contains(s, "credit_card"), strings.Contains(s, "visa"), strings.Contains(s, "mastercard"):
		return "credit_card"
	case strings.Contains(s, "line_of_credit"), s == "heloc":
		return "line_of_credit"
	case strings.Contains(s, "mortgage"):
		return "mortgage"
	case strings.Contains(s, "auto"):
		return "auto_loan"
	case strings.Contains(s, "student"):
		return "student_loan"
	case strings.Contains(s, "personal_loan"):
		return "personal_loan"
	case strings.Contains(s, "loan"):
		return "loan"
	case strings.Contains(s, "checking"):
		return "checking"
	case strings.Contains(s, "money_market"):
		return "money_market"
	case strings.Contains(s, "savings"):
		return "savings"
	case strings.Contains(s, "certificate_of_deposit"), s == "cd":
		return "cd"
	case strings.Contains(s, "401"), s == "ira", strings.Contains(s, "retirement"):
		return "retirement"
	case strings.Contains(s, "brokerage"), strings.Contains(s, "investment"):
		return "brokerage"
	default:
		return s
	}
}

// IsDebtAccount reports whether a normalized account type is a liability.
func IsDebtAccount(accountType string) bool {
	return debtAccountTypes[accountType]
}

func parseBankStatement(text string) Map {
	m := applyRules(text, bankRules)
	if start, end, ok := findRange(text, statementPeriod); ok {
		m["statementStartDate"] = start
		m["statementEndDate"] = end
	}
	if addr := parseAddress(text, `address`, `mailing\s+address`); addr != nil {
		m["address"] = addr
	}
	deriveBankAccounts(m)
	return m
}

// deriveBankAccounts normalizes the account type and, unless the map already
// carries them, emits the statement's account as one asset or one debt.
func deriveBankAccounts(m Map) {
	if t := m.String("accountType"); t != "" {
		m["accountType"] = NormalizeAccountType(t)
	}
	if m["assets"] != nil || m["debts"] != nil {
		return
	}

	item := map[string]any{}
	if v := m.String("bankName"); v != "" {
		item["institution"] = v
	}
	if v := m.String("accountNumberLast4"); v != "" {
		item["accountLast4"] = v
	}
	balance, hasBalance := m.Float("endingBalance")
	if len(item) == 0 && !hasBalance {
		return
	}

	accountType := m.String("accountType")
	if IsDebtAccount(accountType) {
		item["debtType"] = accountType
		if v := m.String("bankName"); v != "" {
			item["creditor"] = v
			delete(item, "institution")
		}
		if hasBalance {
			item["balance"] = balance
		}
		if p, ok := m.Float("minimumPayment"); ok {
			item["monthlyPayment"] = p
		}
		m["debts"] = []any{item}
		return
	}

	if accountType == "" {
		accountType = "bank_account"
	}
	item["assetType"] = accountType
	if hasBalance {
		item["value"] = balance
	}
	m["assets"] = []any{item}
}
