package models

type StatementType string

const (
	StatementTypeIncomeStatement StatementType = "income_statement"
	StatementTypeBalanceSheet    StatementType = "balance_sheet"
	StatementTypeCashFlow        StatementType = "cash_flow"
	StatementTypeAnnualReport    StatementType = "annual_report"
)

func (t StatementType) Valid() bool {
	switch t {
	case StatementTypeIncomeStatement, StatementTypeBalanceSheet,
		StatementTypeCashFlow, StatementTypeAnnualReport:
		return true
	}
	return false
}

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// NormalizeSeverity maps unknown detector output to the medium default.
func NormalizeSeverity(s string) Severity {
	sev := Severity(s)
	if !sev.Valid() {
		return SeverityMedium
	}
	return sev
}

type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

func (r UserRole) Valid() bool {
	return r == UserRoleAdmin || r == UserRoleUser
}
