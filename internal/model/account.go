package model

import "time"

// AccountType is the kind of financial account.
type AccountType string

const (
	// AccountTypeChecking is a checking account.
	AccountTypeChecking AccountType = "checking"
	// AccountTypeSavings is a savings account.
	AccountTypeSavings AccountType = "savings"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeChecking, AccountTypeSavings:
		return true
	}
	return false
}

// Account represents a financial account. Accounts are archived rather than deleted.
type Account struct {
	CreatedAt time.Time
	Name      string
	Type      AccountType
	ID        int64
	Archived  bool
}
