// Package models defines the domain entities for the contract tracker.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxNameLength is the maximum allowed length for user-entered category and type names.
const MaxNameLength = 50

// Currency is the currency contract fees are displayed in.
const Currency = "€"

// User is an allow-list entry. A chat identity may use the bot only if present.
type User struct {
	ID        int64
	CreatedAt time.Time
}

// Category is the top level of the contract taxonomy.
type Category struct {
	ID   int
	Name string
}

// ContractType belongs to exactly one Category.
type ContractType struct {
	ID         int
	Name       string
	CategoryID int
}

// Beneficiary is the person a contract is held for.
type Beneficiary struct {
	ID   int
	Name string
}

// Contractor is the provider of a contract.
type Contractor struct {
	ID   int
	Name string
}

// PaymentPeriod describes how often a fee is paid.
type PaymentPeriod struct {
	ID   int
	Name string
}

// BankAccount is the account a fee is paid from.
type BankAccount struct {
	ID   int
	IBAN string
}

// Contract is one tracked recurring obligation.
type Contract struct {
	ID                   int
	UserID               int64
	TypeID               int
	BeneficiaryID        int
	ContractorID         int
	Fee                  decimal.Decimal
	PaymentPeriodID      int
	BankAccountID        int
	NoticePeriodMonths   int
	RenewalPeriodMonths  int
	StartDate            time.Time
	EndDate              time.Time
	NextCancellationDate time.Time
	IsActive             bool
	AlertActive          bool
	CreatedAt            time.Time
}

// ContractSummary is a row in a contract list.
type ContractSummary struct {
	ID             int
	TypeName       string
	ContractorName string
}

// ContractDetail is a contract joined with the names of everything it references.
type ContractDetail struct {
	Contract
	CategoryName      string
	TypeName          string
	BeneficiaryName   string
	ContractorName    string
	PaymentPeriodName string
	IBAN              string
}

// ReminderSubscription records that a chat asked for daily reminders.
type ReminderSubscription struct {
	ChatID    int64
	UserID    int64
	CreatedAt time.Time
}
