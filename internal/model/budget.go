package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Frequency is how often an income entry recurs.
type Frequency string

const (
	FrequencyOneTime   Frequency = "One-time"
	FrequencyDaily     Frequency = "Daily"
	FrequencyWeekly    Frequency = "Weekly"
	FrequencyMonthly   Frequency = "Monthly"
	FrequencyQuarterly Frequency = "Quarterly"
	FrequencyYearly    Frequency = "Yearly"
)

// Frequencies lists every recurrence in display order.
var Frequencies = []Frequency{
	FrequencyOneTime,
	FrequencyDaily,
	FrequencyWeekly,
	FrequencyMonthly,
	FrequencyQuarterly,
	FrequencyYearly,
}

// ParseFrequency matches s case-insensitively against the known frequencies.
func ParseFrequency(s string) (Frequency, bool) {
	for _, f := range Frequencies {
		if strings.EqualFold(string(f), strings.TrimSpace(s)) {
			return f, true
		}
	}
	return "", false
}

// IncomeSources are the suggested income sources offered by input forms.
// Source is free text; anything else is accepted too.
var IncomeSources = []string{
	"Salary",
	"Freelance",
	"Business",
	"Investment",
	"Rental",
	"Bonus",
	"Gift",
	"Other",
}

// Categories is the fixed list of expense categories.
var Categories = []string{
	"Food & Dining",
	"Transportation",
	"Shopping",
	"Entertainment",
	"Bills & Utilities",
	"Healthcare",
	"Education",
	"Travel",
	"Other",
}

// Income is a single income entry. ID is zero until the service assigns one.
type Income struct {
	ID        int64
	Source    string
	Amount    decimal.Decimal
	Frequency Frequency
	Date      time.Time
}

// Expense is a single expense entry.
type Expense struct {
	ID          int64
	Description string
	Amount      decimal.Decimal
	Category    string
	Date        time.Time
}
