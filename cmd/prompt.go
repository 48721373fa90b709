package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/budgetplanner/internal/budget"
	"github.com/theirongolddev/budgetplanner/internal/model"

	"github.com/shopspring/decimal"
)

// parseAmountArg parses a required amount from a flag or argument.
func parseAmountArg(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, errors.New("amount is required")
	}
	d, err := budget.ParseAmount(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q: %w", s, err)
	}
	return d, nil
}

// parseDateOrToday parses s, defaulting to today when empty.
func parseDateOrToday(s string) (time.Time, error) {
	d, err := model.ParseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	if d.IsZero() {
		return model.Today(), nil
	}
	return d, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
