package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/theirongolddev/budgetplanner/internal/budget"
	"github.com/theirongolddev/budgetplanner/internal/model"
)

// Input validators shared by the command prompts and the dashboard forms.
// Each has the func(string) error shape huh expects.

// Required rejects blank input, naming the field in the message.
func Required(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", what)
		}
		return nil
	}
}

// ValidAmount accepts a non-negative amount.
func ValidAmount(s string) error {
	if _, err := budget.ParseAmount(s); err != nil {
		return errors.New("enter a non-negative amount, e.g. 12.50")
	}
	return nil
}

// ValidPositiveAmount accepts an amount above zero.
func ValidPositiveAmount(s string) error {
	d, err := budget.ParseAmount(s)
	if err != nil || !d.IsPositive() {
		return errors.New("enter an amount greater than zero")
	}
	return nil
}

// OptionalAmount accepts blank input or a non-negative amount.
func OptionalAmount(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return ValidAmount(s)
}

// ValidDate accepts blank input or a date in model.DateLayout.
func ValidDate(s string) error {
	if _, err := model.ParseDate(s); err != nil {
		return fmt.Errorf("use %s", model.DateLayout)
	}
	return nil
}

// RequiredDate accepts only a non-blank date in model.DateLayout.
func RequiredDate(what string) func(string) error {
	req := Required(what)
	return func(s string) error {
		if err := req(s); err != nil {
			return err
		}
		return ValidDate(s)
	}
}
