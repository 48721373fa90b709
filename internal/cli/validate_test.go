package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidators(t *testing.T) {
	tests := []struct {
		name  string
		check func(string) error
		in    string
		ok    bool
	}{
		{"required blank", Required("name"), "  ", false},
		{"required set", Required("name"), "Rent", true},
		{"amount", ValidAmount, "$1,200.50", true},
		{"amount negative", ValidAmount, "-4", false},
		{"positive zero", ValidPositiveAmount, "0", false},
		{"positive", ValidPositiveAmount, "0.01", true},
		{"optional blank", OptionalAmount, "", true},
		{"optional bad", OptionalAmount, "abc", false},
		{"date blank", ValidDate, "", true},
		{"date bad", ValidDate, "03/01/2024", false},
		{"required date blank", RequiredDate("deadline"), "", false},
		{"required date bad", RequiredDate("deadline"), "soon", false},
		{"required date", RequiredDate("deadline"), "2024-12-31", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.check(tt.in)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
