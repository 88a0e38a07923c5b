package payroll

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAddAdjustmentRequest_Validate(t *testing.T) {
	tests := []struct {
		name        string
		amount      decimal.Decimal
		description string
		wantErr     bool
	}{
		{name: "valid deduction", amount: decimal.NewFromInt(-500), description: "Damaged laptop"},
		{name: "zero amount", amount: decimal.Zero, description: "Damaged laptop", wantErr: true},
		{name: "short description", amount: decimal.NewFromInt(200), description: "bon", wantErr: true},
		{name: "whitespace padded", amount: decimal.NewFromInt(200), description: "  bonu  ", wantErr: true},
		// two Bengali letters are six bytes
		{name: "short multibyte description", amount: decimal.NewFromInt(200), description: "বো", wantErr: true},
		{name: "multibyte description", amount: decimal.NewFromInt(200), description: "উৎসব ভাতা"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := AddAdjustmentRequest{PayrollID: "pay-1", Amount: tt.amount, Description: tt.description}
			err := req.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAdjustment)
				return
			}
			assert.NoError(t, err)
		})
	}
}
