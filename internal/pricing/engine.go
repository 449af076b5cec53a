package pricing

import (
	"github.com/shopspring/decimal"

	pkgerrors "github.com/calebmonroe/printhaus-backend/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// Quote computes the price of a single print: width × height (cm²) × base
// rate × material multiplier, rounded once to 2 decimal places with banker's
// rounding. This is the only rounding point in the pricing path; partial
// products are never rounded and re-summed.
func Quote(widthCm, heightCm, materialMultiplier, baseRate decimal.Decimal) (decimal.Decimal, error) {
	if !widthCm.IsPositive() || !heightCm.IsPositive() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "width and height must be positive").
			WithDetails(map[string]any{"width_cm": widthCm.String(), "height_cm": heightCm.String()})
	}
	if !baseRate.IsPositive() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "base rate must be positive").
			WithDetails(map[string]any{"base_rate": baseRate.String()})
	}

	area := widthCm.Mul(heightCm)
	amount := area.Mul(baseRate).Mul(materialMultiplier)
	return amount.RoundBank(2), nil
}

// Cents converts a rounded amount into integer cents for persistence.
func Cents(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).IntPart()
}

// FromCents converts persisted cents back into a decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(hundred)
}

// LineTotalCents multiplies a unit price by quantity. The unit price is
// already rounded, so the multiplication is exact in cents.
func LineTotalCents(unitPriceCents int64, quantity int) int64 {
	return unitPriceCents * int64(quantity)
}

// SumLineTotals adds independently rounded line totals. Totals stay auditable
// per line: there is no blended cross-line multiplication.
func SumLineTotals(lineTotals []int64) int64 {
	var total int64
	for _, lineTotal := range lineTotals {
		total += lineTotal
	}
	return total
}
