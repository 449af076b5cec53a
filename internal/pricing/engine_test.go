package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/calebmonroe/printhaus-backend/pkg/errors"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestQuoteReferenceScenario(t *testing.T) {
	t.Parallel()

	// 50cm × 70cm poster on a 1.2 material at 0.10 per cm²:
	// 3500 × 0.10 × 1.2 = 420.00
	amount, err := Quote(dec("50"), dec("70"), dec("1.2"), dec("0.10"))
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if amount.String() != "420" {
		t.Fatalf("expected 420.00, got %s", amount)
	}
	if Cents(amount) != 42000 {
		t.Fatalf("expected 42000 cents, got %d", Cents(amount))
	}
	if LineTotalCents(Cents(amount), 2) != 84000 {
		t.Fatalf("expected 84000 cents for qty 2")
	}
}

func TestQuoteBankersRoundingAtHalfCent(t *testing.T) {
	t.Parallel()

	// 1cm × 1cm at 0.105 lands exactly on a half cent: 0.105 → 0.10
	// (rounds to the even neighbor), while 0.115 → 0.12.
	cases := []struct {
		rate string
		want string
	}{
		{"0.105", "0.1"},
		{"0.115", "0.12"},
		{"0.125", "0.12"},
		{"0.135", "0.14"},
	}
	for _, tc := range cases {
		amount, err := Quote(dec("1"), dec("1"), dec("1"), dec(tc.rate))
		if err != nil {
			t.Fatalf("quote rate %s: %v", tc.rate, err)
		}
		if amount.String() != tc.want {
			t.Fatalf("rate %s: expected %s, got %s", tc.rate, tc.want, amount)
		}
	}
}

func TestQuoteDeterministic(t *testing.T) {
	t.Parallel()

	first, err := Quote(dec("33.33"), dec("47.5"), dec("1.85"), dec("0.0775"))
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	second, err := Quote(dec("33.33"), dec("47.5"), dec("1.85"), dec("0.0775"))
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if !first.Equal(second) {
		t.Fatalf("expected identical results, got %s and %s", first, second)
	}
	if first.IsNegative() {
		t.Fatalf("price must be non-negative, got %s", first)
	}
}

func TestQuoteRejectsInvalidDimensions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name                          string
		width, height, mult, baseRate string
	}{
		{"zero width", "0", "70", "1.2", "0.10"},
		{"negative height", "50", "-1", "1.2", "0.10"},
		{"zero base rate", "50", "70", "1.2", "0"},
		{"negative base rate", "50", "70", "1.2", "-0.10"},
	}
	for _, tc := range cases {
		_, err := Quote(dec(tc.width), dec(tc.height), dec(tc.mult), dec(tc.baseRate))
		if err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
	}
}

func TestSumLineTotalsNoCrossLineLeakage(t *testing.T) {
	t.Parallel()

	// Two lines priced independently must sum to the sum of their
	// individually rounded totals.
	a, _ := Quote(dec("10"), dec("10"), dec("1"), dec("0.010450"))
	b, _ := Quote(dec("10"), dec("10"), dec("1"), dec("0.010550"))

	totals := []int64{
		LineTotalCents(Cents(a), 3),
		LineTotalCents(Cents(b), 1),
	}
	// 1.045 → 1.04 (banker) ×3 = 3.12; 1.055 → 1.06 (banker) ×1 = 1.06
	if got := SumLineTotals(totals); got != 312+106 {
		t.Fatalf("expected 418 cents, got %d", got)
	}
}

func TestFromCentsRoundTrip(t *testing.T) {
	t.Parallel()

	if !FromCents(42000).Equal(dec("420")) {
		t.Fatalf("unexpected round trip: %s", FromCents(42000))
	}
}
