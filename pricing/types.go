/*
Package pricing computes a policy's final premium from its base premium and
a date-sensitive set of percentage adjustments.

PURPOSE:
  A premium is adjusted by risk factors (geography, building type), catalog
  fees, risk-indicator fees (flood zone, earthquake zone) and the broker's
  commission. The engine assembles those adjustments in a fixed order, sums
  them exactly and applies the sum once:

    final = round(base * (1 + sum), 2, half-up)

KEY CONCEPTS IN THIS FILE (types.go):
  - Premium:    a money amount, strictly positive, 2 fractional digits
  - Percentage: a fractional rate (0.10 == 10%), never rounded before summing

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal everywhere, no float64 in arithmetic
  2. Immutability: every value type is a plain value; methods return new values
  3. Purity: Aggregator and Calculator hold no mutable state

SEE ALSO:
  - target.go: RiskTarget tagged variant
  - catalog.go: risk factor and fee configurations
  - aggregator.go: adjustment assembly
  - calculator.go: final premium computation
*/
package pricing

import (
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits carried by a Premium.
const MoneyScale int32 = 2

// PercentageScale is the minimum number of fractional digits a Percentage is
// displayed with. Arithmetic is done at full precision.
const PercentageScale int32 = 4

// =============================================================================
// PREMIUM - Money amount, strictly positive
// =============================================================================

// Premium is a strictly positive money amount at 2 fractional digits.
// The zero value is not a valid premium; construct with NewPremium.
type Premium struct {
	value decimal.Decimal
}

// NewPremium validates that v is positive and fits in money precision.
func NewPremium(v decimal.Decimal) (Premium, error) {
	if !v.IsPositive() {
		return Premium{}, invalid("premium", "must be greater than zero")
	}
	if !v.Equal(v.Round(MoneyScale)) {
		return Premium{}, invalid("premium", "must have at most 2 fractional digits")
	}
	return Premium{value: v.Round(MoneyScale)}, nil
}

// ParsePremium parses a decimal string such as "1000.00".
func ParsePremium(s string) (Premium, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Premium{}, invalid("premium", "not a decimal number")
	}
	return NewPremium(d)
}

// MustPremium is ParsePremium for literals in tests and fixtures.
func MustPremium(s string) Premium {
	p, err := ParsePremium(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Premium) Decimal() decimal.Decimal { return p.value }
func (p Premium) IsZero() bool             { return p.value.IsZero() }
func (p Premium) Equal(o Premium) bool     { return p.value.Equal(o.value) }
func (p Premium) String() string           { return p.value.StringFixed(MoneyScale) }

// =============================================================================
// PERCENTAGE - Fractional adjustment rate
// =============================================================================

// Percentage is a fractional rate: 0.05 means 5%. It may be zero or negative
// (a discount). It is never rounded before summation.
type Percentage struct {
	value decimal.Decimal
}

// NewPercentage wraps a fractional rate.
func NewPercentage(v decimal.Decimal) Percentage {
	return Percentage{value: v}
}

// ParsePercentage parses a fractional rate such as "0.0333".
func ParsePercentage(s string) (Percentage, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Percentage{}, invalid("percentage", "not a decimal number")
	}
	return Percentage{value: d}, nil
}

// MustPercentage is ParsePercentage for literals in tests and fixtures.
func MustPercentage(s string) Percentage {
	p, err := ParsePercentage(s)
	if err != nil {
		panic(err)
	}
	return p
}

// ZeroPercentage is 0%.
func ZeroPercentage() Percentage { return Percentage{value: decimal.Zero} }

func (p Percentage) Decimal() decimal.Decimal      { return p.value }
func (p Percentage) Add(o Percentage) Percentage   { return Percentage{value: p.value.Add(o.value)} }
func (p Percentage) IsZero() bool                  { return p.value.IsZero() }
func (p Percentage) Equal(o Percentage) bool       { return p.value.Equal(o.value) }

// String renders at least PercentageScale fractional digits without dropping
// any extra precision.
func (p Percentage) String() string {
	if p.value.Exponent() < -PercentageScale {
		return p.value.String()
	}
	return p.value.StringFixed(PercentageScale)
}

// SumPercentages adds rates exactly, without intermediate rounding.
func SumPercentages(ps ...Percentage) Percentage {
	total := decimal.Zero
	for _, p := range ps {
		total = total.Add(p.value)
	}
	return Percentage{value: total}
}
