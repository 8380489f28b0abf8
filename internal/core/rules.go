package core

import "github.com/shopspring/decimal"

// FloorToStep floors value to the largest multiple of step not exceeding it.
// A zero or negative step leaves the value untouched. Never rounds up: an
// order sized above the requested amount could exceed available balance.
func FloorToStep(value, step decimal.Decimal) decimal.Decimal {
	if value.Sign() <= 0 {
		return decimal.Zero
	}
	if step.Sign() <= 0 {
		return value
	}
	return value.Div(step).Floor().Mul(step)
}

// NormalizeQty floors qty to the instrument's lot step and rejects
// sub-minimum results by returning zero. A zero result is a hard rejection,
// not a placeable size; bumping up to the minimum without caller consent
// would be a capital-risk violation.
func NormalizeQty(qty decimal.Decimal, rules InstrumentRules) decimal.Decimal {
	if qty.Sign() <= 0 {
		return decimal.Zero
	}
	q := qty
	if rules.LotStep.Sign() > 0 {
		q = FloorToStep(q, rules.LotStep)
	}
	if rules.MinSize.Sign() > 0 && q.Cmp(rules.MinSize) < 0 {
		return decimal.Zero
	}
	return q
}
