package mongo

import (
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// dec128 converts an amount for storage. Every amount in this codebase is
// produced by Round(2) arithmetic, well inside Decimal128 range.
func dec128(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.NewDecimal128(0, 0)
	}
	return v
}

// fromDec128 converts a stored amount back. Malformed values decode to zero
// rather than poisoning a whole document read.
func fromDec128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}
