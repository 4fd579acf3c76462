package datatype

import (
	"github.com/shopspring/decimal"

	"github.com/transitdb/transit/errors"
)

// Decimal wraps github.com/shopspring/decimal for arbitrary-precision
// numeric values. i64 and Decimal compare/order against each other by
// promotion through Decimal, per the type rules.
type Decimal struct {
	dec decimal.Decimal
}

// ParseDecimalLiteral parses a DSL decimal literal (contains a '.').
func ParseDecimalLiteral(lit string) (Decimal, error) {
	d, err := decimal.NewFromString(lit)
	if err != nil {
		return Decimal{}, errors.Newf(errors.Parse, "invalid decimal literal %q: %v", lit, err)
	}
	return Decimal{dec: d}, nil
}

// DecimalFromInt promotes an int64 to Decimal for cross-kind comparison.
func DecimalFromInt(v int64) Decimal {
	return Decimal{dec: decimal.NewFromInt(v)}
}

func (Decimal) Kind() Kind       { return KindDecimal }
func (d Decimal) String() string { return d.dec.String() }

func (d Decimal) Equal(other Value) bool {
	switch o := other.(type) {
	case Decimal:
		return d.dec.Equal(o.dec)
	case I64:
		return d.dec.Equal(DecimalFromInt(int64(o)).dec)
	default:
		return false
	}
}

func (d Decimal) Less(other Value) bool {
	switch o := other.(type) {
	case Decimal:
		return d.dec.LessThan(o.dec)
	case I64:
		return d.dec.LessThan(DecimalFromInt(int64(o)).dec)
	default:
		return false
	}
}
