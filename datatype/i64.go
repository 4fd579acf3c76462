package datatype

import "strconv"

// I64 is the DSL's signed 64-bit integer value type.
type I64 int64

func (I64) Kind() Kind        { return KindI64 }
func (i I64) String() string  { return strconv.FormatInt(int64(i), 10) }

func (i I64) Equal(other Value) bool {
	switch o := other.(type) {
	case I64:
		return o == i
	case Decimal:
		return o.dec.Equal(DecimalFromInt(int64(i)).dec)
	default:
		return false
	}
}

func (i I64) Less(other Value) bool {
	switch o := other.(type) {
	case I64:
		return i < o
	case Decimal:
		return DecimalFromInt(int64(i)).dec.LessThan(o.dec)
	default:
		return false
	}
}
