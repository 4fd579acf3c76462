package persist

import (
	"strconv"

	"github.com/transitdb/transit/datatype"
	"github.com/transitdb/transit/errors"
)

// serializeValue renders a Value to the text stored in Posit.value_text and
// hashed into the chain. It is deliberately not always the same as
// Value.String(): Certainty's String() drops the '%' that
// datatype.ParseCertaintyLiteral requires, so restore would otherwise have
// no reversible path back to a typed Certainty. Every other kind's
// String() is already reversible through its own Parse*Literal function.
func serializeValue(v datatype.Value) string {
	if c, ok := v.(datatype.Certainty); ok {
		return strconv.Itoa(c.Percent()) + "%"
	}
	return v.String()
}

// deserializeValue is serializeValue's inverse, dispatched by the stored
// data type id.
func deserializeValue(kind datatype.Kind, text string) (datatype.Value, error) {
	switch kind {
	case datatype.KindString:
		return datatype.String(text), nil
	case datatype.KindI64:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, errors.Wrap(errors.DataCorruption, err, "restoring i64 posit value")
		}
		return datatype.I64(n), nil
	case datatype.KindDecimal:
		d, err := datatype.ParseDecimalLiteral(text)
		if err != nil {
			return nil, errors.Wrap(errors.DataCorruption, err, "restoring decimal posit value")
		}
		return d, nil
	case datatype.KindCertainty:
		c, err := datatype.ParseCertaintyLiteral(text)
		if err != nil {
			return nil, errors.Wrap(errors.DataCorruption, err, "restoring certainty posit value")
		}
		return c, nil
	case datatype.KindJSON:
		j, err := datatype.ParseJSONLiteral(text)
		if err != nil {
			return nil, errors.Wrap(errors.DataCorruption, err, "restoring json posit value")
		}
		return j, nil
	case datatype.KindTime:
		t, err := datatype.ParseTimeLiteral(text)
		if err != nil {
			return nil, errors.Wrap(errors.DataCorruption, err, "restoring time posit value")
		}
		return t, nil
	default:
		return nil, errors.Newf(errors.DataCorruption, "unknown data type id %d in restored posit", kind)
	}
}
