package datatype

import (
	gojson "github.com/goccy/go-json"

	"github.com/transitdb/transit/errors"
)

// JSON is the DSL's JSON value type, stored canonically as compacted text
// so that structurally-equal documents compare equal regardless of source
// formatting.
type JSON struct {
	text string
}

// ParseJSONLiteral validates and canonicalizes a DSL JSON literal.
func ParseJSONLiteral(lit string) (JSON, error) {
	var v interface{}
	if err := gojson.Unmarshal([]byte(lit), &v); err != nil {
		return JSON{}, errors.Newf(errors.Parse, "invalid JSON literal: %v", err)
	}
	canonical, err := gojson.Marshal(v)
	if err != nil {
		return JSON{}, errors.Newf(errors.Parse, "invalid JSON literal: %v", err)
	}
	return JSON{text: string(canonical)}, nil
}

func (JSON) Kind() Kind      { return KindJSON }
func (j JSON) String() string { return j.text }

func (j JSON) Equal(other Value) bool {
	o, ok := other.(JSON)
	return ok && o.text == j.text
}
