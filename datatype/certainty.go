package datatype

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/transitdb/transit/errors"
)

// Certainty is a scaled integer in [-100,100] representing subjective belief
// from not-certain (-100) to certain (100). Certainty literals in the DSL
// must carry a '%' suffix; a bare number is a different Value kind and
// compares unequal to a Certainty even when numerically identical.
type Certainty struct {
	alpha int8
}

// NewCertainty builds a Certainty from a percentage in [-100,100].
func NewCertainty(percent int) (Certainty, error) {
	if percent < -100 || percent > 100 {
		return Certainty{}, errors.Newf(errors.Execution, "certainty %d%% out of range [-100,100]", percent)
	}
	return Certainty{alpha: int8(percent)}, nil
}

// Percent returns the underlying scaled integer.
func (c Certainty) Percent() int { return int(c.alpha) }

func (Certainty) Kind() Kind { return KindCertainty }

// String renders the compact decimal form: "-1", "0", "0.NN", or "1".
func (c Certainty) String() string {
	switch c.alpha {
	case 100:
		return "1"
	case -100:
		return "-1"
	case 0:
		return "0"
	}
	abs := c.alpha
	sign := ""
	if abs < 0 {
		sign = "-"
		abs = -abs
	}
	return fmt.Sprintf("%s0.%02d", sign, abs)
}

func (c Certainty) Equal(other Value) bool {
	o, ok := other.(Certainty)
	return ok && o.alpha == c.alpha
}

func (c Certainty) Less(other Value) bool {
	o, ok := other.(Certainty)
	return ok && c.alpha < o.alpha
}

// ParseCertaintyLiteral parses a DSL certainty literal of the form "N%" or
// "-N%". A literal without the '%' suffix is not a Certainty literal at
// all and must be rejected by the caller before reaching here.
func ParseCertaintyLiteral(lit string) (Certainty, error) {
	if !strings.HasSuffix(lit, "%") {
		return Certainty{}, errors.Newf(errors.Parse, "certainty literal %q must end in %%", lit)
	}
	n, err := strconv.Atoi(strings.TrimSuffix(lit, "%"))
	if err != nil {
		return Certainty{}, errors.Newf(errors.Parse, "invalid certainty literal %q: %v", lit, err)
	}
	return NewCertainty(n)
}
