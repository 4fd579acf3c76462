package datatype

import (
	"fmt"
	"strconv"
	"strings"
	stdtime "time"

	"github.com/transitdb/transit/errors"
)

// Granularity distinguishes the four finite Time shapes. The two sentinels
// (BeginningOfTime, EndOfTime) carry no granularity of their own.
type Granularity uint8

const (
	Year Granularity = iota
	YearMonth
	Date
	DateTime
)

// Time is a tagged value of kind Year(y) | YearMonth(y,m) | Date | DateTime,
// plus the beginning-of-time / end-of-time sentinels, which order below and
// above all finite times respectively. Times are totally ordered across
// granularities by their lower-bound instant interpretation: Year(2020)
// sorts as 2020-01-01T00:00:00.
type Time struct {
	granularity Granularity
	sentinel    int8 // 0 = finite, -1 = beginning of time, 1 = end of time
	year        int
	month       int
	day         int
	hour, min, sec int
	nsec        int
}

// NewYear builds a Time at Year granularity.
func NewYear(year int) Time { return Time{granularity: Year, year: year, month: 1, day: 1} }

// NewYearMonth builds a Time at YearMonth granularity.
func NewYearMonth(year, month int) Time {
	return Time{granularity: YearMonth, year: year, month: month, day: 1}
}

// NewDate builds a Time at Date granularity.
func NewDate(year, month, day int) Time {
	return Time{granularity: Date, year: year, month: month, day: day}
}

// NewDateTime builds a Time at DateTime granularity.
func NewDateTime(year, month, day, hour, min, sec, nsec int) Time {
	return Time{granularity: DateTime, year: year, month: month, day: day, hour: hour, min: min, sec: sec, nsec: nsec}
}

// BeginningOfTime is the sentinel that orders below every finite Time.
func BeginningOfTime() Time { return Time{sentinel: -1} }

// EndOfTime is the sentinel that orders above every finite Time.
func EndOfTime() Time { return Time{sentinel: 1} }

// Now returns the current instant as a DateTime-granularity Time, backing
// the DSL's @NOW literal. It is truncated to whole seconds, the precision
// of String and ParseTimeLiteral, so a persisted @NOW restores unchanged.
func Now() Time {
	t := stdtime.Now().UTC().Truncate(stdtime.Second)
	return NewDateTime(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond())
}

// IsBeginningOfTime reports whether t is the beginning-of-time sentinel.
func (t Time) IsBeginningOfTime() bool { return t.sentinel < 0 }

// IsEndOfTime reports whether t is the end-of-time sentinel.
func (t Time) IsEndOfTime() bool { return t.sentinel > 0 }

// instant returns the lower-bound instant used for total ordering.
func (t Time) instant() stdtime.Time {
	if t.sentinel < 0 {
		return stdtime.Date(-292277022399, stdtime.January, 1, 0, 0, 0, 0, stdtime.UTC)
	}
	if t.sentinel > 0 {
		return stdtime.Date(292277026596, stdtime.January, 1, 0, 0, 0, 0, stdtime.UTC)
	}
	return stdtime.Date(t.year, stdtime.Month(t.month), t.day, t.hour, t.min, t.sec, t.nsec, stdtime.UTC)
}

// Compare returns -1, 0, or 1 as t's instant is before, equal to, or after
// other's instant. Ordering predicates and "as of" argmax(time) both use
// this as the canonical Time comparison.
func (t Time) Compare(other Time) int {
	a, b := t.instant(), other.instant()
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

func (Time) Kind() Kind { return KindTime }

// String renders the Time per its granularity, or the sentinel spelling.
func (t Time) String() string {
	switch {
	case t.sentinel < 0:
		return "@BOT"
	case t.sentinel > 0:
		return "@EOT"
	}
	switch t.granularity {
	case Year:
		return fmt.Sprintf("%04d", t.year)
	case YearMonth:
		return fmt.Sprintf("%04d-%02d", t.year, t.month)
	case Date:
		return fmt.Sprintf("%04d-%02d-%02d", t.year, t.month, t.day)
	default:
		return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d", t.year, t.month, t.day, t.hour, t.min, t.sec)
	}
}

// Equal is structural: it requires the same granularity/sentinel and the
// same field values, not merely the same instant, so Year(2020) and
// 2020-01-01 are not Equal. `where` equality and search clause time
// narrowing use it as-is; Compare gives the instant ordering.
func (t Time) Equal(other Value) bool {
	o, ok := other.(Time)
	if !ok {
		return false
	}
	return t == o
}

func (t Time) Less(other Value) bool {
	o, ok := other.(Time)
	return ok && t.Compare(o) < 0
}

// ParseTimeLiteral parses the DSL's 'yyyy[-mm[-dd[Thh:mm:ss]]]' literal
// (quotes already stripped by the caller) as well as the bare @NOW, @BOT,
// @EOT spellings.
func ParseTimeLiteral(lit string) (Time, error) {
	switch strings.ToUpper(lit) {
	case "@NOW":
		return Now(), nil
	case "@BOT":
		return BeginningOfTime(), nil
	case "@EOT":
		return EndOfTime(), nil
	}

	datePart := lit
	timePart := ""
	if idx := strings.IndexAny(lit, "T "); idx >= 0 {
		datePart = lit[:idx]
		timePart = lit[idx+1:]
	}

	fields := strings.Split(datePart, "-")
	year, err := strconv.Atoi(fields[0])
	if err != nil {
		return Time{}, errors.Newf(errors.Parse, "invalid time literal %q: bad year", lit)
	}
	if len(fields) == 1 && timePart == "" {
		return NewYear(year), nil
	}
	if len(fields) < 2 {
		return Time{}, errors.Newf(errors.Parse, "invalid time literal %q", lit)
	}
	month, err := strconv.Atoi(fields[1])
	if err != nil || month < 1 || month > 12 {
		return Time{}, errors.Newf(errors.Parse, "invalid time literal %q: bad month", lit)
	}
	if len(fields) == 2 && timePart == "" {
		return NewYearMonth(year, month), nil
	}
	if len(fields) < 3 {
		return Time{}, errors.Newf(errors.Parse, "invalid time literal %q", lit)
	}
	day, err := strconv.Atoi(fields[2])
	if err != nil || day < 1 || day > 31 {
		return Time{}, errors.Newf(errors.Parse, "invalid time literal %q: bad day", lit)
	}
	if timePart == "" {
		return NewDate(year, month, day), nil
	}

	hms := strings.Split(timePart, ":")
	hour, _ := strconv.Atoi(nth(hms, 0))
	minute, _ := strconv.Atoi(nth(hms, 1))
	second, _ := strconv.Atoi(nth(hms, 2))
	return NewDateTime(year, month, day, hour, minute, second, 0), nil
}

func nth(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return "0"
}
