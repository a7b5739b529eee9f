package semantic

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/roach88/hql/internal/ir"
)

// DateLayout is how date values are rendered into plans.
const DateLayout = "2006-01-02 15:04:05"

// Scalar is a parsed field value.
//
// Upper is set for dates only: the exclusive end of the interval the value
// names. "2024-03" is [2024-03-01, 2024-04-01).
type Scalar struct {
	Value ir.IRValue    `json:"value"`
	Upper ir.IRValue    `json:"upper,omitempty"`
	Text  ir.MetaString `json:"text"`
}

var errBlankValue = errors.New("value is blank")

var calendarDate = regexp.MustCompile(`^(\d{4})(?:[-/](\d{1,2})(?:[-/](\d{1,2}))?)?$`)

// Parse converts a written value to the field's type.
func (f *Field) Parse(ms ir.MetaString) (Scalar, error) {
	text := strings.TrimSpace(ms.Value)
	out := Scalar{Text: ms}
	switch f.Kind {
	case FieldNumber:
		if text == "" {
			return out, errBlankValue
		}
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return out, fmt.Errorf("%q is not an integer", ms.Value)
		}
		out.Value = ir.IRInt(n)
		return out, nil
	case FieldDate:
		if text == "" {
			return out, errBlankValue
		}
		low, high, err := parseDate(text)
		if err != nil {
			return out, err
		}
		out.Value = ir.IRString(low.Format(DateLayout))
		out.Upper = ir.IRString(high.Format(DateLayout))
		return out, nil
	case FieldEnum:
		for _, v := range f.Values {
			if strings.EqualFold(v, text) {
				out.Value = ir.IRString(v)
				return out, nil
			}
		}
		return out, fmt.Errorf("%q is not one of %s", ms.Value, strings.Join(f.Values, ", "))
	case FieldPattern:
		out.Value = ir.IRString(ms.Value)
		return out, nil
	default:
		return out, fmt.Errorf("field %s takes no value", f.Key)
	}
}

// parseDate returns the half-open interval a date names. Calendar forms
// (2024, 2024-03, 2024-03-05) name a year, month or day; anything else is
// handed to dateparse and names a day when it has no clock part, else a
// second.
func parseDate(text string) (time.Time, time.Time, error) {
	if m := calendarDate.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, day := 1, 1
		if m[2] != "" {
			month, _ = strconv.Atoi(m[2])
		}
		if m[3] != "" {
			day, _ = strconv.Atoi(m[3])
		}
		low := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if low.Month() != time.Month(month) || low.Day() != day {
			return time.Time{}, time.Time{}, fmt.Errorf("%q is not a calendar date", text)
		}
		switch {
		case m[3] != "":
			return low, low.AddDate(0, 0, 1), nil
		case m[2] != "":
			return low, low.AddDate(0, 1, 0), nil
		default:
			return low, low.AddDate(1, 0, 0), nil
		}
	}
	t, err := dateparse.ParseIn(text, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%q is not a date: %w", text, err)
	}
	t = t.Truncate(time.Second)
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t, t.AddDate(0, 0, 1), nil
	}
	return t, t.Add(time.Second), nil
}
