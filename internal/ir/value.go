package ir

import (
	"slices"
	"strconv"
	"unicode/utf16"
)

// IRValue is a sealed interface over the scalar and container values a
// query plan may carry. There is deliberately no float: numeric fields are
// int64 and dates are rendered strings, so plans hash deterministically.
type IRValue interface {
	irValue()
}

// IRString is a string value.
type IRString string

// IRInt is an integer value. Always int64.
type IRInt int64

// IRBool is a boolean value.
type IRBool bool

// IRArray is an ordered list of values.
type IRArray []IRValue

// IRObject maps string keys to values. Use SortedKeys for iteration.
type IRObject map[string]IRValue

func (IRString) irValue() {}
func (IRInt) irValue()    {}
func (IRBool) irValue()   {}
func (IRArray) irValue()  {}
func (IRObject) irValue() {}

// FormatValue renders a scalar for human-readable output.
func FormatValue(v IRValue) string {
	switch val := v.(type) {
	case IRString:
		return strconv.Quote(string(val))
	case IRInt:
		return strconv.FormatInt(int64(val), 10)
	case IRBool:
		return strconv.FormatBool(bool(val))
	case IRArray:
		out := "["
		for i, e := range val {
			if i > 0 {
				out += ", "
			}
			out += FormatValue(e)
		}
		return out + "]"
	case IRObject:
		out := "{"
		for i, k := range val.SortedKeys() {
			if i > 0 {
				out += ", "
			}
			out += k + ": " + FormatValue(val[k])
		}
		return out + "}"
	default:
		return "<nil>"
	}
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's string comparison orders by UTF-8 bytes, which differs for
// characters outside the BMP.
func (obj IRObject) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

func compareKeysRFC8785(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}
