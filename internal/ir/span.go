package ir

import "fmt"

// Span is a half-open [Begin, End) range of rune offsets into the original
// query text. Offsets count runes, not bytes, so a UI can highlight the range
// directly on the user's input.
type Span struct {
	Begin int `json:"begin"`
	End   int `json:"end"`
}

// NewSpan creates a Span. It panics if end < begin, which is a programming
// error in a stage, never a user error.
func NewSpan(begin, end int) Span {
	if end < begin {
		panic(fmt.Sprintf("ir: invalid span [%d,%d)", begin, end))
	}
	return Span{Begin: begin, End: end}
}

// Join returns the smallest span covering both s and other.
func (s Span) Join(other Span) Span {
	out := s
	if other.Begin < out.Begin {
		out.Begin = other.Begin
	}
	if other.End > out.End {
		out.End = other.End
	}
	return out
}

// Len returns the number of runes covered.
func (s Span) Len() int {
	return s.End - s.Begin
}

// IsZero reports whether the span is the zero value.
func (s Span) IsZero() bool {
	return s.Begin == 0 && s.End == 0
}

func (s Span) String() string {
	return fmt.Sprintf("%d-%d", s.Begin, s.End)
}
