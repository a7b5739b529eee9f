package ir

import (
	"fmt"
	"slices"
)

// Diagnostic codes. Errors abort the stage that raised them, warnings never do.
//
// Lexical (E1xx/W1xx), grammar (E2xx/W2xx), semantic (E3xx/W3xx) and
// translator (E4xx/W4xx) codes are stable: clients match on them.
const (
	// Lexical
	ErrControlCharacter   = "E101" // control character outside a quoted string
	ErrUnterminatedString = "E102" // quote opened and never closed
	WarnLoneConnective    = "W101" // leading, trailing or doubled | or &
	WarnUnknownEscape     = "W102" // backslash before a character with no escape meaning

	// Grammar
	ErrUnexpectedToken    = "E201" // token cannot start or continue the current rule
	ErrUnexpectedEnd      = "E202" // input ended inside a rule
	ErrUnclosedBracket    = "E203" // bracket opened and not closed
	ErrMissingPredicative = "E204" // binary family without a value
	ErrEmptySubject       = "E205" // element without a subject
	ErrConflictingPrefix  = "E207" // two different prefix glyphs on one element
	WarnRepeatedPrefix    = "W201" // same prefix glyph written twice
	WarnRepeatedNegation  = "W202" // more than one negation glyph on a clause
	WarnEmptyItem         = "W203" // empty alternative between two | tokens

	// Semantic
	ErrUnknownDialect                  = "E300" // dialect id not registered
	ErrUnsupportedElementKind          = "E301" // element kind not offered by the dialect
	ErrInvalidMetaTagForPrefix         = "E302" // value shape does not fit the prefix glyph
	ErrInvalidAnnotationPrefix         = "E303" // prefix glyph has no meaning on an annotation
	ErrUnsupportedValueType            = "E304" // value kind not valid here (e.g. sort list as a value)
	ErrUnsupportedValueTypeOfRelation  = "E305" // range or collection after a comparison family
	ErrValueCannotBeAddress            = "E306" // multi-segment value where a single string is required
	ErrElementPrefixNotRequired        = "E307" // prefix on an element kind that takes none
	ErrElementValueNotRequired         = "E308" // family or value on an element kind that takes none
	ErrUnknownOrderItem                = "E309" // order item not declared by the dialect
	ErrInvalidFieldValue               = "E310" // value cannot be parsed for the field type
	ErrMixedFieldItems                 = "E311" // alternatives of one field element name different fields
	ErrFieldValueRequired              = "E312" // field used without a value
	ErrUnsupportedFamily               = "E313" // family has no meaning for the field

	// Translator
	ErrUnsupportedByQueryer = "E401" // queryer cannot resolve this element kind
	ErrUnconvertibleValue   = "E402" // analyzed value could not be converted
	WarnBlankElement        = "W401" // value is blank, matches nothing
	WarnTooManyUnionItems   = "W402" // one element resolved to many entities
	WarnTooManyIntersect    = "W403" // many conjunctive conditions
	WarnNoMatch             = "W404" // value matched no entity
	WarnDuplicateOrder      = "W405" // order field given more than once, last wins
	WarnSequenceMember      = "W406" // sequence bound names no member of the group
)

// Severity classifies a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Stage names the pipeline stage that produced a diagnostic.
type Stage string

const (
	StageLexical    Stage = "lexical"
	StageGrammar    Stage = "grammar"
	StageSemantic   Stage = "semantic"
	StageTranslator Stage = "translator"
)

// Diagnostic is a coded error or warning bound to a span of the query text.
type Diagnostic struct {
	Code     string   `json:"code"`
	Stage    Stage    `json:"stage"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Span     Span     `json:"span"`
}

// Error implements the error interface.
func (d Diagnostic) Error() string {
	return fmt.Sprintf("[%s] %s: %s", d.Code, d.Span, d.Message)
}

// IsError reports whether the diagnostic aborts its stage.
func (d Diagnostic) IsError() bool {
	return d.Severity == SeverityError
}

// Collector accumulates diagnostics for one stage.
//
// A nil *Collector is a valid sink that drops everything, so ports can be
// called without one.
type Collector struct {
	stage    Stage
	warnings []Diagnostic
	errors   []Diagnostic
}

// NewCollector returns an empty collector for stage.
func NewCollector(stage Stage) *Collector {
	return &Collector{stage: stage}
}

// Errorf records an error.
func (c *Collector) Errorf(code string, span Span, format string, args ...any) {
	if c == nil {
		return
	}
	c.errors = append(c.errors, Diagnostic{
		Code:     code,
		Stage:    c.stage,
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
	})
}

// Warnf records a warning.
func (c *Collector) Warnf(code string, span Span, format string, args ...any) {
	if c == nil {
		return
	}
	c.warnings = append(c.warnings, Diagnostic{
		Code:     code,
		Stage:    c.stage,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
	})
}

// HasErrors reports whether any error was recorded.
func (c *Collector) HasErrors() bool {
	return c != nil && len(c.errors) > 0
}

// Warnings returns a copy of the recorded warnings. Never nil.
func (c *Collector) Warnings() []Diagnostic {
	if c == nil {
		return []Diagnostic{}
	}
	return append([]Diagnostic{}, c.warnings...)
}

// Errors returns a copy of the recorded errors. Never nil.
func (c *Collector) Errors() []Diagnostic {
	if c == nil {
		return []Diagnostic{}
	}
	return append([]Diagnostic{}, c.errors...)
}

// Absorb moves every diagnostic of other into c. Diagnostics recorded
// without a span (by ports that cannot know one) are rebound to at, and
// every absorbed diagnostic takes c's stage.
func (c *Collector) Absorb(other *Collector, at Span) {
	if c == nil || other == nil {
		return
	}
	rebind := func(ds []Diagnostic) []Diagnostic {
		out := slices.Clone(ds)
		for i := range out {
			out[i].Stage = c.stage
			if out[i].Span.IsZero() {
				out[i].Span = at
			}
		}
		return out
	}
	c.warnings = append(c.warnings, rebind(other.warnings)...)
	c.errors = append(c.errors, rebind(other.errors)...)
	other.warnings = nil
	other.errors = nil
}

// Codes returns the codes of ds in order. Handy for assertions and logs.
func Codes(ds []Diagnostic) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Code
	}
	return out
}
