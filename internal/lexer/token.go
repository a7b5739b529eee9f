package lexer

import (
	"fmt"

	"github.com/roach88/hql/internal/ir"
)

// Kind classifies a token.
type Kind int

const (
	KindString   Kind = iota // bare or quoted string
	KindBacktick             // `precise` string
	KindPrefix               // @ # $ ^
	KindFamily               // : > >= < <= ~ ~+ ~-
	KindBracket              // [ ] ( ) { }
	KindComma                // ,
	KindDot                  // . address separator
	KindOr                   // |
	KindAnd                  // &
	KindNot                  // !
	KindMinus                // -
	KindPlus                 // +
)

var kindNames = map[Kind]string{
	KindString:   "string",
	KindBacktick: "backtick",
	KindPrefix:   "prefix",
	KindFamily:   "family",
	KindBracket:  "bracket",
	KindComma:    "comma",
	KindDot:      "dot",
	KindOr:       "or",
	KindAnd:      "and",
	KindNot:      "not",
	KindMinus:    "minus",
	KindPlus:     "plus",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Token is one lexical unit. Value holds the materialized string for string
// tokens and the ASCII symbol for everything else, even when the user typed
// a fullwidth equivalent.
type Token struct {
	Kind   Kind    `json:"kind"`
	Value  string  `json:"value"`
	Quoted bool    `json:"quoted,omitempty"`
	Spaced bool    `json:"spaced,omitempty"` // whitespace precedes the token
	Span   ir.Span `json:"span"`
}

// Is reports whether the token has the given kind and value.
func (t Token) Is(kind Kind, value string) bool {
	return t.Kind == kind && t.Value == value
}

// IsString reports whether the token carries a string (bare, quoted or backtick).
func (t Token) IsString() bool {
	return t.Kind == KindString || t.Kind == KindBacktick
}

func (t Token) String() string {
	switch t.Kind {
	case KindString:
		if t.Quoted {
			return fmt.Sprintf("%s(%q)", t.Kind, t.Value)
		}
		return fmt.Sprintf("%s(%s)", t.Kind, t.Value)
	case KindBacktick:
		return fmt.Sprintf("%s(`%s`)", t.Kind, t.Value)
	default:
		return fmt.Sprintf("%s(%s)", t.Kind, t.Value)
	}
}
