package lexer

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/hql/internal/ir"
)

// Options are the lexer's share of the query options.
type Options struct {
	// ChineseSymbolReflect folds fullwidth and CJK punctuation to the ASCII
	// symbols they stand for.
	ChineseSymbolReflect bool
	// TranslateUnderscoreToSpace rewrites _ to a space in bare strings.
	TranslateUnderscoreToSpace bool
}

// Lex splits text into tokens.
//
// Lexing never stops at the first error: every offending character is
// reported and the rest of the input is still scanned. On any error the
// result is nil. An empty or all-whitespace query yields an empty,
// non-nil slice.
func Lex(text string, opts Options) ir.Analysis[[]Token] {
	l := &lexer{
		runes:     []rune(text),
		opts:      opts,
		c:         ir.NewCollector(ir.StageLexical),
		tokens:    []Token{},
		wordStart: true,
	}
	l.run()
	return ir.Finish(l.c, l.dropLoneConnectives())
}

type lexer struct {
	runes     []rune
	pos       int
	opts      Options
	c         *ir.Collector
	tokens    []Token
	wordStart bool
	spaced    bool // whitespace seen since the last token
}

func (l *lexer) push(t Token) {
	t.Spaced = l.spaced
	l.spaced = false
	l.tokens = append(l.tokens, t)
}

// at returns the rune at i as the lexer sees it: folded when
// ChineseSymbolReflect is on.
func (l *lexer) at(i int) rune {
	r := l.runes[i]
	if l.opts.ChineseSymbolReflect {
		return fold(r)
	}
	return r
}

func (l *lexer) run() {
	for l.pos < len(l.runes) {
		r := l.at(l.pos)
		switch {
		case unicode.IsSpace(r):
			l.pos++
			l.wordStart = true
			l.spaced = true
		case unicode.IsControl(r):
			l.c.Errorf(ir.ErrControlCharacter, ir.NewSpan(l.pos, l.pos+1),
				"control character U+%04X is not allowed outside quotes", r)
			l.pos++
			l.wordStart = true
		case l.wordStart && isQuote(r):
			l.readQuoted(r)
		case isAlwaysSymbol(r):
			l.readSymbol(r)
		case l.wordStart && isWordStartSymbol(r):
			l.emitSymbol(wordStartKind(r), string(r), l.pos, l.pos+1)
		default:
			l.readBare()
		}
	}
}

func wordStartKind(r rune) Kind {
	switch r {
	case '-':
		return KindMinus
	case '+':
		return KindPlus
	default:
		return KindNot
	}
}

func (l *lexer) emitSymbol(kind Kind, value string, begin, end int) {
	l.push(Token{Kind: kind, Value: value, Span: ir.NewSpan(begin, end)})
	l.pos = end
	l.wordStart = true
}

func (l *lexer) peekIs(offset int, want rune) bool {
	i := l.pos + offset
	return i < len(l.runes) && l.at(i) == want
}

func (l *lexer) readSymbol(r rune) {
	begin := l.pos
	switch r {
	case ':':
		l.emitSymbol(KindFamily, ":", begin, begin+1)
	case '>', '<':
		if l.peekIs(1, '=') {
			l.emitSymbol(KindFamily, string(r)+"=", begin, begin+2)
			return
		}
		l.emitSymbol(KindFamily, string(r), begin, begin+1)
	case '~':
		if l.peekIs(1, '+') || l.peekIs(1, '-') {
			l.emitSymbol(KindFamily, "~"+string(l.at(begin+1)), begin, begin+2)
			return
		}
		l.emitSymbol(KindFamily, "~", begin, begin+1)
	case '|':
		l.emitSymbol(KindOr, "|", begin, begin+1)
	case '&':
		l.emitSymbol(KindAnd, "&", begin, begin+1)
	case '@', '#', '$', '^':
		l.emitSymbol(KindPrefix, string(r), begin, begin+1)
	case '.':
		l.emitSymbol(KindDot, ".", begin, begin+1)
	case ',':
		l.emitSymbol(KindComma, ",", begin, begin+1)
	default:
		l.emitSymbol(KindBracket, string(r), begin, begin+1)
	}
}

// readBare consumes a bare string up to whitespace, a control character or
// an operator symbol. A backslash makes the next character literal.
func (l *lexer) readBare() {
	begin := l.pos
	var b strings.Builder
	for l.pos < len(l.runes) {
		r := l.at(l.pos)
		if unicode.IsSpace(r) || unicode.IsControl(r) || isAlwaysSymbol(r) {
			break
		}
		if l.runes[l.pos] == '\\' && l.pos+1 < len(l.runes) {
			b.WriteRune(l.runes[l.pos+1])
			l.pos += 2
			continue
		}
		b.WriteRune(l.runes[l.pos])
		l.pos++
	}
	value := b.String()
	if l.opts.TranslateUnderscoreToSpace {
		value = strings.ReplaceAll(value, "_", " ")
	}
	l.push(Token{
		Kind:  KindString,
		Value: norm.NFC.String(value),
		Span:  ir.NewSpan(begin, l.pos),
	})
	l.wordStart = false
}

var quotedEscapes = map[rune]rune{
	'n':  '\n',
	't':  '\t',
	'r':  '\r',
	'\\': '\\',
	'"':  '"',
	'\'': '\'',
	'`':  '`',
}

// readQuoted consumes a string opened by quote (already folded). The string
// closes at the next unescaped rune that folds to the same quote.
func (l *lexer) readQuoted(quote rune) {
	begin := l.pos
	l.pos++
	var b strings.Builder
	for l.pos < len(l.runes) {
		r := l.runes[l.pos]
		if l.at(l.pos) == quote {
			l.pos++
			kind := KindString
			if quote == '`' {
				kind = KindBacktick
			}
			l.push(Token{
				Kind:   kind,
				Value:  norm.NFC.String(b.String()),
				Quoted: true,
				Span:   ir.NewSpan(begin, l.pos),
			})
			l.wordStart = false
			return
		}
		if r == '\\' && l.pos+1 < len(l.runes) {
			next := l.runes[l.pos+1]
			if esc, ok := quotedEscapes[next]; ok {
				b.WriteRune(esc)
			} else {
				l.c.Warnf(ir.WarnUnknownEscape, ir.NewSpan(l.pos, l.pos+2),
					"unknown escape \\%c, kept as %q", next, string(next))
				b.WriteRune(next)
			}
			l.pos += 2
			continue
		}
		b.WriteRune(r)
		l.pos++
	}
	l.c.Errorf(ir.ErrUnterminatedString, ir.NewSpan(begin, len(l.runes)),
		"string opened with %c is never closed", quote)
	l.wordStart = true
}

// dropLoneConnectives removes | and & tokens that connect nothing: at the
// start or end of the query, or followed by another connective.
func (l *lexer) dropLoneConnectives() []Token {
	out := make([]Token, 0, len(l.tokens))
	isConnective := func(t Token) bool { return t.Kind == KindOr || t.Kind == KindAnd }
	for i, t := range l.tokens {
		if !isConnective(t) {
			out = append(out, t)
			continue
		}
		switch {
		case len(out) == 0:
			l.c.Warnf(ir.WarnLoneConnective, t.Span, "leading %q connects nothing and was ignored", t.Value)
		case i == len(l.tokens)-1:
			l.c.Warnf(ir.WarnLoneConnective, t.Span, "trailing %q connects nothing and was ignored", t.Value)
		case isConnective(l.tokens[i+1]):
			l.c.Warnf(ir.WarnLoneConnective, t.Span, "repeated connective %q was ignored", t.Value)
		default:
			out = append(out, t)
		}
	}
	return out
}
