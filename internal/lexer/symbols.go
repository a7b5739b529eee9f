package lexer

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/width"
)

// cjkPunctuation maps CJK punctuation with no fullwidth decomposition to the
// ASCII symbol a user means by it. Fullwidth forms (U+FF01..U+FF5E) are
// handled by width folding.
var cjkPunctuation = map[rune]rune{
	'\u3010': '[',  // 【
	'\u3011': ']',  // 】
	'\u3014': '[',  // 〔
	'\u3015': ']',  // 〕
	'\u201c': '"',  // “
	'\u201d': '"',  // ”
	'\u2018': '\'', // ‘
	'\u2019': '\'', // ’
	'\u3001': ',',  // 、
	'\u3002': '.',  // 。
	'\u00b7': '.',  // ·
	'\u2014': '-',  // —
}

// operator symbols that end a bare word wherever they appear.
const alwaysSymbols = ":><~|&@#$^.,[](){}"

// symbols recognised only at the start of a word, so that create-time and
// 2020-01-01 stay single strings.
const wordStartSymbols = "-+!"

func isAlwaysSymbol(r rune) bool {
	return r < utf8.RuneSelf && strings.ContainsRune(alwaysSymbols, r)
}

func isWordStartSymbol(r rune) bool {
	return r < utf8.RuneSelf && strings.ContainsRune(wordStartSymbols, r)
}

func isQuote(r rune) bool {
	return r == '"' || r == '\'' || r == '`'
}

// fold returns the ASCII meaning of r when r is a fullwidth or CJK form of
// a symbol the lexer knows, and r itself otherwise. Fullwidth letters and
// digits are left alone: they are content, not syntax.
func fold(r rune) rune {
	if m, ok := cjkPunctuation[r]; ok {
		return m
	}
	if r < utf8.RuneSelf {
		return r
	}
	if n := width.LookupRune(r).Narrow(); n != 0 && n < utf8.RuneSelf {
		if isAlwaysSymbol(n) || isWordStartSymbol(n) || isQuote(n) && n != '`' {
			return n
		}
	}
	return r
}
