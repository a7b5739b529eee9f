// Package lexer turns HQL query text into a flat token stream.
//
// Symbols: prefixes (@ # $ ^), families (: > >= < <= ~ ~+ ~-), brackets
// ([ ] ( ) { }), comma, dot, connectives (| &) and the word-start symbols
// - + !. Strings are bare, "double", 'single' or `backtick` (precise).
//
// Spans are rune offsets into the original text. String values are NFC
// normalized when materialized; the source text itself is never rewritten,
// so spans stay valid for highlighting.
package lexer
