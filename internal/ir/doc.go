// Package ir provides the shared value types of the HQL compiler.
//
// Every stage of the pipeline (lexer, grammar, semantic, translator) imports
// ir; ir imports nothing internal. It holds:
//   - Span: a [begin,end) rune range into the original query text
//   - Diagnostic and Collector: coded errors and warnings with spans
//   - Analysis: the (result | nil, warnings, errors) triple every stage returns
//   - MetaString, MetaAddress and the sealed MetaValue union
//   - IRValue: scalar plan values (no floats) and canonical JSON for plan identity
package ir
