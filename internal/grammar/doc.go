// Package grammar parses HQL tokens into a clause tree.
//
//	query      := [clause { ['&'] clause }]
//	clause     := {'-'|'!'} ( sort | annotation | element )
//	sort       := ('~+'|'~-') str
//	annotation := {prefix} '[' str { ('|'|',') str } ']'
//	element    := [prefix] sfp { '|' sfp }
//	sfp        := strlist [ family [ predicative ] ]
//	strlist    := str { '.' str }
//	predicative:= range | col | sortlist | strlist
//	range      := ('['|'(') str ',' str (']'|')')
//	col        := '{' str { ',' str } '}'
//	sortlist   := ['+'|'-'] str { ',' ['+'|'-'] str }
//
// The tree records only what was written; whether a clause means anything
// is decided by the semantic analyzer against a dialect.
package grammar
