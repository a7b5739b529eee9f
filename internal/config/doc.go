// Package config loads compiler options from YAML or CUE files and keeps
// them current while a long-lived process runs.
//
// Both formats are checked against one closed schema:
//
//	query:
//	  chinese_symbol_reflect: true
//	  query_limit_of_query_items: 20
//	  warning_limit_of_union_items: 15
//	  warning_limit_of_intersect_items: 8
//
// Anything the file leaves out keeps its compiler.DefaultOptions value.
package config
