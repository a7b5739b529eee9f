package compiler

import (
	"github.com/roach88/hql/internal/lexer"
	"github.com/roach88/hql/internal/translator"
)

// Options is the read-only snapshot every compilation runs with.
type Options struct {
	ChineseSymbolReflect       bool `yaml:"chinese_symbol_reflect" json:"chinese_symbol_reflect"`
	TranslateUnderscoreToSpace bool `yaml:"translate_underscore_to_space" json:"translate_underscore_to_space"`

	QueryLimitOfQueryItems       int `yaml:"query_limit_of_query_items" json:"query_limit_of_query_items"`
	WarningLimitOfUnionItems     int `yaml:"warning_limit_of_union_items" json:"warning_limit_of_union_items"`
	WarningLimitOfIntersectItems int `yaml:"warning_limit_of_intersect_items" json:"warning_limit_of_intersect_items"`
}

// DefaultOptions enables symbol folding and uses the translator's limits.
func DefaultOptions() Options {
	t := translator.DefaultOptions()
	return Options{
		ChineseSymbolReflect:         true,
		QueryLimitOfQueryItems:       t.QueryLimitOfQueryItems,
		WarningLimitOfUnionItems:     t.WarningLimitOfUnionItems,
		WarningLimitOfIntersectItems: t.WarningLimitOfIntersectItems,
	}
}

// Lexer returns the lexer's share of o.
func (o Options) Lexer() lexer.Options {
	return lexer.Options{
		ChineseSymbolReflect:       o.ChineseSymbolReflect,
		TranslateUnderscoreToSpace: o.TranslateUnderscoreToSpace,
	}
}

// Translator returns the translator's share of o.
func (o Options) Translator() translator.Options {
	return translator.Options{
		QueryLimitOfQueryItems:       o.QueryLimitOfQueryItems,
		WarningLimitOfUnionItems:     o.WarningLimitOfUnionItems,
		WarningLimitOfIntersectItems: o.WarningLimitOfIntersectItems,
	}
}
