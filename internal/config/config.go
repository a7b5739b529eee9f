package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/hql/internal/compiler"
)

//go:embed schema.cue
var schemaSource string

// File is the on-disk shape of a config file. Unset fields keep their
// defaults.
type File struct {
	Query Query `yaml:"query" json:"query"`
}

// Query overrides compiler.Options field by field.
type Query struct {
	ChineseSymbolReflect         *bool `yaml:"chinese_symbol_reflect" json:"chinese_symbol_reflect,omitempty"`
	TranslateUnderscoreToSpace   *bool `yaml:"translate_underscore_to_space" json:"translate_underscore_to_space,omitempty"`
	QueryLimitOfQueryItems       *int  `yaml:"query_limit_of_query_items" json:"query_limit_of_query_items,omitempty"`
	WarningLimitOfUnionItems     *int  `yaml:"warning_limit_of_union_items" json:"warning_limit_of_union_items,omitempty"`
	WarningLimitOfIntersectItems *int  `yaml:"warning_limit_of_intersect_items" json:"warning_limit_of_intersect_items,omitempty"`
}

// Apply returns base with every field q sets replaced.
func (q Query) Apply(base compiler.Options) compiler.Options {
	if q.ChineseSymbolReflect != nil {
		base.ChineseSymbolReflect = *q.ChineseSymbolReflect
	}
	if q.TranslateUnderscoreToSpace != nil {
		base.TranslateUnderscoreToSpace = *q.TranslateUnderscoreToSpace
	}
	if q.QueryLimitOfQueryItems != nil {
		base.QueryLimitOfQueryItems = *q.QueryLimitOfQueryItems
	}
	if q.WarningLimitOfUnionItems != nil {
		base.WarningLimitOfUnionItems = *q.WarningLimitOfUnionItems
	}
	if q.WarningLimitOfIntersectItems != nil {
		base.WarningLimitOfIntersectItems = *q.WarningLimitOfIntersectItems
	}
	return base
}

// Error is a config problem, positioned when the source says where.
type Error struct {
	Path    string `json:"path"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Load reads path, a .yaml, .yml or .cue file, and returns the compiler
// options it describes on top of compiler.DefaultOptions.
func Load(path string) (compiler.Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return compiler.Options{}, fmt.Errorf("read config: %w", err)
	}
	var f *File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f, err = ParseYAML(path, data)
	case ".cue":
		f, err = ParseCUE(path, data)
	default:
		return compiler.Options{}, &Error{Path: path, Message: "unknown config format, want .yaml or .cue"}
	}
	if err != nil {
		return compiler.Options{}, err
	}
	return f.Query.Apply(compiler.DefaultOptions()), nil
}

// ParseYAML decodes strictly, so a misspelt key is an error, and then
// checks the result against the same schema CUE files are held to.
func ParseYAML(path string, data []byte) (*File, error) {
	f := &File{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
		return nil, &Error{Path: path, Message: strings.TrimPrefix(err.Error(), "yaml: ")}
	}

	ctx := cuecontext.New()
	v := schema(ctx).Unify(ctx.Encode(f))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(path, err)
	}
	return f, nil
}

// ParseCUE evaluates data against the closed schema.
func ParseCUE(path string, data []byte) (*File, error) {
	ctx := cuecontext.New()
	src := ctx.CompileBytes(data, cue.Filename(path))
	if err := src.Err(); err != nil {
		return nil, formatCUEError(path, err)
	}
	v := schema(ctx).Unify(src)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(path, err)
	}
	f := &File{}
	if err := v.Decode(f); err != nil {
		return nil, formatCUEError(path, err)
	}
	return f, nil
}

func schema(ctx *cue.Context) cue.Value {
	return ctx.CompileString(schemaSource, cue.Filename("schema.cue")).LookupPath(cue.ParsePath("#Config"))
}

// formatCUEError keeps the first error and its position in the user's file.
// Positions inside the embedded schema are dropped.
func formatCUEError(path string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Error{Path: path, Message: err.Error()}
	}
	first := errs[0]
	out := &Error{Path: path, Message: first.Error()}
	for _, pos := range append([]token.Pos{first.Position()}, first.InputPositions()...) {
		if pos.IsValid() && pos.Filename() == path {
			out.Line, out.Column = pos.Line(), pos.Column()
			break
		}
	}
	return out
}
