package compiler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/hql/internal/grammar"
	"github.com/roach88/hql/internal/ir"
	"github.com/roach88/hql/internal/lexer"
	"github.com/roach88/hql/internal/queryplan"
	"github.com/roach88/hql/internal/semantic"
	"github.com/roach88/hql/internal/translator"
)

// Stage is a state of the compilation state machine.
type Stage string

const (
	StageLexing      Stage = "lexing"
	StageParsing     Stage = "parsing"
	StageAnalyzing   Stage = "analyzing"
	StageTranslating Stage = "translating"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

// Result is the outcome of one compilation.
//
// Stage is Done or Failed. A Done result carries the plan and its
// fingerprint; a Failed result carries no plan, the errors of the stage
// that failed (FailedAt) and the warnings of every stage that ran.
type Result struct {
	RequestID   string             `json:"request_id"`
	Dialect     semantic.DialectID `json:"dialect"`
	Stage       Stage              `json:"stage"`
	FailedAt    Stage              `json:"failed_at,omitempty"`
	Plan        *queryplan.Plan    `json:"-"`
	Fingerprint string             `json:"fingerprint,omitempty"`
	Warnings    []ir.Diagnostic    `json:"warnings"`
	Errors      []ir.Diagnostic    `json:"errors"`
}

// OK reports whether compilation produced a plan.
func (r *Result) OK() bool {
	return r != nil && r.Stage == StageDone
}

// Compiler runs the pipeline. It holds no per-call state, so one Compiler
// may serve any number of concurrent Compile calls.
type Compiler struct {
	queryer translator.Queryer
	options func() Options
	ids     RequestIDGenerator
	logger  *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithRequestIDs replaces the UUIDv7 request id generator.
func WithRequestIDs(g RequestIDGenerator) Option {
	return func(c *Compiler) { c.ids = g }
}

// WithLogger sets the logger stage transitions go to.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) { c.logger = l }
}

// WithOptionsFunc makes every Compile call read its options from fn, for
// options that can change while the compiler is alive.
func WithOptionsFunc(fn func() Options) Option {
	return func(c *Compiler) { c.options = fn }
}

// New returns a compiler resolving names through q.
func New(q translator.Queryer, opts Options, options ...Option) *Compiler {
	c := &Compiler{
		queryer: q,
		options: func() Options { return opts },
		ids:     UUIDv7Generator{},
		logger:  slog.Default(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Compile turns text into a plan for dialect.
//
// Diagnostics never surface as the returned error: a query that fails to
// compile yields a Failed result and a nil error. The error is reserved
// for the Queryer's own failures and for ctx being done.
func (c *Compiler) Compile(ctx context.Context, text string, dialect semantic.DialectID) (*Result, error) {
	opts := c.options()
	id := c.ids.Generate()
	run := &run{
		res: &Result{
			RequestID: id,
			Dialect:   dialect,
			Warnings:  []ir.Diagnostic{},
			Errors:    []ir.Diagnostic{},
		},
		logger: c.logger.With("request_id", id, "dialect", string(dialect)),
	}

	run.enter(StageLexing)
	tokens := lexer.Lex(text, opts.Lexer())
	if !run.absorb(tokens.Warnings, tokens.Errors) {
		return run.res, nil
	}

	run.enter(StageParsing)
	tree := grammar.Parse(tokens.Result)
	if !run.absorb(tree.Warnings, tree.Errors) {
		return run.res, nil
	}

	run.enter(StageAnalyzing)
	analyzed := semantic.AnalyzeFor(tree.Result, dialect)
	if !run.absorb(analyzed.Warnings, analyzed.Errors) {
		return run.res, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	run.enter(StageTranslating)
	translated, err := translator.Translate(ctx, analyzed.Result, c.queryer, opts.Translator())
	if err != nil {
		run.logger.Debug("translation aborted", "error", err)
		return nil, fmt.Errorf("compile %s: %w", run.res.RequestID, err)
	}
	if !run.absorb(translated.Warnings, translated.Errors) {
		return run.res, nil
	}

	fingerprint, err := queryplan.Fingerprint(translated.Result)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", run.res.RequestID, err)
	}
	run.res.Plan = translated.Result
	run.res.Fingerprint = fingerprint
	run.enter(StageDone)
	return run.res, nil
}

// run tracks one compilation through the state machine.
type run struct {
	res    *Result
	logger *slog.Logger
}

func (r *run) enter(s Stage) {
	r.logger.Debug("compile stage", "from", string(r.res.Stage), "to", string(s))
	r.res.Stage = s
}

// absorb records a stage's diagnostics and moves to Failed when it
// produced errors. It reports whether the pipeline may continue.
func (r *run) absorb(warnings, errs []ir.Diagnostic) bool {
	r.res.Warnings = append(r.res.Warnings, warnings...)
	if len(errs) == 0 {
		return true
	}
	r.res.Errors = append(r.res.Errors, errs...)
	r.res.FailedAt = r.res.Stage
	r.logger.Debug("compile failed",
		"stage", string(r.res.Stage),
		"errors", ir.Codes(errs),
	)
	r.enter(StageFailed)
	return false
}
