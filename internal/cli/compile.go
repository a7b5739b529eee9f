package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/roach88/hql/internal/compiler"
	"github.com/roach88/hql/internal/ir"
	"github.com/roach88/hql/internal/queryplan"
	"github.com/roach88/hql/internal/querysql"
	"github.com/roach88/hql/internal/semantic"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Dialect string
	SQL     bool // also render the plan as SQL
}

// CompileOutput is the printable form of a compilation.
type CompileOutput struct {
	Query       string          `json:"query"`
	RequestID   string          `json:"request_id"`
	Dialect     string          `json:"dialect"`
	Stage       compiler.Stage  `json:"stage"`
	FailedAt    compiler.Stage  `json:"failed_at,omitempty"`
	Fingerprint string          `json:"fingerprint,omitempty"`
	Warnings    []ir.Diagnostic `json:"warnings"`
	Errors      []ir.Diagnostic `json:"errors"`
	Plan        json.RawMessage `json:"plan,omitempty"`
	SQL         string          `json:"sql,omitempty"`
	Params      []any           `json:"params,omitempty"`

	plan *queryplan.Plan
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <query>",
		Short: "Compile a query to a plan",
		Long: `Compile a query for one dialect and print the resulting plan with any
warnings. Names are resolved against --db, or --catalog when no store is
given. A query that starts with "-" must follow "--" so it is not read
as a flag.

Exit codes:
  0 - Query compiled (warnings allowed)
  1 - Query failed to compile
  2 - Command error`,
		Example: `  hql compile '@alice score:>=8'
  hql compile --sql -d album -- '-$cat'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Dialect, "dialect", "d", string(semantic.DialectIllust), "dialect to compile for")
	cmd.Flags().BoolVar(&opts.SQL, "sql", false, "render the plan as SQLite SQL")

	return cmd
}

func runCompile(opts *CompileOptions, query string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	dialect, err := parseDialect(opts.Dialect)
	if err != nil {
		return err
	}
	e, err := opts.openEnv(cmd.Context(), false)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	defer e.close()

	out, err := compileQuery(cmd.Context(), e.compiler, query, dialect, opts.SQL)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	return reportCompile(formatter, out)
}

func compileQuery(ctx context.Context, c *compiler.Compiler, query string, dialect semantic.DialectID, withSQL bool) (*CompileOutput, error) {
	res, err := c.Compile(ctx, query, dialect)
	if err != nil {
		return nil, err
	}
	out := &CompileOutput{
		Query:       query,
		RequestID:   res.RequestID,
		Dialect:     string(res.Dialect),
		Stage:       res.Stage,
		FailedAt:    res.FailedAt,
		Fingerprint: res.Fingerprint,
		Warnings:    res.Warnings,
		Errors:      res.Errors,
		plan:        res.Plan,
	}
	if res.Plan == nil {
		return out, nil
	}
	if out.Plan, err = queryplan.MarshalCanonical(res.Plan); err != nil {
		return nil, err
	}
	if withSQL {
		if out.SQL, out.Params, err = querysql.NewSQLCompiler().Compile(res.Plan); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// reportCompile prints out and turns a failed compilation into exit code 1.
func reportCompile(f *OutputFormatter, out *CompileOutput) error {
	if out.Stage == compiler.StageDone {
		return f.SuccessWithTrace(out, out.RequestID)
	}
	first := out.Errors[0]
	if f.Format == "json" {
		if err := f.ErrorWithTrace(first.Code, first.Message, out, out.RequestID); err != nil {
			return err
		}
	} else {
		fmt.Fprint(f.Writer, out.String())
	}
	return &ExitError{Code: ExitFailure, Message: "query failed to compile", Reported: true}
}

// String renders out for a terminal: diagnostics pointing into the query,
// then the plan.
func (out *CompileOutput) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s, %s)\n", out.Stage, out.Dialect, out.RequestID)
	if out.FailedAt != "" {
		fmt.Fprintf(&b, "failed at: %s\n", out.FailedAt)
	}
	for _, d := range append(append([]ir.Diagnostic{}, out.Errors...), out.Warnings...) {
		b.WriteString(Caret(out.Query, d))
	}
	if p := out.plan; p != nil {
		fmt.Fprintf(&b, "entity: %s\n", p.Entity)
		for _, j := range p.Joins {
			kind := "join"
			if j.LeftJoin {
				kind = "left join"
			}
			fmt.Fprintf(&b, "%s: %s AS %s ON %s\n", kind, j.Table, j.Alias, queryplan.Describe(j.Condition))
		}
		for _, w := range p.Where {
			fmt.Fprintf(&b, "where: %s\n", queryplan.Describe(w))
		}
		for _, o := range p.Orders {
			dir := "asc"
			if o.Desc {
				dir = "desc"
			}
			fmt.Fprintf(&b, "order: %s %s\n", o.Field, dir)
		}
		if p.Distinct {
			b.WriteString("distinct\n")
		}
	}
	if out.SQL != "" {
		fmt.Fprintf(&b, "sql: %s\n", out.SQL)
		fmt.Fprintf(&b, "params: %v\n", out.Params)
	}
	return b.String()
}

// Caret renders one diagnostic with the query underneath and its span
// underlined.
func Caret(query string, d ir.Diagnostic) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %s\n", d.Severity, d.Code, d.Message)
	runes := []rune(query)
	begin, end := min(d.Span.Begin, len(runes)), min(d.Span.End, len(runes))
	fmt.Fprintf(&b, "  %s\n", query)
	// Pad by display width so that fullwidth input stays aligned.
	pad := runewidth.StringWidth(string(runes[:begin]))
	width := max(runewidth.StringWidth(string(runes[begin:end])), 1)
	fmt.Fprintf(&b, "  %s%s\n", strings.Repeat(" ", pad), strings.Repeat("^", width))
	return b.String()
}
