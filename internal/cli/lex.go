package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/hql/internal/ir"
	"github.com/roach88/hql/internal/lexer"
)

// LexOutput is the token stream of one query.
type LexOutput struct {
	Query    string          `json:"query"`
	Tokens   []lexer.Token   `json:"tokens"`
	Warnings []ir.Diagnostic `json:"warnings"`
	Errors   []ir.Diagnostic `json:"errors"`
}

func (o *LexOutput) String() string {
	var b strings.Builder
	for _, t := range o.Tokens {
		fmt.Fprintf(&b, "%3d:%-3d %s\n", t.Span.Begin, t.Span.End, t)
	}
	for _, d := range append(append([]ir.Diagnostic{}, o.Errors...), o.Warnings...) {
		b.WriteString(Caret(o.Query, d))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// NewLexCommand creates the lex command.
func NewLexCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lex <query>",
		Short: "Print the tokens of a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			opts, err := rootOpts.loadOptions()
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
			}
			out := lexQuery(args[0], opts.Lexer())
			if len(out.Errors) > 0 {
				if f.Format == "json" {
					if err := f.Error(out.Errors[0].Code, out.Errors[0].Message, out); err != nil {
						return err
					}
				} else {
					fmt.Fprintln(f.Writer, out)
				}
				return &ExitError{Code: ExitFailure, Message: "query failed to lex", Reported: true}
			}
			return f.Success(out)
		},
	}
}

func lexQuery(query string, opts lexer.Options) *LexOutput {
	res := lexer.Lex(query, opts)
	tokens := res.Result
	if tokens == nil {
		tokens = []lexer.Token{}
	}
	return &LexOutput{Query: query, Tokens: tokens, Warnings: res.Warnings, Errors: res.Errors}
}
