package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/roach88/hql/internal/grammar"
	"github.com/roach88/hql/internal/ir"
	"github.com/roach88/hql/internal/lexer"
	"github.com/roach88/hql/internal/semantic"
	"github.com/roach88/hql/internal/store"
)

const (
	replPrompt  = "hql> "
	historyFile = ".hql_history"
)

// NewReplCommand creates the repl command.
func NewReplCommand(rootOpts *RootOptions) *cobra.Command {
	var dialect string
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Compile queries interactively",
		Long: `Start an interactive session that compiles each line as a query and,
with --db, runs it. --config is reloaded whenever the file changes.

Type :help for session commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDialect(dialect)
			if err != nil {
				return err
			}
			e, err := rootOpts.openEnv(cmd.Context(), true)
			if err != nil {
				return rootOpts.formatter(cmd).Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
			}
			defer e.close()
			return runRepl(cmd.Context(), &Session{env: e, Dialect: d}, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&dialect, "dialect", "d", string(semantic.DialectIllust), "initial dialect")
	return cmd
}

func runRepl(ctx context.Context, s *Session, out io.Writer) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(s.Complete)

	history := filepath.Join(os.TempDir(), historyFile)
	if f, err := os.Open(history); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(history); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Fprintln(out, "Type :help for commands, Ctrl+D to quit")
	for {
		input, err := line.Prompt(replPrompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(out)
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}
		if s.Eval(ctx, input, out) {
			return nil
		}
	}
}

// Session is the state of one interactive session.
type Session struct {
	env     *env
	Dialect semantic.DialectID
	SQL     bool
}

// Eval runs one line of input and reports whether the session should end.
func (s *Session) Eval(ctx context.Context, input string, out io.Writer) (quit bool) {
	line := strings.TrimSpace(input)
	switch {
	case line == "":
		return false
	case line == "exit" || line == "quit" || line == ":q":
		return true
	case strings.HasPrefix(line, ":"):
		s.command(line, out)
		return false
	}

	res, err := compileQuery(ctx, s.env.compiler, line, s.Dialect, s.SQL)
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return false
	}
	fmt.Fprint(out, res.String())
	if res.plan == nil || s.env.store == nil {
		return false
	}
	ids, err := s.env.store.Search(ctx, res.plan, store.Page{})
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return false
	}
	fmt.Fprintln(out, formatIDs(ids))
	return false
}

func (s *Session) command(line string, out io.Writer) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case ":help", ":h":
		fmt.Fprint(out, `:dialect [id]   show or switch the dialect
:tokens <query> print the tokens of a query
:tree <query>   print the clause tree of a query
:sql            toggle SQL rendering
:options        show the compiler options in effect
:help           this text
exit            leave
`)
	case ":dialect", ":d":
		if arg == "" {
			fmt.Fprintln(out, s.Dialect)
			return
		}
		d, err := parseDialect(arg)
		if err != nil {
			fmt.Fprintln(out, err)
			return
		}
		s.Dialect = d
		fmt.Fprintf(out, "dialect: %s\n", d)
	case ":tokens", ":t":
		fmt.Fprintln(out, lexQuery(arg, s.env.options().Lexer()))
	case ":tree":
		s.tree(arg, out)
	case ":sql":
		s.SQL = !s.SQL
		fmt.Fprintf(out, "sql: %t\n", s.SQL)
	case ":options":
		fmt.Fprintf(out, "%+v\n", s.env.options())
	default:
		fmt.Fprintf(out, "unknown command %s, try :help\n", name)
	}
}

// tree prints one line per clause: its kind, then its JSON form.
func (s *Session) tree(query string, out io.Writer) {
	tokens := lexer.Lex(query, s.env.options().Lexer())
	if len(tokens.Errors) > 0 {
		fmt.Fprint(out, Caret(query, tokens.Errors[0]))
		return
	}
	parsed := grammar.Parse(tokens.Result)
	for _, d := range append(append([]ir.Diagnostic{}, parsed.Errors...), parsed.Warnings...) {
		fmt.Fprint(out, Caret(query, d))
	}
	if parsed.Result == nil {
		return
	}
	for _, c := range parsed.Result.Clauses {
		data, err := json.Marshal(c)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			return
		}
		fmt.Fprintf(out, "%s %s\n", strings.TrimPrefix(fmt.Sprintf("%T", c), "grammar."), data)
	}
}

// Complete offers field and order names of the current dialect for the
// last word of line.
func (s *Session) Complete(line string) []string {
	i := strings.LastIndexAny(line, " \t") + 1
	head, word := line[:i], line[i:]
	if word == "" {
		return nil
	}
	if strings.HasPrefix(word, ":") {
		var out []string
		for _, c := range []string{":dialect", ":tokens", ":tree", ":sql", ":options", ":help"} {
			if strings.HasPrefix(c, word) {
				out = append(out, head+c)
			}
		}
		return out
	}
	d, ok := semantic.Lookup(s.Dialect)
	if !ok {
		return nil
	}
	prefix := ""
	if strings.HasPrefix(word, "~") || strings.HasPrefix(word, "-") {
		prefix, word = word[:1], word[1:]
		if prefix == "~" && (strings.HasPrefix(word, "+") || strings.HasPrefix(word, "-")) {
			prefix, word = "~"+word[:1], word[1:]
		}
	}
	var names []string
	if strings.HasPrefix(prefix, "~") {
		for _, o := range d.Orders {
			names = append(names, o.Key)
		}
	} else {
		for _, f := range d.Fields {
			names = append(names, f.Key)
		}
	}
	var out []string
	for _, n := range names {
		if strings.HasPrefix(strings.ToLower(n), strings.ToLower(word)) {
			out = append(out, head+prefix+n)
		}
	}
	slices.Sort(out)
	return out
}
