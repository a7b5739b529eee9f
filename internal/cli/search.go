package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/hql/internal/semantic"
	"github.com/roach88/hql/internal/store"
)

// SearchOptions holds flags for the search command.
type SearchOptions struct {
	*RootOptions
	Dialect string
	Limit   int
	Offset  int
}

// SearchOutput is a compiled query and the ids it matched.
type SearchOutput struct {
	*CompileOutput
	IDs []int64 `json:"ids"`
}

func (o *SearchOutput) String() string {
	var b strings.Builder
	for _, d := range o.Warnings {
		b.WriteString(Caret(o.Query, d))
	}
	b.WriteString(formatIDs(o.IDs))
	return b.String()
}

func formatIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	if len(parts) == 0 {
		return "0 result(s)"
	}
	return fmt.Sprintf("%d result(s): %s", len(ids), strings.Join(parts, " "))
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a query against the store",
		Long: `Compile a query and run it against the SQLite store given by --db,
printing the ids of the matching rows in plan order. A query that starts
with "-" must follow "--" so it is not read as a flag.`,
		Example: `  hql search --db hql.db '@alice score:>=8'
  hql search --db hql.db -- '-@alice ~+score'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Dialect, "dialect", "d", string(semantic.DialectIllust), "dialect to compile for")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of results (0 for all)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "results to skip")

	return cmd
}

func runSearch(opts *SearchOptions, query string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	if opts.DB == "" {
		return f.Fail(ExitCommandError, ErrCodeBadArguments, "search needs --db", nil)
	}
	if opts.Limit < 0 || opts.Offset < 0 {
		return f.Fail(ExitCommandError, ErrCodeBadArguments, "--limit and --offset must not be negative", nil)
	}
	dialect, err := parseDialect(opts.Dialect)
	if err != nil {
		return err
	}
	e, err := opts.openEnv(cmd.Context(), false)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	defer e.close()

	out, err := compileQuery(cmd.Context(), e.compiler, query, dialect, true)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	if out.plan == nil {
		return reportCompile(f, out)
	}
	ids, err := e.store.Search(cmd.Context(), out.plan, store.Page{Limit: opts.Limit, Offset: opts.Offset})
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	opts.Logger().Debug("search done", "request_id", out.RequestID, "results", len(ids))
	return f.SuccessWithTrace(&SearchOutput{CompileOutput: out, IDs: ids}, out.RequestID)
}
