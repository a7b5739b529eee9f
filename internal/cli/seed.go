package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/hql/internal/catalog"
	"github.com/roach88/hql/internal/store"
)

// SeedOutput summarizes a seeded catalog.
type SeedOutput struct {
	DB          string `json:"db"`
	Authors     int    `json:"authors"`
	Topics      int    `json:"topics"`
	Tags        int    `json:"tags"`
	Annotations int    `json:"annotations"`
	Illusts     int    `json:"illusts"`
	Albums      int    `json:"albums"`
}

func (o SeedOutput) String() string {
	return fmt.Sprintf("seeded %s: %d authors, %d topics, %d tags, %d annotations, %d illusts, %d albums",
		o.DB, o.Authors, o.Topics, o.Tags, o.Annotations, o.Illusts, o.Albums)
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <catalog.yaml>",
		Short: "Load a YAML catalog into the store",
		Long: `Validate a YAML catalog and write it into the SQLite store given by --db.
Rows that already exist are updated; relations are replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			if rootOpts.DB == "" {
				return f.Fail(ExitCommandError, ErrCodeBadArguments, "seed needs --db", nil)
			}
			c, err := catalog.Load(args[0])
			if err != nil {
				return f.Fail(ExitFailure, ErrCodeGeneric, err.Error(), nil)
			}
			st, err := store.Open(rootOpts.DB)
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
			}
			defer st.Close()
			if err := st.Seed(cmd.Context(), c); err != nil {
				return f.Fail(ExitFailure, ErrCodeStore, err.Error(), nil)
			}
			f.VerboseLog("seeded %s from %s", rootOpts.DB, args[0])
			return f.Success(SeedOutput{
				DB:          rootOpts.DB,
				Authors:     len(c.Authors),
				Topics:      len(c.Topics),
				Tags:        len(c.Tags),
				Annotations: len(c.Annotations),
				Illusts:     len(c.Illusts),
				Albums:      len(c.Albums),
			})
		},
	}
}
