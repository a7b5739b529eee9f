// Command hql compiles and runs HQL queries.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/hql/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil && !cli.WasReported(err) {
		fmt.Fprintln(os.Stderr, "hql:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
