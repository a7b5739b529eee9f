package testutil

import (
	"io"
	"log/slog"
)

// QuietLogger drops everything. Tests that assert on log output build
// their own handler.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
