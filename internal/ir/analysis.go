package ir

// Analysis is the outcome of one pipeline stage.
//
// Result is the zero value of T (nil for pointers and slices) whenever
// Errors is non-empty. A stage that succeeds may still carry warnings.
type Analysis[T any] struct {
	Result   T
	Warnings []Diagnostic
	Errors   []Diagnostic
}

// Failed reports whether the stage produced errors.
func (a Analysis[T]) Failed() bool {
	return len(a.Errors) > 0
}

// Finish builds an Analysis from a collector. If the collector holds errors
// the result is dropped.
func Finish[T any](c *Collector, result T) Analysis[T] {
	a := Analysis[T]{
		Warnings: c.Warnings(),
		Errors:   c.Errors(),
	}
	if len(a.Errors) == 0 {
		a.Result = result
	}
	return a
}
