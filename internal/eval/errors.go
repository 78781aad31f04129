package eval

import (
	"fmt"

	"smile/internal/value"
)

// RuntimeError wraps an uncaught Smile exception as a Go error, carrying
// the structured *value.Exception payload a Smile `throw`/failed builtin
// call produces (spec.md §4.5 "Exception handling", §4.6 "EvalResult ...
// RuntimeError(exception)").
type RuntimeError struct {
	Exception *value.Exception
}

func (e RuntimeError) Error() string {
	return fmt.Sprintf("💥 RuntimeError: %s", e.Exception.Message)
}

func newException(format string, args ...any) *value.Exception {
	return &value.Exception{Message: fmt.Sprintf(format, args...)}
}
