package logger

import (
	"context"
	"fmt"
)

// Recover traps panics and reports them through Fatal with a stack trace.
// Intentional FatalError panics are re-raised so main can set the exit code.
// Usage: defer logger.Recover(ctx)
func Recover(ctx context.Context) {
	r := recover()
	if r == nil {
		return
	}
	if _, ok := r.(FatalError); ok {
		panic(r)
	}
	Fatal(ctx, fmt.Sprintf("panic: %v", r))
}
