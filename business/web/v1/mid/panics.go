package mid

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/alex-kampa/realitycheck/foundation/web"
)

// panicError marks an error recovered from a panic.
type panicError struct {
	msg string
}

func (pe *panicError) Error() string {
	return pe.msg
}

// isPanic reports whether the error was recovered from a panic.
func isPanic(err error) bool {
	var pe *panicError
	return errors.As(err, &pe)
}

// Panics recovers from panics and converts the panic to an error so it is
// reported in Metrics and handled in Errors.
func Panics() web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) (err error) {

			// Defer a function to recover from a panic and set the err return
			// variable after the fact.
			defer func() {
				if rec := recover(); rec != nil {
					trace := debug.Stack()
					err = &panicError{msg: fmt.Sprintf("PANIC [%v] TRACE[%s]", rec, string(trace))}
				}
			}()

			// Call the next handler and set its return value in the err variable.
			return handler(ctx, w, r)
		}

		return h
	}

	return m
}
