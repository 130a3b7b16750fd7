package mid

import (
	"context"
	"errors"
	"net/http"

	v1 "github.com/alex-kampa/realitycheck/business/web/v1"
	"github.com/alex-kampa/realitycheck/business/web/v1/validate"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/arbitrator"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/callback"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/signature"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/state"
	"github.com/alex-kampa/realitycheck/foundation/web"
	"go.uber.org/zap"
)

// statuses maps the errors the oracle returns to the status the client sees.
var statuses = []struct {
	err    error
	status int
}{
	{state.ErrQuestionNotFound, http.StatusNotFound},
	{callback.ErrNoCallbackRequest, http.StatusNotFound},
	{callback.ErrUnknownClient, http.StatusNotFound},

	{state.ErrQuestionExists, http.StatusConflict},
	{state.ErrStaleBondView, http.StatusConflict},
	{state.ErrAlreadyFinalized, http.StatusConflict},
	{state.ErrArbitrationPending, http.StatusConflict},
	{state.ErrAlreadyRevealed, http.StatusConflict},
	{state.ErrPartialClaimAlreadyOpen, http.StatusConflict},

	{state.ErrUnauthorized, http.StatusForbidden},
	{arbitrator.ErrNotOwner, http.StatusForbidden},
	{signature.ErrInvalidRecoveryID, http.StatusForbidden},
	{signature.ErrInvalidSignature, http.StatusForbidden},

	{state.ErrNotFinalized, http.StatusPreconditionFailed},
	{state.ErrNotRevealed, http.StatusPreconditionFailed},
	{state.ErrArbitrationNotRequested, http.StatusPreconditionFailed},

	{state.ErrInvalidStepDelay, http.StatusBadRequest},
	{state.ErrUnknownArbitrator, http.StatusBadRequest},
	{state.ErrInsufficientBond, http.StatusBadRequest},
	{state.ErrInsufficientFee, http.StatusBadRequest},
	{arbitrator.ErrFeeTooLow, http.StatusBadRequest},
	{arbitrator.ErrOverflow, http.StatusBadRequest},
	{state.ErrOverflow, http.StatusBadRequest},
	{state.ErrRevealExpired, http.StatusBadRequest},
	{state.ErrCommitmentMismatch, http.StatusBadRequest},
	{state.ErrHistoryMismatch, http.StatusBadRequest},
	{state.ErrInvalidReplay, http.StatusBadRequest},
	{state.ErrNothingToWithdraw, http.StatusBadRequest},
	{callback.ErrRewardTooLow, http.StatusBadRequest},
	{callback.ErrBudgetTooHigh, http.StatusBadRequest},
	{callback.ErrInvalidBudget, http.StatusBadRequest},
}

// Errors handles errors coming out of the call chain. It detects normal
// application errors which are used to respond to the client in a uniform way.
// Unexpected errors (status >= 500) are logged.
func Errors(log *zap.SugaredLogger) web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			// If the context is missing this value, request the service
			// to be shutdown gracefully.
			v, err := web.GetValues(ctx)
			if err != nil {
				return web.NewShutdownError("web value missing from context")
			}

			// Run the next handler and catch any propagated error.
			if err := handler(ctx, w, r); err != nil {

				// Log the error.
				log.Errorw("ERROR", "traceid", v.TraceID, "message", err)

				// Build out the error response.
				var er v1.ErrorResponse
				var status int
				switch {
				case validate.IsFieldErrors(err):
					fieldErrors := validate.GetFieldErrors(err)
					er = v1.ErrorResponse{
						Error:  "data validation error",
						Fields: fieldErrors.Fields(),
					}
					status = http.StatusBadRequest

				case v1.IsRequestError(err):
					reqErr := v1.GetRequestError(err)
					er = v1.ErrorResponse{
						Error: reqErr.Error(),
					}
					status = reqErr.Status

				default:
					er = v1.ErrorResponse{
						Error: http.StatusText(http.StatusInternalServerError),
					}
					status = http.StatusInternalServerError

					if s, ok := statusOf(err); ok {
						er.Error = err.Error()
						status = s
					}
				}

				// Respond with the error back to the client.
				if err := web.Respond(ctx, w, er, status); err != nil {
					return err
				}

				// If we receive the shutdown err we need to return it
				// back to the base handler to shut down the service.
				if web.IsShutdown(err) {
					return err
				}
			}

			// The error has been handled so we can stop propagating it.
			return nil
		}

		return h
	}

	return m
}

func statusOf(err error) (int, bool) {
	for _, s := range statuses {
		if errors.Is(err, s.err) {
			return s.status, true
		}
	}
	return 0, false
}
