package mid_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	v1 "github.com/alex-kampa/realitycheck/business/web/v1"
	"github.com/alex-kampa/realitycheck/business/web/v1/mid"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/state"
	"github.com/alex-kampa/realitycheck/foundation/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestErrors(t *testing.T) {
	type table struct {
		name   string
		err    error
		status int
	}

	tt := []table{
		{name: "not found", err: fmt.Errorf("question[0x01]: %w", state.ErrQuestionNotFound), status: http.StatusNotFound},
		{name: "stale", err: fmt.Errorf("question[0x01]: %w", state.ErrStaleBondView), status: http.StatusConflict},
		{name: "unauthorized", err: state.ErrUnauthorized, status: http.StatusForbidden},
		{name: "not finalized", err: state.ErrNotFinalized, status: http.StatusPreconditionFailed},
		{name: "bond", err: state.ErrInsufficientBond, status: http.StatusBadRequest},
		{name: "overflow", err: fmt.Errorf("question[0x01]: %w", state.ErrOverflow), status: http.StatusBadRequest},
		{name: "request", err: v1.NewRequestError(errors.New("bad id"), http.StatusBadRequest), status: http.StatusBadRequest},
		{name: "unknown", err: errors.New("disk on fire"), status: http.StatusInternalServerError},
	}

	for _, tst := range tt {
		t.Run(tst.name, func(t *testing.T) {
			reg := prometheus.NewRegistry()
			app := web.NewApp(make(chan os.Signal, 1), mid.Logger(zap.NewNop().Sugar()), mid.Errors(zap.NewNop().Sugar()), mid.Metrics(reg), mid.Panics())

			h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				return tst.err
			}
			app.Handle(http.MethodGet, "v1", "/test", h)

			w := httptest.NewRecorder()
			app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/test", nil))

			require.Equal(t, tst.status, w.Code)

			var er v1.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&er))
			require.NotEmpty(t, er.Error)

			require.Equal(t, float64(1), counter(t, reg, "oracle_http_errors_total"))
		})
	}
}

func TestPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	app := web.NewApp(make(chan os.Signal, 1), mid.Errors(zap.NewNop().Sugar()), mid.Metrics(reg), mid.Cors("*"), mid.Panics())

	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		panic("boom")
	}
	app.Handle(http.MethodGet, "v1", "/panic", h)

	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/panic", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	require.Equal(t, float64(1), counter(t, reg, "oracle_http_panics_total"))
}

func counter(t *testing.T, reg *prometheus.Registry, name string) float64 {
	mfs, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}
