package web_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/alex-kampa/realitycheck/foundation/web"
	"github.com/stretchr/testify/require"
)

func TestHandle(t *testing.T) {
	shutdown := make(chan os.Signal, 1)

	var order []string
	mw := func(name string) web.Middleware {
		return func(handler web.Handler) web.Handler {
			return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				order = append(order, name)
				return handler(ctx, w, r)
			}
		}
	}

	app := web.NewApp(shutdown, mw("app"))

	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		v, err := web.GetValues(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, v.TraceID)

		var req struct {
			Bond uint64 `json:"bond"`
		}
		if err := web.Decode(r, &req); err != nil {
			return err
		}

		resp := struct {
			ID   string `json:"id"`
			Bond uint64 `json:"bond"`
		}{
			ID:   web.Param(r, "id"),
			Bond: req.Bond,
		}

		return web.Respond(ctx, w, resp, http.StatusCreated)
	}
	app.Handle(http.MethodPost, "v1", "/questions/:id", h, mw("route"))

	r := httptest.NewRequest(http.MethodPost, "/v1/questions/0x01", strings.NewReader(`{"bond":4}`))
	w := httptest.NewRecorder()
	app.ServeHTTP(w, r)

	require.Equal(t, http.StatusCreated, w.Code)
	require.JSONEq(t, `{"id":"0x01","bond":4}`, w.Body.String())
	require.Equal(t, []string{"app", "route"}, order)

	// Unknown fields are an error that reaches the framework.
	r = httptest.NewRequest(http.MethodPost, "/v1/questions/0x01", strings.NewReader(`{"fee":4}`))
	app.ServeHTTP(httptest.NewRecorder(), r)
	require.Len(t, shutdown, 1)
}

func TestShutdownError(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", web.NewShutdownError("integrity"))
	require.True(t, web.IsShutdown(err))
	require.False(t, web.IsShutdown(errors.New("plain")))
}
