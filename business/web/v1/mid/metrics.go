package mid

import (
	"context"
	"net/http"
	"runtime"

	"github.com/alex-kampa/realitycheck/foundation/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics updates program counters registered with the registry.
func Metrics(registry prometheus.Registerer) web.Middleware {
	factory := promauto.With(registry)

	requests := factory.NewCounterVec(prometheus.CounterOpts{
		Name: "oracle_http_requests_total",
		Help: "Requests handled by method",
	}, []string{"method"})

	errs := factory.NewCounter(prometheus.CounterOpts{
		Name: "oracle_http_errors_total",
		Help: "Requests that returned an error",
	})

	panics := factory.NewCounter(prometheus.CounterOpts{
		Name: "oracle_http_panics_total",
		Help: "Requests that panicked",
	})

	goroutines := factory.NewGauge(prometheus.GaugeOpts{
		Name: "oracle_goroutines",
		Help: "Goroutines running when the last request completed",
	})

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			// Call the next handler.
			err := handler(ctx, w, r)

			requests.WithLabelValues(r.Method).Inc()

			if err != nil {
				errs.Inc()
				if isPanic(err) {
					panics.Inc()
				}
			}

			goroutines.Set(float64(runtime.NumGoroutine()))

			// Return the error so it can be handled further up the chain.
			return err
		}

		return h
	}

	return m
}
