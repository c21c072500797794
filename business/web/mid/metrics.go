package mid

import (
	"context"
	"net/http"

	"github.com/powledger/node/business/sys/metrics"
	"github.com/powledger/node/foundation/web"
)

// Metrics updates program counters.
func Metrics() web.Middleware {

	m := func(handler web.Handler) web.Handler {

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			// Add the metrics into the context for metric gathering.
			ctx = metrics.Set(ctx)

			// Call the next handler.
			err := handler(ctx, w, r)

			// Increment the request counter and error counter if an error
			// occurred.
			metrics.AddRequests(ctx)
			if err != nil {
				metrics.AddErrors(ctx)
			}

			return err
		}

		return h
	}

	return m
}
