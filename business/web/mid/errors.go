package mid

import (
	"context"
	"net/http"

	"github.com/powledger/node/business/sys/validate"
	"github.com/powledger/node/business/web/errs"
	"github.com/powledger/node/foundation/web"
	"go.uber.org/zap"
)

// Errors handles errors coming out of the call chain. It detects normal
// application errors which are used to respond to the client in a uniform
// way. Unexpected errors (status >= 500) are logged.
func Errors(log *zap.SugaredLogger) web.Middleware {

	m := func(handler web.Handler) web.Handler {

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if err := handler(ctx, w, r); err != nil {
				v, verr := web.GetValues(ctx)
				if verr != nil {
					return web.NewShutdownError("web value missing from context")
				}

				log.Errorw("ERROR", "traceid", v.TraceID, "message", err)

				// Build out the error response.
				var er errs.Response
				var status int
				switch {
				case validate.IsFieldErrors(err):
					fieldErrors := validate.GetFieldErrors(err)
					er = errs.Response{
						Error:  "data validation error",
						Fields: fieldErrors.Fields(),
					}
					status = http.StatusBadRequest

				case errs.IsTrusted(err):
					trusted := errs.GetTrusted(err)
					er = errs.Response{
						Error: trusted.Error(),
					}
					status = trusted.Status

				default:
					er = errs.Response{
						Error: http.StatusText(http.StatusInternalServerError),
					}
					status = http.StatusInternalServerError
				}

				// Respond with the error back to the client. If the client
				// is already gone there is nothing more to do for this
				// request; a broken connection must not take the service
				// down.
				if err := web.Respond(ctx, w, er, status); err != nil {
					log.Errorw("ERROR", "traceid", v.TraceID, "message", err)
				}

				// If we receive the shutdown err we need to return it back
				// to the base handler to shutdown the service.
				if web.IsShutdown(err) {
					return err
				}
			}

			return nil
		}

		return h
	}

	return m
}
