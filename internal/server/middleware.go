package server

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"fredwork/internal/journal"
	"fredwork/internal/request"
	"fredwork/internal/response"
	"fredwork/internal/router"
)

// Exchange is one connection's request, its response sink and what became
// of it.
type Exchange struct {
	ConnID  string
	Remote  string
	Request *request.Request
	Sink    *response.Sink
	Start   time.Time

	// Outcome is set by the dispatching handler
	Outcome router.Outcome

	// Panic holds the recovered value when the handler panicked
	Panic interface{}
}

// Handler handles one exchange.
type Handler func(x *Exchange)

// Middleware wraps a Handler.
type Middleware func(Handler) Handler

// Chain applies middleware so the first one listed is outermost.
func Chain(h Handler, middleware ...Middleware) Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	return h
}

// Dispatch returns the handler that routes exchanges through r.
func Dispatch(r *router.Router) Handler {
	return func(x *Exchange) {
		x.Outcome = r.Dispatch(x.Sink, x.Request)
	}
}

// Logging logs each request and its outcome. Installed outside Recover it
// also reports exchanges whose handler panicked.
func Logging(logger *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(x *Exchange) {
			logger.Debug("Request",
				"connId", x.ConnID,
				"method", string(x.Request.Method),
				"path", x.Request.Path,
				"remote", x.Remote,
			)

			next(x)

			outcome := string(x.Outcome)
			if x.Panic != nil {
				outcome = journal.OutcomeFailed
			}
			duration := time.Since(x.Start)
			logger.Info("Response",
				"connId", x.ConnID,
				"method", string(x.Request.Method),
				"path", x.Request.Path,
				"outcome", outcome,
				"bytes", x.Sink.Bytes(),
				"durationMs", duration.Milliseconds(),
			)
		}
	}
}

// Recover stops a handler panic from taking down the server. The
// connection is dropped without a response.
func Recover(logger *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(x *Exchange) {
			defer func() {
				if v := recover(); v != nil {
					x.Panic = v
					logger.Error("Panic recovered",
						"connId", x.ConnID,
						"error", fmt.Sprintf("%v", v),
						"stack", string(debug.Stack()),
					)
				}
			}()
			next(x)
		}
	}
}
