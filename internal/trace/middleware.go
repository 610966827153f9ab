package trace

import (
	"net/http"

	traceutil "github.com/NYCU-SDC/summer/pkg/trace"
	"go.uber.org/zap"
)

const healthPath = "/api/healthz"

type Middleware struct {
	logger *zap.Logger
	debug  bool
}

func NewMiddleware(logger *zap.Logger, debug bool) *Middleware {
	return &Middleware{
		logger: logger,
		debug:  debug,
	}
}

// TraceMiddleWare opens a span per request. Health probes are excluded so
// uptime checks don't flood the trace backend.
func (m Middleware) TraceMiddleWare(next http.HandlerFunc) http.HandlerFunc {
	traced := traceutil.TraceMiddleware(next, m.logger)
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == healthPath {
			next(w, r)
			return
		}
		traced(w, r)
	}
}

func (m Middleware) RecoverMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return traceutil.RecoverMiddleware(next, m.logger, m.debug)
}
