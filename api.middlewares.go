package main

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// MiddlewareFunc is a custom type for ease of use.
type MiddlewareFunc func(httprouter.Handle) httprouter.Handle

// Middlewares is a custom type to represent a stack of
// middleware functions used to build a single chain.
type Middlewares []MiddlewareFunc

// MiddlewareMap contains middlewares chain to
// use for public-facing and ops requests.
type MiddlewareMap struct {
	public func(httprouter.Handle) httprouter.Handle
	ops    func(httprouter.Handle) httprouter.Handle
}

// MiddlewaresStacks provides the public and ops stacks. Ops requests skip the
// maintenance mode check so the mode can always be switched off.
func (api *APIHandler) MiddlewaresStacks() (*Middlewares, *Middlewares) {
	public := &Middlewares{
		api.RequestIDMiddleware,
		api.RequestsCounterMiddleware,
		api.StatsMiddleware,
		api.CoreMiddleware,
		api.PanicRecoveryMiddleware,
		CORSMiddleware,
		api.MaintenanceModeMiddleware,
	}
	ops := &Middlewares{
		api.RequestIDMiddleware,
		api.RequestsCounterMiddleware,
		api.StatsMiddleware,
		api.CoreMiddleware,
		api.PanicRecoveryMiddleware,
	}
	return public, ops
}

// Chain wraps a given httprouter.Handle with a list of middlewares.
// It does by starting from the last middleware from the list.
func (m *Middlewares) Chain(h httprouter.Handle) httprouter.Handle {
	if len(*m) == 0 {
		return h
	}
	lg := len(*m)
	handle := (*m)[lg-1](h)

	for i := lg - 2; i >= 0; i-- {
		handle = (*m)[i](handle)
	}

	return handle
}

// RequestIDMiddleware generates a unique id for the request. The id is
// added to the request context and sent back in the X-Request-ID header.
func (api *APIHandler) RequestIDMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		requestID := api.ids.Generate(RequestIDPrefix)
		w.Header().Set(RequestIDHeader, requestID)
		ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
		next(w, r.WithContext(ctx), ps)
	}
}

// RequestsCounterMiddleware increments the number of received requests statistics and add this
// new value to the request context to be used during logging as `request.num` field.
func (api *APIHandler) RequestsCounterMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), RequestNumberContextKey, atomic.AddUint64(&api.stats.called, 1))
		next(w, r.WithContext(ctx), ps)
	}
}

// StatsMiddleware records the count of responses per status code.
func (api *APIHandler) StatsMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		cw := NewCustomResponseWriter(w)
		next(cw, r, ps)
		api.stats.mu.Lock()
		api.stats.status[cw.Status()]++
		api.stats.mu.Unlock()
	}
}

// CoreMiddleware attaches a request scoped logger to the context then logs the
// request details once it is processed along with its duration and status.
func (api *APIHandler) CoreMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		start := api.clock.Now()
		logger := api.logger.With(
			zap.String("request.id", GetValueFromContext(r.Context(), RequestIDContextKey)),
			zap.Uint64("request.num", GetRequestNumberFromContext(r.Context())),
		)
		ctx := context.WithValue(r.Context(), LoggerContextKey, logger)
		cw, ok := w.(*CustomResponseWriter)
		if !ok {
			cw = NewCustomResponseWriter(w)
		}

		next(cw, r.WithContext(ctx), ps)

		logger.Info(
			"request",
			zap.String("request.method", r.Method),
			zap.String("request.path", r.URL.Path),
			zap.String("request.ip", GetRequestSourceIP(r)),
			zap.String("request.agent", r.UserAgent()),
			zap.String("request.referer", r.Referer()),
			zap.Int("response.status", cw.Status()),
			zap.Int("response.bytes", cw.Bytes()),
			zap.Duration("request.duration", api.clock.Now().Sub(start)),
		)
	}
}

// PanicRecoveryMiddleware catches any panic during the request lifecycle and produces
// an error log for further analysis. It sends a failure response to the client with 500.
func (api *APIHandler) PanicRecoveryMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		defer func() {
			if rec := recover(); rec != nil {
				logger := api.GetLoggerFromContext(r.Context())
				logger.Error("panic occurred", zap.Any("error", rec), zap.Stack("stack"))
				if err := WriteErrorResponse(r.Context(), w, http.StatusInternalServerError, "failed to process the request"); err != nil {
					logger.Error("failed to send error response", zap.Error(err))
				}
			}
		}()
		next(w, r, ps)
	}
}

// CORSMiddleware intercepts each incoming HTTP calls then apply cors headers on it.
func CORSMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Origin, Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Request-ID")
		w.Header().Set("Access-Control-Expose-Headers", RequestIDHeader)
		next(w, r, ps)
	}
}

// MaintenanceModeMiddleware answers 503 with the maintenance details when the mode is on.
func (api *APIHandler) MaintenanceModeMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if !api.mode.enabled.Load() {
			next(w, r, ps)
			return
		}
		api.mode.mu.RLock()
		response := map[string]interface{}{
			"message": "service currently unavailable",
			"reason":  api.mode.message,
			"since":   api.mode.started.Format(time.RFC1123),
		}
		api.mode.mu.RUnlock()
		if err := WriteResponse(r.Context(), w, http.StatusServiceUnavailable, response); err != nil {
			api.GetLoggerFromContext(r.Context()).Error("failed to send maintenance response", zap.Error(err))
		}
	}
}
