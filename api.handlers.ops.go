package main

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// OpsHandlerWrapper turns a standard http.Handler into a router handle.
func (api *APIHandler) OpsHandlerWrapper(h http.Handler) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		h.ServeHTTP(w, r)
	}
}

// Index provides same details like `Status` handler by redirecting the request.
func (api *APIHandler) Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	http.Redirect(w, r, "/status", http.StatusSeeOther)
}

// Status provides basics details about the application to the public users.
func (api *APIHandler) Status(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	err := WriteResponse(r.Context(), w, http.StatusOK, map[string]interface{}{
		"requestid": requestID,
		"status":    fmt.Sprintf("up & running since %.0f mins", api.clock.Now().Sub(api.stats.started).Minutes()),
		"message":   "Hello. Books store api is available. Enjoy :)",
	})
	if err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send status response", zap.Error(err))
	}
}

// Maintenance handles request to enable or disable the maintenance mode of the service.
// Enable the maintenance mode : /ops/maintenance?status=enable&msg=message-to-be-displayed-to-users
// Disable the maintenance mode: /ops/maintenance?status=disable
func (api *APIHandler) Maintenance(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	logger := api.GetLoggerFromContext(r.Context())
	q := r.URL.Query()
	status := http.StatusOK
	var response map[string]interface{}

	switch mstatus := q.Get("status"); mstatus {
	case "enable":
		msg, started := q.Get("msg"), api.clock.Now().UTC()
		api.mode.mu.Lock()
		api.mode.message = msg
		api.mode.started = started
		api.mode.mu.Unlock()
		api.mode.enabled.Store(true)
		response = map[string]interface{}{
			"requestid":           requestID,
			"maintenance.started": started.Format(time.RFC1123),
			"maintenance.message": msg,
			"message":             "Maintenance mode enabled successfully.",
		}
		logger.Info("maintenance mode enabled", zap.String("maintenance.message", msg))

	case "disable":
		api.mode.enabled.Store(false)
		api.mode.mu.Lock()
		api.mode.started = time.Time{}
		api.mode.message = ""
		api.mode.mu.Unlock()
		response = map[string]interface{}{
			"requestid": requestID,
			"message":   "Maintenance mode disabled successfully.",
		}
		logger.Info("maintenance mode disabled")

	default:
		status = http.StatusBadRequest
		response = map[string]interface{}{
			"message": fmt.Sprintf("invalid maintenance status %q", mstatus),
		}
	}

	if err := WriteResponse(r.Context(), w, status, response); err != nil {
		logger.Error("failed to send maintenance response", zap.Error(err))
	}
}

// GetStatistics provides useful details about the application to the internal ops users.
// The stats returns by this handler do not contain the ops request which triggered that.
// That is why we remove 1 from the called field value in order to match the status stats.
func (api *APIHandler) GetStatistics(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	api.mode.mu.RLock()
	maintenanceModeStartedTime := ""
	if !api.mode.started.IsZero() {
		maintenanceModeStartedTime = api.mode.started.Format(time.RFC1123)
	}
	maintenance := map[string]interface{}{
		"enabled": api.mode.enabled.Load(),
		"started": maintenanceModeStartedTime,
		"message": api.mode.message,
	}
	api.mode.mu.RUnlock()

	api.stats.mu.RLock()
	status := make(map[int]uint64, len(api.stats.status))
	for code, count := range api.stats.status {
		status[code] = count
	}
	api.stats.mu.RUnlock()

	err := WriteResponse(r.Context(), w, http.StatusOK, map[string]interface{}{
		"requestid":     requestID,
		"app.version":   api.stats.version,
		"app.container": api.stats.container,
		"app.platform":  api.stats.platform,
		"go.version":    api.stats.runtime,
		"called":        atomic.LoadUint64(&api.stats.called) - 1,
		"started":       api.stats.started.Format(time.RFC1123),
		"uptime":        fmt.Sprintf("%.0f mins", api.clock.Now().Sub(api.stats.started).Minutes()),
		"maintenance":   maintenance,
		"status":        status,
	})
	if err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send statistics response", zap.Error(err))
	}
}

// GetConfigs serves current in-use configurations with credentials masked.
func (api *APIHandler) GetConfigs(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	err := WriteResponse(r.Context(), w, http.StatusOK, map[string]interface{}{
		"requestid": GetValueFromContext(r.Context(), RequestIDContextKey),
		"configs":   api.config.Redacted(),
	})
	if err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send settings response", zap.Error(err))
	}
}

// NotFound answers requests made to unknown routes.
func (api *APIHandler) NotFound(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := WriteErrorResponse(r.Context(), w, http.StatusNotFound, "route does not exist"); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send error response", zap.Error(err))
	}
}

// MethodNotAllowed answers requests made with a method the route does not handle.
func (api *APIHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := WriteErrorResponse(r.Context(), w, http.StatusMethodNotAllowed, "method not allowed"); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send error response", zap.Error(err))
	}
}

// Preflight answers automatic OPTIONS requests on known routes. The router
// already set the Allow header and the cors headers come from the middlewares.
func (api *APIHandler) Preflight(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.WriteHeader(http.StatusNoContent)
}
