package main

import (
	"context"
	"encoding/json"
	"net/http"
)

// StatusClientClosedRequest is the Nginx non standard status code
// used to log requests cancelled by the client.
const StatusClientClosedRequest = 499

// CustomResponseWriter is a wrapper for http.ResponseWriter. It is
// used to record response details like status code and body size.
type CustomResponseWriter struct {
	http.ResponseWriter
	code  int
	bytes int
	wrote bool
}

// NewCustomResponseWriter provides CustomResponseWriter with 200 as status code.
func NewCustomResponseWriter(rw http.ResponseWriter) *CustomResponseWriter {
	return &CustomResponseWriter{
		ResponseWriter: rw,
		code:           http.StatusOK,
	}
}

// WriteHeader implements http.ResponseWriter interface.
func (cw *CustomResponseWriter) WriteHeader(code int) {
	if !cw.wrote {
		cw.code = code
		cw.wrote = true
		cw.ResponseWriter.WriteHeader(code)
	}
}

// Write implements http.ResponseWriter interface.
func (cw *CustomResponseWriter) Write(bytes []byte) (int, error) {
	if !cw.wrote {
		cw.WriteHeader(cw.code)
	}
	n, err := cw.ResponseWriter.Write(bytes)
	cw.bytes += n
	return n, err
}

// Status returns the written status code.
func (cw *CustomResponseWriter) Status() int {
	return cw.code
}

// Bytes returns bytes written as response body.
func (cw *CustomResponseWriter) Bytes() int {
	return cw.bytes
}

// Unwrap returns native response writer and used by
// the http.ResponseController during its operation.
func (cw *CustomResponseWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}

// APIError is the data model sent when an error occurred during request processing.
type APIError struct {
	Message string `json:"message"`
}

// WriteErrorResponse is used to send error response to client. In case the client
// already closed the request, nothing is sent and the status code 499 is recorded
// for the stats and logs.
func WriteErrorResponse(ctx context.Context, w http.ResponseWriter, status int, message string) error {
	if err := ctx.Err(); err != nil {
		w.WriteHeader(StatusClientClosedRequest)
		return err
	}
	return writeJSON(w, status, APIError{Message: message})
}

// WriteResponse is used to send success api response to client.
func WriteResponse(ctx context.Context, w http.ResponseWriter, status int, data interface{}) error {
	if err := ctx.Err(); err != nil {
		w.WriteHeader(StatusClientClosedRequest)
		return err
	}
	return writeJSON(w, status, data)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}
