// Package httpserver builds the process HTTP server.
package httpserver

import (
	"net/http"
	"time"
)

// New returns a server with conservative timeouts. Request bodies here are
// small (credentials, passwords, plan definitions), so short limits are safe.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       time.Minute,
	}
}
