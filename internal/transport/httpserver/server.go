package httpserver

import (
	"net/http"
	"time"

	"fridge-app-go/internal/config"
	"fridge-app-go/pkg/logger"
)

// New builds the server without a write timeout: event streams stay open for
// the lifetime of a session. Other routes are bounded by the router's Timeout.
func New(cfg config.Config, handler http.Handler, log logger.Logger) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    1 << 20,
		ErrorLog:          logger.NewStdLog(log, "http"),
	}
}
