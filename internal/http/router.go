package http

import (
	nethttp "net/http"

	"pickleball-score-service/internal/http/handlers"
)

// NewRouter registers HTTP routes on a ServeMux.
func NewRouter(handler *handlers.Handler) nethttp.Handler {
	mux := nethttp.NewServeMux()
	mux.HandleFunc("/health", handler.Health)
	mux.HandleFunc("/ready", handler.Ready)
	mux.HandleFunc("/matches", handler.CreateMatch)
	mux.HandleFunc("/matches/", handler.MatchRoutes)
	mux.HandleFunc("/overlay/", handler.OverlayRoutes)
	return mux
}
