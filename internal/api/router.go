package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonhee/tigerboard/internal/api/handlers"
	"github.com/wonhee/tigerboard/pkg/logger"
)

// NewRouter wires all routes. Routing configuration lives in this
// function only.
func NewRouter(
	updateHandler *handlers.UpdateHandler,
	rankingHandler *handlers.RankingHandler,
	stabilityHandler *handlers.StabilityHandler,
	progress *ProgressHub,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/update", updateHandler.Trigger).Methods("POST")
	api.HandleFunc("/ranking/assets", rankingHandler.GetAssets).Methods("GET")
	api.HandleFunc("/ranking/users", rankingHandler.GetUsers).Methods("GET")
	api.HandleFunc("/stability/{id:[0-9]+}", stabilityHandler.Get).Methods("GET")

	// Batch progress feed for the board UI.
	r.Handle("/ws/progress", progress)

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "tigerboard-api",
	})
}

func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
