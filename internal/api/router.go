package api

import (
	"net/http"
	"transfer-tracking-service/internal/api/handlers"
	"transfer-tracking-service/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(tracker *services.Tracker) http.Handler {
	mux := http.NewServeMux()

	recHandler := &handlers.RecordHandler{Tracker: tracker}

	mux.HandleFunc("/health", recHandler.Health)
	mux.HandleFunc("GET /schema", recHandler.Schema)
	mux.HandleFunc("GET /records", recHandler.List)
	mux.HandleFunc("POST /records", recHandler.Create)
	mux.HandleFunc("GET /records/{id}/editable", recHandler.Editable)
	mux.HandleFunc("PATCH /records/{id}", recHandler.Edit)
	mux.HandleFunc("POST /records/{id}/checkpoints/{checkpoint}", recHandler.RegisterCheckpoint)
	mux.HandleFunc("GET /summary", recHandler.Summary)

	return loggingMiddleware(mux)
}
