package handlers

import (
	"log"
	"net/http"
	"transfer-tracking-service/internal/platform/obs"
)

// Health reports liveness and whether the record medium can be read.
func (h *RecordHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	exists, err := h.Tracker.Store.Exists(r.Context())
	if err != nil {
		log.Printf("health check failed: req_id=%s err=%v", obs.RequestID(r.Context()), err)
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}

	table := "absent"
	if exists {
		table = "present"
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok", "table": table})
}
