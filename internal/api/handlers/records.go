package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"transfer-tracking-service/internal/adapters/lock"
	"transfer-tracking-service/internal/api/dto"
	"transfer-tracking-service/internal/domain"
	"transfer-tracking-service/internal/platform/obs"
	"transfer-tracking-service/internal/services"
)

// RecordHandler exposes the shipment entry and listing endpoints.
type RecordHandler struct {
	Tracker *services.Tracker
}

func (h *RecordHandler) Schema(w http.ResponseWriter, r *http.Request) {
	res := dto.SchemaResponse{Terminal: domain.Terminal().Name}
	for _, c := range domain.Checkpoints() {
		res.Checkpoints = append(res.Checkpoints, dto.CheckpointResponse{Name: c.Name, Label: c.Label})
	}
	for _, m := range domain.Metrics() {
		res.Metrics = append(res.Metrics, dto.MetricDefResponse{Name: m.Name, Label: m.Label, Start: m.Start, End: m.End})
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	view := strings.TrimSpace(r.URL.Query().Get("view"))
	if view == "" {
		view = services.ViewAll
	}

	records, err := h.Tracker.List(r.Context(), view)
	if err != nil {
		h.fail(w, r, "list records", err)
		return
	}

	res := dto.ListRecordsResponse{View: view, Records: make([]dto.RecordResponse, 0, len(records))}
	for _, rec := range records {
		res.Records = append(res.Records, toRecordResponse(rec))
	}
	writeJSON(w, r, http.StatusOK, res)
}

// Create registers any requested checkpoints and appends the record.
func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRecordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rec := domain.NewRecord(strings.TrimSpace(req.Date), strings.TrimSpace(req.Plate), strings.TrimSpace(req.Recorder))
	for name, v := range req.Checkpoints {
		if !domain.IsCheckpoint(name) {
			writeError(w, r, http.StatusBadRequest, "unknown checkpoint: "+name)
			return
		}
		rec.Checkpoints[name] = strings.TrimSpace(v)
	}
	for _, name := range req.RegisterNow {
		var err error
		rec, err = h.Tracker.RegisterCheckpoint(rec, name)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "unknown checkpoint: "+name)
			return
		}
	}

	saved, err := h.Tracker.Save(r.Context(), rec)
	if err != nil {
		h.fail(w, r, "save record", err)
		return
	}

	res := dto.SaveRecordResponse{Record: toRecordResponse(saved.Record)}
	if saved.SyncErr != nil {
		res.SyncWarning = "saved locally; remote sync failed"
	}
	writeJSON(w, r, http.StatusCreated, res)
}

func (h *RecordHandler) Editable(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	fields, err := h.Tracker.Editable(r.Context(), id)
	if err != nil {
		h.fail(w, r, "editable fields", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.EditableFieldsResponse{ID: id, Fields: fields})
}

func (h *RecordHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var req dto.EditRecordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.Tracker.Edit(r.Context(), r.PathValue("id"), req.Fields)
	if err != nil {
		h.fail(w, r, "edit record", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toEditResponse(res))
}

func (h *RecordHandler) RegisterCheckpoint(w http.ResponseWriter, r *http.Request) {
	res, err := h.Tracker.RegisterOnStored(r.Context(), r.PathValue("id"), r.PathValue("checkpoint"))
	if err != nil {
		h.fail(w, r, "register checkpoint", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toEditResponse(res))
}

func (h *RecordHandler) Summary(w http.ResponseWriter, r *http.Request) {
	s, err := h.Tracker.Summary(r.Context())
	if err != nil {
		h.fail(w, r, "summary", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.SummaryResponse{
		Total:       s.Total,
		InOperation: s.InOperation,
		Finalized:   s.Finalized,
		ByStatus:    s.ByStatus,
	})
}

// fail maps service errors to HTTP statuses. Unexpected errors are logged
// and reported without detail.
func (h *RecordHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, services.ErrRecordNotFound):
		writeError(w, r, http.StatusNotFound, "record not found")
	case errors.Is(err, services.ErrUnknownCheckpoint):
		writeError(w, r, http.StatusBadRequest, "unknown checkpoint")
	case errors.Is(err, services.ErrUnknownView):
		writeError(w, r, http.StatusBadRequest, "view must be one of all, incomplete, finalized")
	case errors.Is(err, services.ErrRecordFinalized):
		writeError(w, r, http.StatusConflict, "record is finalized")
	case errors.Is(err, services.ErrNoTable):
		writeError(w, r, http.StatusConflict, "no records stored yet")
	case errors.Is(err, lock.ErrLockTimeout):
		writeError(w, r, http.StatusServiceUnavailable, "record table is busy, try again")
	default:
		log.Printf("%s failed: req_id=%s err=%v", op, obs.RequestID(r.Context()), err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}
	return true
}

func toRecordResponse(rec domain.Record) dto.RecordResponse {
	res := dto.RecordResponse{
		ID:          rec.ID,
		Date:        rec.Date,
		Plate:       rec.Plate,
		Recorder:    rec.Recorder,
		Status:      domain.DeriveStatus(rec),
		Finalized:   domain.IsFinalized(rec),
		Checkpoints: make(map[string]string, len(domain.Checkpoints())),
		Metrics:     make(map[string]string, len(domain.Metrics())),
	}
	for _, c := range domain.Checkpoints() {
		res.Checkpoints[c.Name] = rec.Checkpoint(c.Name)
	}
	for name, e := range domain.ComputeAllMetrics(rec) {
		res.Metrics[name] = e.String()
	}
	return res
}

func toEditResponse(res services.EditResult) dto.SaveRecordResponse {
	out := dto.SaveRecordResponse{Record: toRecordResponse(res.Record), Applied: res.Applied}
	if out.Applied == nil {
		out.Applied = []string{}
	}
	if res.SyncErr != nil {
		out.SyncWarning = "saved locally; remote sync failed"
	}
	return out
}
