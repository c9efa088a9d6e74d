package domain

import "strings"

// Record is one shipment: identity, a timestamp per checkpoint and the
// derived metric values.
//
// Checkpoint and metric values are kept as the persisted text. An absent
// or blank entry means the checkpoint has not happened yet.
type Record struct {
	ID          string
	Date        string
	Plate       string
	Recorder    string
	Checkpoints map[string]string
	Metrics     map[string]string
}

// Create an empty record with the given identity.
func NewRecord(date, plate, recorder string) Record {
	return Record{
		Date:        date,
		Plate:       plate,
		Recorder:    recorder,
		Checkpoints: make(map[string]string, len(checkpoints)),
		Metrics:     make(map[string]string, len(metrics)),
	}
}

// Return the trimmed value for a checkpoint ("" when unset).
func (r Record) Checkpoint(name string) string {
	return strings.TrimSpace(r.Checkpoints[name])
}

// Return the value of any persisted field by column name.
func (r Record) Field(name string) string {
	switch name {
	case FieldID:
		return r.ID
	case FieldDate:
		return r.Date
	case FieldPlate:
		return r.Plate
	case FieldRecorder:
		return r.Recorder
	}
	if v, ok := r.Checkpoints[name]; ok {
		return v
	}
	return r.Metrics[name]
}

// SetField writes a persisted field by column name. Unknown names are ignored.
// It does not enforce the fill-only rule; callers that edit stored records
// go through the record store.
func (r *Record) SetField(name, value string) {
	switch name {
	case FieldID:
		r.ID = value
		return
	case FieldDate:
		r.Date = value
		return
	case FieldPlate:
		r.Plate = value
		return
	case FieldRecorder:
		r.Recorder = value
		return
	}
	if IsCheckpoint(name) {
		if r.Checkpoints == nil {
			r.Checkpoints = make(map[string]string, len(checkpoints))
		}
		r.Checkpoints[name] = value
		return
	}
	for _, m := range metrics {
		if m.Name == name {
			if r.Metrics == nil {
				r.Metrics = make(map[string]string, len(metrics))
			}
			r.Metrics[name] = value
			return
		}
	}
}

// Clone returns a deep copy so snapshots never share maps.
func (r Record) Clone() Record {
	out := r
	out.Checkpoints = make(map[string]string, len(r.Checkpoints))
	for k, v := range r.Checkpoints {
		out.Checkpoints[k] = v
	}
	out.Metrics = make(map[string]string, len(r.Metrics))
	for k, v := range r.Metrics {
		out.Metrics[k] = v
	}
	return out
}
