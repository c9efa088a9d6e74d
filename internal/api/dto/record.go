package dto

type CheckpointResponse struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

type MetricDefResponse struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type SchemaResponse struct {
	Checkpoints []CheckpointResponse `json:"checkpoints"`
	Terminal    string               `json:"terminal"`
	Metrics     []MetricDefResponse  `json:"metrics"`
}

type RecordResponse struct {
	ID          string            `json:"id"`
	Date        string            `json:"date"`
	Plate       string            `json:"plate"`
	Recorder    string            `json:"recorder"`
	Status      string            `json:"status"`
	Finalized   bool              `json:"finalized"`
	Checkpoints map[string]string `json:"checkpoints"`
	Metrics     map[string]string `json:"metrics"`
}

type ListRecordsResponse struct {
	View    string           `json:"view"`
	Records []RecordResponse `json:"records"`
}

// CreateRecordRequest carries a new shipment. Checkpoints in RegisterNow are
// stamped with the server's current time unless already present.
type CreateRecordRequest struct {
	Date        string            `json:"date"`
	Plate       string            `json:"plate"`
	Recorder    string            `json:"recorder"`
	Checkpoints map[string]string `json:"checkpoints"`
	RegisterNow []string          `json:"register_now"`
}

type EditRecordRequest struct {
	Fields map[string]string `json:"fields"`
}

type SaveRecordResponse struct {
	Record      RecordResponse `json:"record"`
	Applied     []string       `json:"applied,omitempty"`
	SyncWarning string         `json:"sync_warning,omitempty"`
}

type EditableFieldsResponse struct {
	ID     string   `json:"id"`
	Fields []string `json:"fields"`
}

type SummaryResponse struct {
	Total       int            `json:"total"`
	InOperation int            `json:"in_operation"`
	Finalized   int            `json:"finalized"`
	ByStatus    map[string]int `json:"by_status"`
}
