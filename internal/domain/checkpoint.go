package domain

// Checkpoint is a named milestone in a shipment's journey.
// Label is the column header used by the spreadsheet medium.
type Checkpoint struct {
	Name  string
	Label string
}

// MetricDef names an elapsed-time measurement between two checkpoints.
type MetricDef struct {
	Name  string
	Label string
	Start string
	End   string
}

// Identity field names.
const (
	FieldID       = "id"
	FieldDate     = "date"
	FieldPlate    = "plate"
	FieldRecorder = "recorder"
)

// Checkpoint names in expected chronological order.
const (
	FactoryEntry = "factory_entry"
	FactoryDock  = "factory_dock"
	LoadStart    = "load_start"
	LoadEnd      = "load_end"
	Billed       = "billed"
	LoadTiedDown = "load_tied_down"
	YardExit     = "yard_exit"
	DCEntry      = "dc_entry"
	DCDock       = "dc_dock"
	UnloadStart  = "unload_start"
	UnloadEnd    = "unload_end"
	DCExit       = "dc_exit"
)

var checkpoints = []Checkpoint{
	{Name: FactoryEntry, Label: "Entrada na Fábrica"},
	{Name: FactoryDock, Label: "Encostou na doca Fábrica"},
	{Name: LoadStart, Label: "Início carregamento"},
	{Name: LoadEnd, Label: "Fim carregamento"},
	{Name: Billed, Label: "Faturado"},
	{Name: LoadTiedDown, Label: "Amarração carga"},
	{Name: YardExit, Label: "Saída do pátio"},
	{Name: DCEntry, Label: "Entrada CD"},
	{Name: DCDock, Label: "Encostou na doca CD"},
	{Name: UnloadStart, Label: "Início Descarregamento CD"},
	{Name: UnloadEnd, Label: "Fim Descarregamento CD"},
	{Name: DCExit, Label: "Saída CD"},
}

var metrics = []MetricDef{
	{Name: "dock_wait", Label: "Tempo Espera Doca", Start: FactoryEntry, End: FactoryDock},
	{Name: "factory_total", Label: "Tempo Total", Start: FactoryEntry, End: YardExit},
	{Name: "loading", Label: "Tempo de Carregamento", Start: LoadStart, End: LoadEnd},
	{Name: "transit_to_dc", Label: "Tempo Percurso Para CD", Start: YardExit, End: DCEntry},
	{Name: "unloading", Label: "Tempo de Descarregamento CD", Start: UnloadStart, End: UnloadEnd},
	{Name: "dc_total", Label: "Tempo Total CD", Start: DCEntry, End: DCExit},
	{Name: "dc_dock_wait", Label: "Tempo Espera Doca CD", Start: DCEntry, End: DCDock},
}

var identity = []Checkpoint{
	{Name: FieldID, Label: "ID"},
	{Name: FieldDate, Label: "Data"},
	{Name: FieldPlate, Label: "Placa do caminhão"},
	{Name: FieldRecorder, Label: "Nome do conferente"},
}

var checkpointIndex = func() map[string]int {
	m := make(map[string]int, len(checkpoints))
	for i, c := range checkpoints {
		m[c.Name] = i
	}
	return m
}()

// Return checkpoints in schema order. The slice is a copy.
func Checkpoints() []Checkpoint {
	return append([]Checkpoint(nil), checkpoints...)
}

// Return the checkpoint whose presence marks a record finalized.
func Terminal() Checkpoint { return checkpoints[len(checkpoints)-1] }

// Return metric definitions in schema order. The slice is a copy.
func Metrics() []MetricDef {
	return append([]MetricDef(nil), metrics...)
}

// Report whether name is a checkpoint of the schema.
func IsCheckpoint(name string) bool {
	_, ok := checkpointIndex[name]
	return ok
}

// Column describes one persisted field.
type Column struct {
	Name  string
	Label string
	Kind  ColumnKind
}

type ColumnKind int

const (
	IdentityColumn ColumnKind = iota
	CheckpointColumn
	MetricColumn
)

// Columns returns the persisted column layout: identity fields,
// checkpoints in schema order, then metrics.
func Columns() []Column {
	cols := make([]Column, 0, len(identity)+len(checkpoints)+len(metrics))
	for _, f := range identity {
		cols = append(cols, Column{Name: f.Name, Label: f.Label, Kind: IdentityColumn})
	}
	for _, c := range checkpoints {
		cols = append(cols, Column{Name: c.Name, Label: c.Label, Kind: CheckpointColumn})
	}
	for _, m := range metrics {
		cols = append(cols, Column{Name: m.Name, Label: m.Label, Kind: MetricColumn})
	}
	return cols
}
