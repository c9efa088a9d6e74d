package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"transfer-tracking-service/internal/domain"
	"transfer-tracking-service/internal/ports"

	"github.com/google/uuid"
)

var (
	ErrUnknownCheckpoint = errors.New("unknown checkpoint")
	ErrRecordNotFound    = errors.New("record not found")
	ErrNoTable           = errors.New("record table does not exist")
	ErrUnknownView       = errors.New("unknown view")
	ErrRecordFinalized   = errors.New("record is finalized")
)

// List views.
const (
	ViewAll        = "all"
	ViewIncomplete = "incomplete"
	ViewFinalized  = "finalized"
)

// Tracker turns operator actions into record snapshots.
//
// Every command returns the updated Record; callers decide when to redraw.
// Remote sync runs after a successful local write, before the write lock is
// released, so snapshots reach the remote in write order. Its failure is
// reported separately, never undoing the write.
type Tracker struct {
	Store    *RecordStore
	Sync     ports.RemoteSync
	Location *time.Location
	Now      func() time.Time
}

func NewTracker(store *RecordStore, sync ports.RemoteSync, loc *time.Location) *Tracker {
	return &Tracker{Store: store, Sync: sync, Location: loc, Now: time.Now}
}

// SaveResult is the outcome of a write. SyncErr is non-nil when the local
// write succeeded but the remote push did not.
type SaveResult struct {
	Record  domain.Record
	SyncErr error
}

type EditResult struct {
	Record  domain.Record
	Applied []string
	SyncErr error
}

func (t *Tracker) now() string {
	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	return domain.FormatTimestamp(now(), t.Location)
}

// RegisterCheckpoint sets the checkpoint to the current time when it is
// still empty. A checkpoint that already has a value is left untouched.
func (t *Tracker) RegisterCheckpoint(rec domain.Record, name string) (domain.Record, error) {
	if !domain.IsCheckpoint(name) {
		return rec, fmt.Errorf("register checkpoint %q: %w", name, ErrUnknownCheckpoint)
	}

	out := rec.Clone()
	if out.Checkpoint(name) != "" {
		return out, nil
	}
	out.Checkpoints[name] = t.now()
	return out, nil
}

// Save computes metrics for rec and appends it to the store.
func (t *Tracker) Save(ctx context.Context, rec domain.Record) (SaveResult, error) {
	rec = rec.Clone()
	for name := range rec.Checkpoints {
		if !domain.IsCheckpoint(name) {
			return SaveResult{}, fmt.Errorf("save record: checkpoint %q: %w", name, ErrUnknownCheckpoint)
		}
	}
	if strings.TrimSpace(rec.ID) == "" {
		rec.ID = uuid.NewString()
	}
	rec = domain.WithMetrics(rec)

	res := SaveResult{Record: rec}
	_, err := t.Store.UpdateThen(ctx,
		func(records []domain.Record) ([]domain.Record, error) {
			return append(records, rec), nil
		},
		func(records []domain.Record) {
			res.SyncErr = t.push(ctx, records, fmt.Sprintf("Add transfer %s (%s)", rec.Plate, rec.Date))
		},
	)
	if err != nil {
		return SaveResult{}, fmt.Errorf("save record: %w", err)
	}
	return res, nil
}

// Edit fills empty fields of a stored record that is still in operation.
// Values for fields that already hold data are ignored.
func (t *Tracker) Edit(ctx context.Context, id string, values map[string]string) (EditResult, error) {
	exists, err := t.Store.Exists(ctx)
	if err != nil {
		return EditResult{}, fmt.Errorf("edit record: %w", err)
	}
	if !exists {
		return EditResult{}, fmt.Errorf("edit record: %w", ErrNoTable)
	}

	var res EditResult
	_, err = t.Store.UpdateThen(ctx,
		func(records []domain.Record) ([]domain.Record, error) {
			rec, idx, ok := Find(records, id)
			if !ok {
				return nil, fmt.Errorf("edit record %q: %w", id, ErrRecordNotFound)
			}
			if domain.IsFinalized(rec) {
				return nil, fmt.Errorf("edit record %q: %w", id, ErrRecordFinalized)
			}

			updated, applied := ApplyEdit(rec, values)
			res.Record = updated
			res.Applied = applied
			if len(applied) == 0 {
				return nil, errUnchanged
			}

			out := append([]domain.Record(nil), records...)
			out[idx] = updated
			return out, nil
		},
		func(records []domain.Record) {
			msg := fmt.Sprintf("Update transfer %s: %s", res.Record.Plate, strings.Join(res.Applied, ", "))
			res.SyncErr = t.push(ctx, records, msg)
		},
	)
	if err != nil {
		return EditResult{}, err
	}
	return res, nil
}

// RegisterOnStored sets a checkpoint of a stored record to the current time.
func (t *Tracker) RegisterOnStored(ctx context.Context, id, name string) (EditResult, error) {
	if !domain.IsCheckpoint(name) {
		return EditResult{}, fmt.Errorf("register checkpoint %q: %w", name, ErrUnknownCheckpoint)
	}
	return t.Edit(ctx, id, map[string]string{name: t.now()})
}

// List returns the records of a view in insertion order.
func (t *Tracker) List(ctx context.Context, view string) ([]domain.Record, error) {
	records, err := t.Store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	switch view {
	case "", ViewAll:
		return records, nil
	case ViewIncomplete:
		return FilterIncomplete(records), nil
	case ViewFinalized:
		return FilterFinalized(records), nil
	}
	return nil, fmt.Errorf("list records: view %q: %w", view, ErrUnknownView)
}

// Editable returns the empty fields of a stored record still in operation.
func (t *Tracker) Editable(ctx context.Context, id string) ([]string, error) {
	rec, err := t.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if domain.IsFinalized(rec) {
		return nil, fmt.Errorf("editable fields %q: %w", id, ErrRecordFinalized)
	}
	return EditableFields(rec), nil
}

// Get returns one stored record.
func (t *Tracker) Get(ctx context.Context, id string) (domain.Record, error) {
	records, err := t.Store.LoadAll(ctx)
	if err != nil {
		return domain.Record{}, fmt.Errorf("get record: %w", err)
	}
	rec, _, ok := Find(records, id)
	if !ok {
		return domain.Record{}, fmt.Errorf("get record %q: %w", id, ErrRecordNotFound)
	}
	return rec, nil
}

func (t *Tracker) Summary(ctx context.Context) (Summary, error) {
	records, err := t.Store.LoadAll(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("summary: %w", err)
	}
	return Summarize(records), nil
}

func (t *Tracker) push(ctx context.Context, records []domain.Record, message string) error {
	if t.Sync == nil {
		return nil
	}
	if err := t.Sync.Push(ctx, records, message); err != nil {
		log.Printf("remote sync failed: records=%d err=%v", len(records), err)
		return fmt.Errorf("remote sync: %w", err)
	}
	return nil
}
