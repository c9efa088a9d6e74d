package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"transfer-tracking-service/internal/domain"
	"transfer-tracking-service/internal/platform/obs"
	"transfer-tracking-service/internal/ports"

	"github.com/google/uuid"
)

// errUnchanged lets an Update callback skip the rewrite.
var errUnchanged = errors.New("no change")

// legacyIDNamespace derives stable IDs for rows stored before records carried one.
var legacyIDNamespace = uuid.MustParse("6f1c2a4e-93b5-4c1e-9a51-0c5d7e3f2b10")

// RecordStore is the ordered collection of shipment records on top of a
// persistence medium.
//
// Writes are whole-table rewrites. Each write runs as a load -> mutate ->
// rewrite cycle while holding the write lock, so concurrent writers are
// serialized instead of silently overwriting each other.
type RecordStore struct {
	Repo ports.RecordRepository
	Lock ports.WriteLock
}

func NewRecordStore(repo ports.RecordRepository, lock ports.WriteLock) *RecordStore {
	return &RecordStore{Repo: repo, Lock: lock}
}

// Report whether the underlying table exists.
func (s *RecordStore) Exists(ctx context.Context) (bool, error) {
	if s.Repo == nil {
		return false, errors.New("record store: repository is nil")
	}
	ok, err := s.Repo.Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("record store: exists: %w", err)
	}
	return ok, nil
}

// LoadAll returns every record in insertion order with metrics recomputed.
// Rows without an ID get one derived from their position and identity.
func (s *RecordStore) LoadAll(ctx context.Context) (_ []domain.Record, err error) {
	defer obs.Time(ctx, "store.LoadAll")(&err)

	if s.Repo == nil {
		return nil, errors.New("record store: repository is nil")
	}

	records, err := s.Repo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("record store: load all: %w", err)
	}
	return normalize(records), nil
}

// Append adds rec at the end of the table. Duplicates are not rejected.
func (s *RecordStore) Append(ctx context.Context, rec domain.Record) ([]domain.Record, error) {
	return s.Update(ctx, func(records []domain.Record) ([]domain.Record, error) {
		return append(records, rec), nil
	})
}

// RewriteAll replaces the persisted table with records.
func (s *RecordStore) RewriteAll(ctx context.Context, records []domain.Record) (err error) {
	defer obs.Time(ctx, "store.RewriteAll")(&err)

	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	return s.rewrite(ctx, records)
}

// Update runs one read-modify-write cycle under the write lock and returns
// the table as persisted.
func (s *RecordStore) Update(
	ctx context.Context,
	fn func([]domain.Record) ([]domain.Record, error),
) ([]domain.Record, error) {
	return s.UpdateThen(ctx, fn, nil)
}

// UpdateThen is Update with a hook that runs after a successful rewrite while
// the write lock is still held. It is not called when fn reports no change.
func (s *RecordStore) UpdateThen(
	ctx context.Context,
	fn func([]domain.Record) ([]domain.Record, error),
	then func([]domain.Record),
) (_ []domain.Record, err error) {
	defer obs.Time(ctx, "store.Update")(&err)

	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	current, err := s.Repo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("record store: update: load: %w", err)
	}
	current = normalize(current)

	next, err := fn(current)
	if errors.Is(err, errUnchanged) {
		return current, nil
	}
	if err != nil {
		return nil, err
	}

	next = normalize(next)
	if err := s.rewrite(ctx, next); err != nil {
		return nil, err
	}
	if then != nil {
		then(next)
	}
	return next, nil
}

func (s *RecordStore) acquire(ctx context.Context) (func(), error) {
	if s.Repo == nil {
		return nil, errors.New("record store: repository is nil")
	}
	if s.Lock == nil {
		return nil, errors.New("record store: write lock is nil")
	}
	release, err := s.Lock.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("record store: acquire write lock: %w", err)
	}
	return release, nil
}

func (s *RecordStore) rewrite(ctx context.Context, records []domain.Record) error {
	out := make([]domain.Record, len(records))
	for i, r := range records {
		out[i] = domain.WithMetrics(r)
	}
	if err := s.Repo.RewriteAll(ctx, out); err != nil {
		return fmt.Errorf("record store: rewrite all: %w", err)
	}
	return nil
}

func normalize(records []domain.Record) []domain.Record {
	out := make([]domain.Record, len(records))
	for i, r := range records {
		r = domain.WithMetrics(r)
		if strings.TrimSpace(r.ID) == "" {
			r.ID = legacyID(i, r)
		}
		out[i] = r
	}
	return out
}

func legacyID(pos int, r domain.Record) string {
	key := strings.Join([]string{strconv.Itoa(pos), r.Date, r.Plate, r.Recorder}, "|")
	return uuid.NewSHA1(legacyIDNamespace, []byte(key)).String()
}

// Records whose terminal checkpoint is still empty.
func FilterIncomplete(records []domain.Record) []domain.Record {
	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if !domain.IsFinalized(r) {
			out = append(out, r)
		}
	}
	return out
}

// Records whose terminal checkpoint is set.
func FilterFinalized(records []domain.Record) []domain.Record {
	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if domain.IsFinalized(r) {
			out = append(out, r)
		}
	}
	return out
}

// Return the record with the given ID.
func Find(records []domain.Record, id string) (domain.Record, int, bool) {
	for i, r := range records {
		if r.ID == id {
			return r, i, true
		}
	}
	return domain.Record{}, -1, false
}

// EditableFields lists identity and checkpoint fields that are still empty,
// in column order. Filled fields are never offered.
func EditableFields(r domain.Record) []string {
	out := make([]string, 0)
	for _, c := range domain.Columns() {
		if c.Kind == domain.MetricColumn || c.Name == domain.FieldID {
			continue
		}
		if strings.TrimSpace(r.Field(c.Name)) == "" {
			out = append(out, c.Name)
		}
	}
	return out
}

// ApplyEdit fills empty fields of r from values and returns the updated copy
// with the names of the fields it set.
//
// Values aimed at fields that already hold data, metric fields, unknown
// fields or blank values are dropped. This is the only place the fill-only
// rule for stored records is enforced.
func ApplyEdit(r domain.Record, values map[string]string) (domain.Record, []string) {
	out := r.Clone()
	applied := make([]string, 0, len(values))
	for _, name := range EditableFields(r) {
		v, ok := values[name]
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out.SetField(name, v)
		applied = append(applied, name)
	}
	if len(applied) > 0 {
		out = domain.WithMetrics(out)
	}
	return out, applied
}

// Summary counts records per completion view and per status.
type Summary struct {
	Total       int
	InOperation int
	Finalized   int
	ByStatus    map[string]int
}

func Summarize(records []domain.Record) Summary {
	s := Summary{Total: len(records), ByStatus: make(map[string]int)}
	for _, r := range records {
		if domain.IsFinalized(r) {
			s.Finalized++
		} else {
			s.InOperation++
		}
		s.ByStatus[domain.DeriveStatus(r)]++
	}
	return s
}
