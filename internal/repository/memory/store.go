// Package memory is the in-process storage driver. Every repository shares one Store;
// uniqueness constraints are enforced under the store mutex, so concurrent duplicate writes
// have a single winner as they do against Postgres unique indexes. Writes outside a transaction
// wait for any open transaction, so a rollback never discards them.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/absence"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/payrun"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/qrcode"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/google/uuid"
)

type dayKey struct {
	employeeID string
	date       time.Time
}

type state struct {
	employees map[string]employee.Employee

	records     map[string]attendance.Record
	recordByDay map[dayKey]string
	rules       map[string]attendance.Rule

	tokens      map[string]qrcode.Token // by employee id
	tokenByHash map[string]string       // hash -> employee id

	absences map[string]absence.Absence

	payRuns     map[string]payrun.PayRun
	bulletins   map[string]payrun.Bulletin
	bulletinIDs map[string][]string // pay run id -> bulletin ids, insertion order
	policies    map[string]payrun.Policy
}

func newState() *state {
	return &state{
		employees:   make(map[string]employee.Employee),
		records:     make(map[string]attendance.Record),
		recordByDay: make(map[dayKey]string),
		rules:       make(map[string]attendance.Rule),
		tokens:      make(map[string]qrcode.Token),
		tokenByHash: make(map[string]string),
		absences:    make(map[string]absence.Absence),
		payRuns:     make(map[string]payrun.PayRun),
		bulletins:   make(map[string]payrun.Bulletin),
		bulletinIDs: make(map[string][]string),
		policies:    make(map[string]payrun.Policy),
	}
}

// clone copies the maps; values are plain structs whose pointer fields are never mutated in place.
func (s *state) clone() *state {
	c := &state{
		employees:   maps.Clone(s.employees),
		records:     maps.Clone(s.records),
		recordByDay: maps.Clone(s.recordByDay),
		rules:       maps.Clone(s.rules),
		tokens:      maps.Clone(s.tokens),
		tokenByHash: maps.Clone(s.tokenByHash),
		absences:    maps.Clone(s.absences),
		payRuns:     maps.Clone(s.payRuns),
		bulletins:   maps.Clone(s.bulletins),
		bulletinIDs: make(map[string][]string, len(s.bulletinIDs)),
		policies:    maps.Clone(s.policies),
	}
	for k, v := range s.bulletinIDs {
		c.bulletinIDs[k] = append([]string(nil), v...)
	}
	return c
}

type Store struct {
	mu   sync.Mutex
	data *state

	// txMu serialises transactions and standalone writes; a failed transaction restores the
	// snapshot taken at begin.
	txMu sync.Mutex
}

func NewStore() *Store {
	return &Store{data: newState()}
}

type txKey struct{}

// WithinTx implements database.Transactor. Nested calls join the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	committed := false
	defer func() {
		if !committed {
			s.mu.Lock()
			s.data = snapshot
			s.mu.Unlock()
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		return err
	}
	committed = true
	return nil
}

// lockWrite locks the store for a single write and returns the unlock func. Outside a
// transaction the write is its own implicit transaction.
func (s *Store) lockWrite(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		s.mu.Lock()
		return s.mu.Unlock
	}
	s.txMu.Lock()
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		s.txMu.Unlock()
	}
}

// PutEmployee seeds the employee read model; employee CRUD is owned elsewhere.
func (s *Store) PutEmployee(e employee.Employee) {
	defer s.lockWrite(context.Background())()
	s.data.employees[e.ID] = e
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

var _ database.Transactor = (*Store)(nil)
