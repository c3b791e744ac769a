package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	employeestore "github.com/dalemusser/cwcconnect/internal/app/store/employees"
	"github.com/dalemusser/cwcconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInjected is returned by MemStore when FailWith is not set explicitly.
var ErrInjected = errors.New("injected store failure")

// MemStore is an in-memory stand-in for the employee store. Records keep
// insertion order, which plays the role of _id order.
type MemStore struct {
	mu      sync.Mutex
	records []models.Employee
	byKey   map[string]int

	// Fail makes every operation return FailWith (or ErrInjected).
	Fail     bool
	FailWith error

	// Calls counts read operations so tests can assert nothing was queried.
	Calls int
}

// NewMemStore returns a MemStore seeded with recs. Each record gets an ID.
func NewMemStore(recs ...models.Employee) *MemStore {
	m := &MemStore{byKey: map[string]int{}}
	for _, r := range recs {
		if r.ID.IsZero() {
			r.ID = primitive.NewObjectID()
		}
		if r.Mobile != "" {
			m.byKey[r.Mobile] = len(m.records)
		}
		m.records = append(m.records, r)
	}
	return m
}

func (m *MemStore) err() error {
	if m.FailWith != nil {
		return m.FailWith
	}
	return ErrInjected
}

// Upsert implements the sync writer.
func (m *MemStore) Upsert(_ context.Context, e models.Employee) (employeestore.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return employeestore.OutcomeUnchanged, m.err()
	}
	key := strings.TrimSpace(e.Mobile)
	if key == "" {
		return employeestore.OutcomeUnchanged, employeestore.ErrMissingMobile
	}
	e.Mobile = key
	e.UpdatedAt = time.Now().UTC()
	if i, ok := m.byKey[key]; ok {
		e.ID = m.records[i].ID
		e.CreatedAt = m.records[i].CreatedAt
		m.records[i] = e
		return employeestore.OutcomeModified, nil
	}
	e.ID = primitive.NewObjectID()
	e.CreatedAt = e.UpdatedAt
	m.byKey[key] = len(m.records)
	m.records = append(m.records, e)
	return employeestore.OutcomeInserted, nil
}

// ListEligible implements the directory lister.
func (m *MemStore) ListEligible(_ context.Context) ([]models.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Fail {
		return nil, m.err()
	}
	var out []models.Employee
	for _, r := range m.records {
		if r.DirectoryEligible() {
			out = append(out, redact(r))
		}
	}
	return out, nil
}

// FindEligible implements the matcher finder.
func (m *MemStore) FindEligible(_ context.Context, matches ...employeestore.Match) ([]models.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Fail {
		return nil, m.err()
	}
	var out []models.Employee
	for _, r := range m.records {
		if !r.DirectoryEligible() {
			continue
		}
		for _, mt := range matches {
			if mt.Test(r) {
				out = append(out, redact(r))
				break
			}
		}
	}
	return out, nil
}

// Count returns the number of stored records.
func (m *MemStore) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return 0, m.err()
	}
	return int64(len(m.records)), nil
}

// SourceStats mirrors the store aggregate.
func (m *MemStore) SourceStats(_ context.Context, src models.DataSource) (employeestore.SourceStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return employeestore.SourceStat{}, m.err()
	}
	var st employeestore.SourceStat
	for _, r := range m.records {
		if r.DataSource != src {
			continue
		}
		st.Count++
		if st.LastUpdate == nil || r.LastUpdated.After(*st.LastUpdate) {
			t := r.LastUpdated
			st.LastUpdate = &t
		}
	}
	return st, nil
}

// All returns a copy of every stored record, private fields included.
func (m *MemStore) All() []models.Employee {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Employee(nil), m.records...)
}

func redact(e models.Employee) models.Employee {
	e.Mobile = ""
	e.Department = ""
	return e
}
