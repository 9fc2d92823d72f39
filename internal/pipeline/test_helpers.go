package pipeline

import (
	"formflow/internal/session"
	"formflow/internal/store"
)

// MockEntityStore is a mock for testing.
type MockEntityStore struct {
	// Saved records all Save calls in order.
	Saved []*store.Record
	// SaveErr, when set, is returned by every Save call.
	SaveErr error
	// Records backs FindByID lookups, keyed by ID.
	Records map[string]*store.Record
}

func (m *MockEntityStore) Save(rec *store.Record) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Saved = append(m.Saved, rec)
	return nil
}

func (m *MockEntityStore) FindByID(id string) (*store.Record, error) {
	if rec, ok := m.Records[id]; ok {
		return rec, nil
	}
	return nil, store.ErrNotFound
}

// MockSessionWriter is a mock for testing.
type MockSessionWriter struct {
	// Saves counts Save calls.
	Saves int
	// SaveErr, when set, is returned by every Save call.
	SaveErr error
}

func (m *MockSessionWriter) Save(sess *session.Session) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Saves++
	return nil
}
