package tracker

import (
	"log/slog"
	"sync"
	"time"

	"github.com/rlowe/countback/internal/catchup"
	"github.com/rlowe/countback/internal/model"
	"github.com/rlowe/countback/internal/store"
)

// Manager owns the single in-memory document and serializes every mutation
// behind one mutex. The HTTP runtime may dispatch from multiple goroutines,
// so the lock stands even though each operation is a quick read-transform-
// persist sequence.
//
// Persistence is memory-first: the mutation always lands in the in-memory
// document, then Save runs. A failed save is returned to the caller (so the
// UI can warn) but the mutation is not rolled back; the next successful
// write carries it.
type Manager struct {
	mu     sync.Mutex
	doc    model.Document
	store  *store.DocumentStore
	logger *slog.Logger
	now    func() time.Time
}

// NewManager loads the stored document and wraps it. Load failures fall back
// to the empty document so the app stays usable; the error is reported so
// the caller can log it.
func NewManager(st *store.DocumentStore, logger *slog.Logger) (*Manager, error) {
	doc, err := st.Load()
	m := &Manager{
		doc:    doc,
		store:  st,
		logger: logger,
		now:    time.Now,
	}
	return m, err
}

func (m *Manager) today() model.Date {
	return model.DateOf(m.now())
}

// Today returns the current calendar day as the manager sees it.
func (m *Manager) Today() model.Date {
	return m.today()
}

// RunCatchUp applies missed-day penalties once, at load time, and persists
// only when something changed. Idempotent within the same calendar day.
func (m *Manager) RunCatchUp() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	changed := catchup.Apply(&m.doc, m.today(), m.logger)
	if !changed {
		return false, nil
	}
	return true, m.persistLocked()
}

// Document returns a snapshot safe to hand to encoders outside the lock.
func (m *Manager) Document() model.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doc.Clone()
}

// Reload re-reads the persisted document, replacing the in-memory copy.
// Used after a restore writes a new document underneath the manager.
func (m *Manager) Reload() error {
	doc, err := m.store.Load()
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.doc = doc
	m.mu.Unlock()
	return nil
}

// CreateTask appends a new challenge. The returned error is ErrInvalidInput
// for bad input (document untouched) or a *store.StorageError when the
// mutation applied but the write failed.
func (m *Manager) CreateTask(name, daysText string) (model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, err := CreateTask(&m.doc, name, daysText, m.today())
	if err != nil {
		return model.Task{}, err
	}
	return task, m.persistLocked()
}

// CheckIn advances the task one day, completing it at zero.
func (m *Manager) CheckIn(id string) (CheckInResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result, err := CheckIn(&m.doc, id, m.today())
	if err != nil {
		return CheckInResult{}, err
	}
	return result, m.persistLocked()
}

// DeleteTask removes a task unconditionally.
func (m *Manager) DeleteTask(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := DeleteTask(&m.doc, id); err != nil {
		return err
	}
	return m.persistLocked()
}

// DeleteAchievement removes the achievement at index, guarded by name.
func (m *Manager) DeleteAchievement(index int, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := DeleteAchievement(&m.doc, index, name); err != nil {
		return err
	}
	return m.persistLocked()
}

func (m *Manager) persistLocked() error {
	if err := m.store.Save(m.doc); err != nil {
		m.logger.Error("document save failed, keeping in-memory state", "error", err)
		return err
	}
	return nil
}
