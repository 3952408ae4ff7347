package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/certready/backend/internal/domain/assessment"
)

// Memory is an in-memory Store used in tests and as a reference for the
// port semantics the SQLite adapter must match.
type Memory struct {
	mu          sync.RWMutex
	assessments map[string]*assessment.Definition
	results     map[string]*ResultRecord
	snapshots   map[string]string
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		assessments: make(map[string]*assessment.Definition),
		results:     make(map[string]*ResultRecord),
		snapshots:   make(map[string]string),
	}
}

func (m *Memory) SaveAssessment(_ context.Context, def *assessment.Definition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assessments[def.ID] = def
	return nil
}

func (m *Memory) GetAssessment(_ context.Context, id string) (*assessment.Definition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	def, ok := m.assessments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return def, nil
}

func (m *Memory) ListAssessments(_ context.Context) ([]*assessment.Definition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	defs := make([]*assessment.Definition, 0, len(m.assessments))
	for _, def := range m.assessments {
		defs = append(defs, def)
	}
	return defs, nil
}

func (m *Memory) DeleteAssessment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assessments[id]; !ok {
		return ErrNotFound
	}
	delete(m.assessments, id)
	return nil
}

func (m *Memory) AddQuestion(_ context.Context, assessmentID string, q assessment.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	def, ok := m.assessments[assessmentID]
	if !ok {
		return ErrNotFound
	}
	def.Questions = append(def.Questions, q)
	return nil
}

func (m *Memory) SaveResult(_ context.Context, record *ResultRecord) (SaveOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	def, ok := m.assessments[record.AssessmentID]
	if !ok {
		return SaveOutcome{}, ErrNotFound
	}
	passed := record.Percentage >= def.Threshold()

	stored := *record
	stored.ID = uuid.NewString()
	stored.Passed = passed
	m.results[stored.ID] = &stored

	return SaveOutcome{ResultID: stored.ID, Passed: passed}, nil
}

func (m *Memory) ListResults(_ context.Context, userID string) ([]*ResultRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var records []*ResultRecord
	for _, r := range m.results {
		if r.UserID == userID {
			records = append(records, r)
		}
	}
	return records, nil
}

func (m *Memory) GetSnapshot(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.snapshots[key]
	if !ok {
		return "", ErrNotFound
	}
	return data, nil
}

func (m *Memory) SetSnapshot(_ context.Context, key string, data string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[key] = data
	return nil
}

func (m *Memory) DeleteSnapshot(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, key)
	return nil
}
