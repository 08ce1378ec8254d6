package store

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Persistence, EventLog and LLMRequestLog. Failures can be
// injected per operation for tests.
type Memory struct {
	mu     sync.Mutex
	data   map[string][]byte
	events []ProgressEventData
	llm    []LLMRequestEventData
	seq    int64

	// FailExists, FailLoad and FailSave are returned by the matching
	// operation when non-nil.
	FailExists error
	FailLoad   error
	FailSave   error

	// Saves counts successful Save calls.
	Saves int
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Exists implements Persistence.
func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailExists != nil {
		return false, m.FailExists
	}
	_, ok := m.data[key]
	return ok, nil
}

// Load implements Persistence.
func (m *Memory) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailLoad != nil {
		return nil, m.FailLoad
	}
	b, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

// Save implements Persistence.
func (m *Memory) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSave != nil {
		return m.FailSave
	}
	m.data[key] = append([]byte(nil), data...)
	m.Saves++
	return nil
}

// Put stores raw bytes under key, bypassing failure injection.
func (m *Memory) Put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), data...)
}

// Get returns the raw bytes stored under key.
func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	return b, ok
}

// SaveCount returns the number of successful saves.
func (m *Memory) SaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Saves
}

// SetFailSave swaps the injected save failure under the lock.
func (m *Memory) SetFailSave(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailSave = err
}

// AppendProgressEvent implements EventLog.
func (m *Memory) AppendProgressEvent(_ context.Context, data ProgressEventData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	data.Sequence = m.seq
	if data.Timestamp.IsZero() {
		data.Timestamp = time.Now().UTC()
	}
	m.events = append(m.events, data)
	return nil
}

// ProgressEvents implements EventLog.
func (m *Memory) ProgressEvents(_ context.Context, learnerID string, opts QueryOpts) ([]ProgressEventData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ProgressEventData
	for _, e := range m.events {
		if e.LearnerID != learnerID {
			continue
		}
		if opts.After > 0 && e.Sequence <= opts.After {
			continue
		}
		if opts.Before > 0 && e.Sequence >= opts.Before {
			continue
		}
		if !opts.From.IsZero() && e.Timestamp.Before(opts.From) {
			continue
		}
		if !opts.To.IsZero() && e.Timestamp.After(opts.To) {
			continue
		}
		out = append(out, e)
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out, nil
}

// AppendLLMRequest implements LLMRequestLog.
func (m *Memory) AppendLLMRequest(_ context.Context, data LLMRequestEventData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.llm = append(m.llm, data)
	return nil
}

// LLMRequests returns the recorded LLM calls.
func (m *Memory) LLMRequests() []LLMRequestEventData {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]LLMRequestEventData, len(m.llm))
	copy(out, m.llm)
	return out
}
