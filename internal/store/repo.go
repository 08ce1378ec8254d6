package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Load when no value is stored under a key.
var ErrNotFound = errors.New("store: key not found")

// Persistence is the byte-level key/value collaborator the learner store
// reads and writes state through. All methods may fail independently.
type Persistence interface {
	// Exists reports whether a value is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// Load returns the value stored under key, or ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save replaces the value stored under key.
	Save(ctx context.Context, key string, data []byte) error
}

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// Snapshot is a point-in-time copy of the state stored under a key.
type Snapshot struct {
	ID        int
	Key       string
	Sequence  int64
	Timestamp time.Time
	Data      []byte
}

// SnapshotRepo manages state snapshots.
type SnapshotRepo interface {
	// Save stores a new snapshot.
	Save(ctx context.Context, snap *Snapshot) error

	// Latest returns the most recent snapshot for key, or nil if none exist.
	Latest(ctx context.Context, key string) (*Snapshot, error)

	// List returns up to limit snapshots for key, newest first.
	List(ctx context.Context, key string, limit int) ([]Snapshot, error)

	// Prune deletes all but the N most recent snapshots for key.
	Prune(ctx context.Context, key string, keep int) error
}

// ProgressEventData is one persisted progression event.
type ProgressEventData struct {
	Sequence  int64
	Timestamp time.Time
	LearnerID string
	Kind      string
	FactID    string
	FactSetID string
	FromStage string
	ToStage   string
	Trigger   string
	Streak    int
	FactCount int
}

// EventLog records progression events for a learner.
type EventLog interface {
	// AppendProgressEvent records a progression event.
	AppendProgressEvent(ctx context.Context, data ProgressEventData) error

	// ProgressEvents returns a learner's events in sequence order.
	ProgressEvents(ctx context.Context, learnerID string, opts QueryOpts) ([]ProgressEventData, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Sequence     int64
	Timestamp    time.Time
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// LLMRequestLog records LLM API calls.
type LLMRequestLog interface {
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
}

// EventRepo provides append access to domain events.
type EventRepo interface {
	EventLog
	LLMRequestLog
}
