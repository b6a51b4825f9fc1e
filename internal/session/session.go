// Package session persists lifetime progression under a single key in a
// key-value backend.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"phoenix/internal/logger"
	"phoenix/internal/progress"
)

const DefaultKey = "phoenix_training_state"

var ErrNotFound = errors.New("session not found")

// KV is the durable store behind a Handle. Get returns ErrNotFound for a
// missing key.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Snapshot is the persisted form. Field names match the browser storage
// format so existing saves load unchanged.
type Snapshot struct {
	EXP          int `json:"EXP"`
	Level        int `json:"level"`
	Streak       int `json:"streak"`
	TotalCorrect int `json:"totalCorrect"`
}

func FromProgress(p progress.Progress) Snapshot {
	return Snapshot{EXP: p.EXP, Level: p.Level, TotalCorrect: p.TotalCorrect}
}

func (s Snapshot) Progress() progress.Progress {
	return progress.Progress{EXP: s.EXP, Level: s.Level, TotalCorrect: s.TotalCorrect}.Normalize()
}

type Handle struct {
	kv     KV
	key    string
	logger *zap.Logger
}

type Option func(*Handle)

func WithKey(key string) Option {
	return func(h *Handle) {
		if key != "" {
			h.key = key
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(h *Handle) {
		h.logger = logger.OrNop(log).Named("session")
	}
}

func New(kv KV, opts ...Option) *Handle {
	h := &Handle{kv: kv, key: DefaultKey, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handle) Key() string {
	return h.key
}

// Load restores the snapshot. A missing, unreadable or malformed snapshot
// yields a zero snapshot and false; the failure is logged, never returned.
func (h *Handle) Load(ctx context.Context) (Snapshot, bool) {
	if h == nil || h.kv == nil {
		return Snapshot{}, false
	}
	data, err := h.kv.Get(ctx, h.key)
	if errors.Is(err, ErrNotFound) {
		return Snapshot{}, false
	}
	if err != nil {
		h.logger.Warn("reading session snapshot", zap.String("key", h.key), zap.Error(err))
		return Snapshot{}, false
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		h.logger.Warn("discarding malformed session snapshot", zap.String("key", h.key), zap.Error(err))
		return Snapshot{}, false
	}
	return snap, true
}

func (h *Handle) Save(ctx context.Context, snap Snapshot) error {
	if h == nil || h.kv == nil {
		return nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding session snapshot: %w", err)
	}
	if err := h.kv.Put(ctx, h.key, data); err != nil {
		return fmt.Errorf("saving session %s: %w", h.key, err)
	}
	return nil
}

func (h *Handle) Reset(ctx context.Context) error {
	if h == nil || h.kv == nil {
		return nil
	}
	if err := h.kv.Delete(ctx, h.key); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("resetting session %s: %w", h.key, err)
	}
	return nil
}

// MemoryKV is an in-process KV, safe for concurrent use.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ KV = (*MemoryKV)(nil)

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (m *MemoryKV) Put(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	m.data[key] = stored
	return nil
}

func (m *MemoryKV) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
