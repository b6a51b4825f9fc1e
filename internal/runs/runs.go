// Package runs keeps one player engine per session key for the network
// surfaces. Each run is driven under its own lock.
package runs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"phoenix/internal/logger"
	"phoenix/internal/player"
	"phoenix/internal/scenario"
	"phoenix/internal/session"
)

var ErrNoRun = errors.New("no active run")

// Loader resolves a scenario code to its scene set.
type Loader interface {
	Load(ctx context.Context, code string) (*scenario.Set, error)
}

type LoaderFunc func(ctx context.Context, code string) (*scenario.Set, error)

func (f LoaderFunc) Load(ctx context.Context, code string) (*scenario.Set, error) {
	return f(ctx, code)
}

type Run struct {
	mu     sync.Mutex
	code   string
	key    string
	engine *player.Engine
}

func (r *Run) Code() string { return r.code }

func (r *Run) Key() string { return r.key }

// Do drives the engine under the run lock and returns the resulting view.
func (r *Run) Do(fn func(e *player.Engine) (player.Step, error)) (player.Step, player.View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	step, err := fn(r.engine)
	return step, r.engine.Snapshot(), err
}

func (r *Run) View() player.View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.Snapshot()
}

type Manager struct {
	loader Loader
	kv     session.KV
	opts   []player.Option
	names  func(code string) string
	logger *zap.Logger
	group  singleflight.Group

	mu   sync.Mutex
	runs map[string]*Run
}

type Option func(*Manager)

func WithLogger(log *zap.Logger) Option {
	return func(m *Manager) { m.logger = log }
}

// WithPlayerOptions are applied to every engine the manager creates.
func WithPlayerOptions(opts ...player.Option) Option {
	return func(m *Manager) { m.opts = append(m.opts, opts...) }
}

// WithSetNames names each scenario in outcome messages. An empty name keeps
// the engine default.
func WithSetNames(names func(code string) string) Option {
	return func(m *Manager) { m.names = names }
}

func NewManager(loader Loader, kv session.KV, opts ...Option) *Manager {
	m := &Manager{
		loader: loader,
		kv:     kv,
		runs:   make(map[string]*Run),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logger.OrNop(m.logger).Named("runs")
	return m
}

// Start begins a fresh run of code for key, replacing any run the key had.
// Lifetime progress is restored from the session store.
func (m *Manager) Start(ctx context.Context, code, key string) (*Run, error) {
	key = normalizeKey(key)
	set, err := m.load(ctx, code)
	if err != nil {
		return nil, err
	}

	handle := session.New(m.kv, session.WithKey(key), session.WithLogger(m.logger))
	opts := append([]player.Option{player.WithLogger(m.logger)}, m.opts...)
	if m.names != nil {
		if name := m.names(code); name != "" {
			opts = append(opts, player.WithSetName(name))
		}
	}
	engine, err := player.New(ctx, set, handle, opts...)
	if err != nil {
		return nil, fmt.Errorf("starting run of %s: %w", code, err)
	}

	run := &Run{code: code, key: key, engine: engine}
	m.mu.Lock()
	m.runs[key] = run
	m.mu.Unlock()

	m.logger.Debug("run started", zap.String("code", code), zap.String("session", key))
	return run, nil
}

func (m *Manager) Get(key string) (*Run, error) {
	key = normalizeKey(key)
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[key]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", key, ErrNoRun)
	}
	return run, nil
}

// End forgets the run of key. Persisted progress is left alone.
func (m *Manager) End(key string) bool {
	key = normalizeKey(key)
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.runs[key]
	delete(m.runs, key)
	return ok
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.runs)
}

// Session returns the persisted progress handle for key.
func (m *Manager) Session(key string) *session.Handle {
	return session.New(m.kv, session.WithKey(normalizeKey(key)), session.WithLogger(m.logger))
}

// load collapses concurrent loads of the same scenario into one.
func (m *Manager) load(ctx context.Context, code string) (*scenario.Set, error) {
	value, err, _ := m.group.Do(code, func() (any, error) {
		return m.loader.Load(ctx, code)
	})
	if err != nil {
		return nil, err
	}
	return value.(*scenario.Set), nil
}

func normalizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return session.DefaultKey
	}
	return key
}
