package whatif

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arunkumarkundra/choicease/internal/decision"
	"github.com/arunkumarkundra/choicease/internal/scoring"
)

const (
	DefaultIdleTimeout  = 30 * time.Minute
	DefaultReapInterval = time.Minute
)

// ManagerConfig configures a Manager. Zero durations use the defaults.
type ManagerConfig struct {
	Session      Options
	IdleTimeout  time.Duration
	ReapInterval time.Duration
}

// Manager owns the live what-if sessions and closes idle ones.
type Manager struct {
	cfg    ManagerConfig
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewManager(cfg ManagerConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.ReapInterval <= 0 {
		cfg.ReapInterval = DefaultReapInterval
	}
	return &Manager{
		cfg:      cfg,
		logger:   logger,
		sessions: make(map[string]*Session),
		stopCh:   make(chan struct{}),
	}
}

// Create opens a session over a deep copy of m. committed may be nil.
func (mg *Manager) Create(m *decision.Model, committed scoring.Weights) (*Session, error) {
	id := uuid.New().String()
	s, err := NewSession(id, m, committed, mg.cfg.Session)
	if err != nil {
		return nil, err
	}
	mg.mu.Lock()
	mg.sessions[id] = s
	mg.mu.Unlock()

	mg.logger.Info("what-if session opened", "session_id", id, "title", m.Title)
	return s, nil
}

func (mg *Manager) Get(id string) (*Session, error) {
	mg.mu.RLock()
	defer mg.mu.RUnlock()
	s, ok := mg.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (mg *Manager) Delete(id string) error {
	mg.mu.Lock()
	s, ok := mg.sessions[id]
	delete(mg.sessions, id)
	mg.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	mg.logger.Info("what-if session closed", "session_id", id)
	return nil
}

// Len reports the number of open sessions.
func (mg *Manager) Len() int {
	mg.mu.RLock()
	defer mg.mu.RUnlock()
	return len(mg.sessions)
}

// Start runs the idle-session reaper until ctx is done or Stop is called.
func (mg *Manager) Start(ctx context.Context) {
	mg.wg.Add(1)
	go mg.reapLoop(ctx)
}

// Stop halts the reaper and closes every session.
func (mg *Manager) Stop() {
	mg.stopOnce.Do(func() { close(mg.stopCh) })
	mg.wg.Wait()

	mg.mu.Lock()
	defer mg.mu.Unlock()
	for id, s := range mg.sessions {
		s.Close()
		delete(mg.sessions, id)
	}
}

func (mg *Manager) reapLoop(ctx context.Context) {
	defer mg.wg.Done()
	ticker := time.NewTicker(mg.cfg.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-mg.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			mg.reap(time.Now())
		}
	}
}

// reap closes sessions idle for longer than the idle timeout and returns
// how many were closed.
func (mg *Manager) reap(now time.Time) int {
	mg.mu.Lock()
	var expired []*Session
	for id, s := range mg.sessions {
		if now.Sub(s.LastActive()) <= mg.cfg.IdleTimeout {
			continue
		}
		expired = append(expired, s)
		delete(mg.sessions, id)
	}
	mg.mu.Unlock()

	for _, s := range expired {
		s.Close()
		mg.logger.Info("what-if session expired", "session_id", s.ID(), "idle_timeout", mg.cfg.IdleTimeout)
	}
	return len(expired)
}
