package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Pruner removes expired entries and reports how many it dropped
type Pruner interface {
	Prune() int
}

// SessionSweeper periodically evicts expired sessions so the cache does not
// grow with every identity that ever signed in
type SessionSweeper struct {
	interval time.Duration
	sessions Pruner
	logger   *zap.Logger

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	done      chan struct{}
	swept     int
}

// NewSessionSweeper creates a sweeper that prunes every interval
func NewSessionSweeper(interval time.Duration, sessions Pruner, logger *zap.Logger) *SessionSweeper {
	return &SessionSweeper{
		interval: interval,
		sessions: sessions,
		logger:   logger,
	}
}

// Start begins the sweep loop
func (s *SessionSweeper) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %s", s.interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("session sweeper already running")
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.isRunning = true

	go s.loop(ctx, s.done)
	return nil
}

// Stop ends the loop and waits for it to exit
func (s *SessionSweeper) Stop() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.cancel()
	done := s.done
	s.mu.Unlock()

	<-done
	s.logger.Info("SessionSweeper stopped", zap.Int("sessions_swept", s.Swept()))
	return nil
}

// Name returns the worker name for identification
func (s *SessionSweeper) Name() string {
	return "SessionSweeper"
}

// Swept returns the total number of sessions evicted so far
func (s *SessionSweeper) Swept() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.swept
}

func (s *SessionSweeper) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *SessionSweeper) sweep() {
	removed := s.sessions.Prune()
	if removed == 0 {
		return
	}

	s.mu.Lock()
	s.swept += removed
	s.mu.Unlock()

	s.logger.Debug("Expired sessions evicted", zap.Int("count", removed))
}
