package acquirer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cashflow/card-gateway/internal/port/input"
	"github.com/google/uuid"
)

// ErrSchedulerStopped is returned when scheduling after Stop
var ErrSchedulerStopped = errors.New("scheduler stopped")

// TimerScheduler fires deferred resolutions from in-process timers.
// Resolutions still waiting when the process exits are lost.
type TimerScheduler struct {
	settler input.ResolutionSettler

	mu      sync.Mutex
	timers  map[uuid.UUID]*time.Timer
	stopped bool
	running sync.WaitGroup
}

// NewTimerScheduler creates a new in-process scheduler
func NewTimerScheduler(settler input.ResolutionSettler) *TimerScheduler {
	return &TimerScheduler{
		settler: settler,
		timers:  make(map[uuid.UUID]*time.Timer),
	}
}

// Schedule arms a one-shot timer; a second call for the same transaction is ignored
func (s *TimerScheduler) Schedule(_ context.Context, bankTransactionID uuid.UUID, delay time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrSchedulerStopped
	}
	if _, ok := s.timers[bankTransactionID]; ok {
		return nil
	}

	s.timers[bankTransactionID] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.stopped {
			s.mu.Unlock()
			return
		}
		delete(s.timers, bankTransactionID)
		s.running.Add(1)
		s.mu.Unlock()

		defer s.running.Done()
		s.settler.Settle(bankTransactionID)
	})
	return nil
}

// Pending returns how many resolutions are waiting to fire
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop disarms every waiting timer, waits for resolutions already firing and
// returns how many resolutions were dropped
func (s *TimerScheduler) Stop() int {
	s.mu.Lock()
	s.stopped = true
	// a timer still in the map has not started settling; if it already fired
	// its callback sees stopped and returns
	dropped := len(s.timers)
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	s.running.Wait()
	return dropped
}
