package acquirer_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cashflow/card-gateway/internal/core"
	"github.com/cashflow/card-gateway/internal/core/acquirer"
	"github.com/google/uuid"
)

// sequence returns the given indexes in order, then repeats the last one
func sequence(indexes ...int) acquirer.IndexGenerator {
	var mu sync.Mutex
	i := 0
	return acquirer.IndexFunc(func(n int) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		v := indexes[i]
		if i < len(indexes)-1 {
			i++
		}
		return v % n, nil
	})
}

var errIndex = errors.New("no entropy")

func failingIndex() acquirer.IndexGenerator {
	return acquirer.IndexFunc(func(int) (int, error) { return 0, errIndex })
}

type scheduledCall struct {
	id    uuid.UUID
	delay time.Duration
}

type recordingScheduler struct {
	mu    sync.Mutex
	calls []scheduledCall
	err   error
}

func (s *recordingScheduler) Schedule(_ context.Context, id uuid.UUID, delay time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.calls = append(s.calls, scheduledCall{id: id, delay: delay})
	return nil
}

type recordingPublisher struct {
	mu      sync.Mutex
	results []core.PaymentResult
}

func (p *recordingPublisher) Publish(result core.PaymentResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, result)
}

func (p *recordingPublisher) published() []core.PaymentResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]core.PaymentResult(nil), p.results...)
}

type countingSettler struct {
	mu    sync.Mutex
	calls map[uuid.UUID]int
	fired chan uuid.UUID
}

func newCountingSettler() *countingSettler {
	return &countingSettler{calls: make(map[uuid.UUID]int), fired: make(chan uuid.UUID, 16)}
}

func (s *countingSettler) Settle(id uuid.UUID) {
	s.mu.Lock()
	s.calls[id]++
	s.mu.Unlock()
	s.fired <- id
}

func (s *countingSettler) count(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[id]
}
