package acquirer_test

import (
	"context"
	"testing"
	"time"

	"github.com/cashflow/card-gateway/internal/core/acquirer"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerSchedulerFiresOnce(t *testing.T) {
	settler := newCountingSettler()
	s := acquirer.NewTimerScheduler(settler)
	id := uuid.New()

	require.NoError(t, s.Schedule(context.Background(), id, 20*time.Millisecond))
	require.NoError(t, s.Schedule(context.Background(), id, 20*time.Millisecond))
	assert.Equal(t, 1, s.Pending())

	select {
	case fired := <-settler.fired:
		assert.Equal(t, id, fired)
	case <-time.After(2 * time.Second):
		t.Fatal("resolution never fired")
	}

	// leave room for a duplicate to show up
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, settler.count(id))
	assert.Equal(t, 0, s.Pending())
}

func TestTimerSchedulerWaitsForDelay(t *testing.T) {
	settler := newCountingSettler()
	s := acquirer.NewTimerScheduler(settler)
	id := uuid.New()

	start := time.Now()
	require.NoError(t, s.Schedule(context.Background(), id, 100*time.Millisecond))

	select {
	case <-settler.fired:
		assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
	case <-time.After(2 * time.Second):
		t.Fatal("resolution never fired")
	}
}

func TestTimerSchedulerStop(t *testing.T) {
	settler := newCountingSettler()
	s := acquirer.NewTimerScheduler(settler)

	require.NoError(t, s.Schedule(context.Background(), uuid.New(), time.Hour))
	require.NoError(t, s.Schedule(context.Background(), uuid.New(), time.Hour))

	assert.Equal(t, 2, s.Stop())
	assert.Equal(t, 0, s.Pending())

	err := s.Schedule(context.Background(), uuid.New(), time.Millisecond)
	assert.ErrorIs(t, err, acquirer.ErrSchedulerStopped)
}

type blockingSettler struct {
	started chan struct{}
	release chan struct{}
}

func (s *blockingSettler) Settle(uuid.UUID) {
	close(s.started)
	<-s.release
}

func TestTimerSchedulerStopWaitsForRunningResolution(t *testing.T) {
	settler := &blockingSettler{started: make(chan struct{}), release: make(chan struct{})}
	s := acquirer.NewTimerScheduler(settler)

	require.NoError(t, s.Schedule(context.Background(), uuid.New(), time.Millisecond))
	select {
	case <-settler.started:
	case <-time.After(2 * time.Second):
		t.Fatal("resolution never fired")
	}

	stopped := make(chan int, 1)
	go func() { stopped <- s.Stop() }()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a resolution was settling")
	case <-time.After(50 * time.Millisecond):
	}

	close(settler.release)
	select {
	case dropped := <-stopped:
		assert.Equal(t, 0, dropped)
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the resolution finished")
	}
}
