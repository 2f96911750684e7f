package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dondie52/agriconnect/internal/domain"
)

type fakeSyncer struct {
	mu    sync.Mutex
	runs  int
	stats domain.SyncStats
	done  chan struct{}
}

func (s *fakeSyncer) SyncMarketPrices(context.Context) domain.SyncStats {
	s.mu.Lock()
	s.runs++
	s.mu.Unlock()
	if s.done != nil {
		select {
		case s.done <- struct{}{}:
		default:
		}
	}
	return s.stats
}

func (s *fakeSyncer) runCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

func TestNextOnGrid(t *testing.T) {
	gaborone, err := time.LoadLocation("Africa/Gaborone")
	require.NoError(t, err)

	tests := []struct {
		name     string
		now      time.Time
		interval int
		want     time.Time
	}{
		{
			name:     "mid slot rounds up",
			now:      time.Date(2025, 6, 10, 14, 20, 0, 0, gaborone),
			interval: 3,
			want:     time.Date(2025, 6, 10, 15, 0, 0, 0, gaborone),
		},
		{
			name:     "exactly on boundary moves to next slot",
			now:      time.Date(2025, 6, 10, 15, 0, 0, 0, gaborone),
			interval: 3,
			want:     time.Date(2025, 6, 10, 18, 0, 0, 0, gaborone),
		},
		{
			name:     "last slot rolls to midnight",
			now:      time.Date(2025, 6, 10, 22, 30, 0, 0, gaborone),
			interval: 3,
			want:     time.Date(2025, 6, 11, 0, 0, 0, 0, gaborone),
		},
		{
			name:     "hourly grid",
			now:      time.Date(2025, 6, 10, 7, 59, 59, 0, time.UTC),
			interval: 1,
			want:     time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC),
		},
		{
			name:     "six hour grid",
			now:      time.Date(2025, 6, 10, 5, 0, 0, 0, time.UTC),
			interval: 6,
			want:     time.Date(2025, 6, 10, 6, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nextOnGrid(tt.now, tt.interval)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}

func TestSchedulerBootRun(t *testing.T) {
	syncer := &fakeSyncer{done: make(chan struct{}, 1)}
	s := NewScheduler(syncer, SchedulerConfig{
		IntervalHours: 3,
		Location:      time.UTC,
		BootDelay:     10 * time.Millisecond,
	}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Start(ctx)
	defer s.Stop()

	select {
	case <-syncer.done:
	case <-time.After(2 * time.Second):
		t.Fatal("boot run did not fire")
	}
	assert.Equal(t, 1, syncer.runCount())
}

func TestSchedulerStatusLifecycle(t *testing.T) {
	syncer := &fakeSyncer{}
	s := NewScheduler(syncer, SchedulerConfig{IntervalHours: 3, Location: time.UTC}, testLogger())

	assert.False(t, s.Status().Running)
	assert.Nil(t, s.Status().NextRun)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	status := s.Status()
	assert.True(t, status.Running)
	require.NotNil(t, status.NextRun)
	assert.True(t, status.NextRun.After(time.Now().Add(-time.Second)))
	assert.Zero(t, status.NextRun.Minute())
	assert.Zero(t, status.NextRun.Second())
	assert.Zero(t, status.NextRun.Hour()%3)

	s.Stop()
	assert.False(t, s.Status().Running)
	assert.Nil(t, s.Status().NextRun)
}

func TestSchedulerStartIdempotent(t *testing.T) {
	syncer := &fakeSyncer{}
	s := NewScheduler(syncer, SchedulerConfig{IntervalHours: 3, Location: time.UTC}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Start(ctx)
	s.Start(ctx)
	defer s.Stop()

	assert.True(t, s.Status().Running)
}

func TestSchedulerStopIdempotent(t *testing.T) {
	syncer := &fakeSyncer{}
	s := NewScheduler(syncer, SchedulerConfig{IntervalHours: 3, Location: time.UTC}, testLogger())

	s.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	s.Stop()
	s.Stop()

	assert.False(t, s.Status().Running)
}

func TestSchedulerTriggerSyncRunsImmediately(t *testing.T) {
	syncer := &fakeSyncer{stats: domain.SyncStats{PricesUpdated: 7}}
	s := NewScheduler(syncer, SchedulerConfig{IntervalHours: 3, Location: time.UTC}, testLogger())

	stats := s.TriggerSync(context.Background())

	assert.Equal(t, 7, stats.PricesUpdated)
	assert.Equal(t, 1, syncer.runCount())
}

func TestSchedulerDefaults(t *testing.T) {
	s := NewScheduler(&fakeSyncer{}, SchedulerConfig{}, testLogger())

	assert.Equal(t, 3, s.cfg.IntervalHours)
	assert.Equal(t, time.UTC, s.cfg.Location)
}
