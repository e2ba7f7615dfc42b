package poll

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/foxzi/disparo/internal/notify"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type manualTicker struct {
	ch chan time.Time
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time)}
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }
func (t *manualTicker) Stop()               {}

// tick blocks until the schedule loop receives the tick
func (t *manualTicker) tick() {
	t.ch <- time.Now()
}

func (t *manualTicker) factory(time.Duration) ticker { return t }

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for value")
	}
	var zero T
	return zero
}

func TestNewRejectsShortInterval(t *testing.T) {
	fetch := func(ctx context.Context, key string) (int, error) { return 0, nil }

	_, err := New("fast", 500*time.Millisecond, fetch, Options[int]{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIntervalTooShort))

	s, err := New("ok", time.Second, fetch, Options[int]{})
	require.NoError(t, err)
	assert.Equal(t, time.Second, s.Interval())

	_, err = New[int]("nil", time.Second, nil, Options[int]{})
	require.Error(t, err)
}

func TestAttachFetchesImmediatelyThenOnEveryTick(t *testing.T) {
	calls := make(chan string, 8)
	updates := make(chan Snapshot[int], 8)
	var n atomic.Int32

	s, err := New("campaigns", CampaignListInterval, func(ctx context.Context, key string) (int, error) {
		calls <- key
		return int(n.Add(1)), nil
	}, Options[int]{OnUpdate: func(sn Snapshot[int]) { updates <- sn }})
	require.NoError(t, err)
	tk := newManualTicker()
	s.newTicker = tk.factory

	h := s.Attach("all")
	assert.Equal(t, "all", receive(t, calls))
	first := receive(t, updates)
	assert.Equal(t, 1, first.Value)
	assert.Equal(t, h.Generation(), first.Generation)

	tk.tick()
	assert.Equal(t, "all", receive(t, calls))
	assert.Equal(t, 2, receive(t, updates).Value)

	snap, ok := s.Snapshot()
	require.True(t, ok)
	assert.Equal(t, 2, snap.Value)

	s.Detach(h)
	h.Wait()
}

func TestIdentitySwitchDiscardsLateResponse(t *testing.T) {
	release := make(chan struct{})
	started := make(chan string, 4)
	updates := make(chan Snapshot[string], 4)

	s, err := New("campaign_detail", CampaignDetailInterval, func(ctx context.Context, key string) (string, error) {
		started <- key
		if key == "A" {
			// the transport does not honour cancellation
			<-release
		}
		return "state of " + key, nil
	}, Options[string]{OnUpdate: func(sn Snapshot[string]) { updates <- sn }})
	require.NoError(t, err)
	s.newTicker = newManualTicker().factory

	hA := s.Attach("A")
	assert.Equal(t, "A", receive(t, started))

	hB := s.Attach("B")
	assert.Equal(t, "B", receive(t, started))
	assert.Equal(t, "state of B", receive(t, updates).Value)

	close(release)
	hA.Wait()

	snap, ok := s.Snapshot()
	require.True(t, ok)
	assert.Equal(t, "B", snap.Key)
	assert.Equal(t, "state of B", snap.Value)

	select {
	case u := <-updates:
		t.Fatalf("late response for %s must be discarded", u.Key)
	default:
	}

	assert.False(t, hA.Refresh(), "a replaced schedule cannot refresh")

	s.Detach(hB)
	hB.Wait()
}

func TestLastResolvedResponseWins(t *testing.T) {
	gates := []chan struct{}{make(chan struct{}), make(chan struct{})}
	started := make(chan int, 2)
	updates := make(chan Snapshot[int], 2)
	var n atomic.Int32

	s, err := New("campaign_detail", CampaignDetailInterval, func(ctx context.Context, key string) (int, error) {
		i := int(n.Add(1)) - 1
		started <- i
		<-gates[i]
		return i + 1, nil
	}, Options[int]{OnUpdate: func(sn Snapshot[int]) { updates <- sn }})
	require.NoError(t, err)
	s.newTicker = newManualTicker().factory

	h := s.Attach("7")
	assert.Equal(t, 0, receive(t, started))
	require.True(t, h.Refresh())
	assert.Equal(t, 1, receive(t, started))

	close(gates[1])
	assert.Equal(t, 2, receive(t, updates).Value)
	close(gates[0])
	assert.Equal(t, 1, receive(t, updates).Value)

	snap, ok := s.Snapshot()
	require.True(t, ok)
	assert.Equal(t, 1, snap.Value, "the response that resolved last is displayed")

	s.Detach(h)
	h.Wait()
}

func TestFailureNotifiesOnceAndScheduleContinues(t *testing.T) {
	feed := notify.NewFeed(10)
	errs := make(chan error, 4)
	updates := make(chan Snapshot[int], 4)
	var n atomic.Int32

	s, err := New("dashboard", DashboardInterval, func(ctx context.Context, key string) (int, error) {
		if n.Add(1) == 1 {
			return 0, errors.New("connection refused")
		}
		return 42, nil
	}, Options[int]{
		Notifier:     feed,
		ErrorMessage: "Falha ao carregar o painel",
		OnUpdate:     func(sn Snapshot[int]) { updates <- sn },
		OnError:      func(key string, err error) { errs <- err },
	})
	require.NoError(t, err)
	tk := newManualTicker()
	s.newTicker = tk.factory

	h := s.Attach("today")
	assert.EqualError(t, receive(t, errs), "connection refused")
	_, ok := s.Snapshot()
	assert.False(t, ok)

	tk.tick()
	assert.Equal(t, 42, receive(t, updates).Value)

	recent := feed.Recent()
	require.Len(t, recent, 1)
	assert.Equal(t, notify.LevelError, recent[0].Level)
	assert.Equal(t, "Falha ao carregar o painel", recent[0].Message)

	s.Detach(h)
	h.Wait()
}

func TestPanickingFetchIsRecovered(t *testing.T) {
	errs := make(chan error, 2)
	updates := make(chan Snapshot[string], 2)
	var n atomic.Int32

	s, err := New("lists", ListCollectionInterval, func(ctx context.Context, key string) (string, error) {
		if n.Add(1) == 1 {
			panic("nil map")
		}
		return "ok", nil
	}, Options[string]{
		OnUpdate: func(sn Snapshot[string]) { updates <- sn },
		OnError:  func(key string, err error) { errs <- err },
	})
	require.NoError(t, err)
	tk := newManualTicker()
	s.newTicker = tk.factory

	h := s.Attach("all")
	assert.Contains(t, receive(t, errs).Error(), "fetch panicked")

	tk.tick()
	assert.Equal(t, "ok", receive(t, updates).Value)

	s.Detach(h)
	h.Wait()
}

func TestDetachIsIdempotentAndFinal(t *testing.T) {
	updates := make(chan Snapshot[int], 4)
	s, err := New("list_detail", ListDetailInterval, func(ctx context.Context, key string) (int, error) {
		return 1, nil
	}, Options[int]{OnUpdate: func(sn Snapshot[int]) { updates <- sn }})
	require.NoError(t, err)
	s.newTicker = newManualTicker().factory

	h := s.Attach("3")
	receive(t, updates)

	s.Detach(h)
	s.Detach(h)
	h.Detach()
	h.Wait()

	select {
	case <-h.Done():
	default:
		t.Fatal("detached handle must report done")
	}

	assert.False(t, h.Refresh())
	assert.False(t, s.Refresh())
	_, ok := s.Snapshot()
	assert.False(t, ok, "a detached view has no snapshot")
}

func TestDetachWaitsForRunningHook(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32

	s, err := New("campaign_detail", CampaignDetailInterval, func(ctx context.Context, key string) (int, error) {
		return 1, nil
	}, Options[int]{OnUpdate: func(Snapshot[int]) {
		if calls.Add(1) == 1 {
			close(entered)
			<-release
		}
	}})
	require.NoError(t, err)
	s.newTicker = newManualTicker().factory

	h := s.Attach("1")
	receive(t, entered)

	detached := make(chan struct{})
	go func() {
		h.Detach()
		close(detached)
	}()

	select {
	case <-detached:
		t.Fatal("Detach returned while a hook was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	receive(t, detached)
	h.Wait()
	assert.Equal(t, int32(1), calls.Load())
}

func TestNoHookRunsAfterDetach(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	updates := make(chan Snapshot[int], 1)
	errs := make(chan error, 1)

	s, err := New("list_detail", ListDetailInterval, func(ctx context.Context, key string) (int, error) {
		started <- struct{}{}
		// the transport does not honour cancellation
		<-release
		return 7, nil
	}, Options[int]{
		OnUpdate: func(sn Snapshot[int]) { updates <- sn },
		OnError:  func(key string, err error) { errs <- err },
	})
	require.NoError(t, err)
	s.newTicker = newManualTicker().factory

	h := s.Attach("10")
	receive(t, started)
	h.Detach()

	close(release)
	h.Wait()
	assert.Empty(t, updates)
	assert.Empty(t, errs)
}
