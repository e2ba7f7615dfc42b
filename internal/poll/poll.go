// Package poll keeps a mounted view's snapshot fresh by re-fetching it on a
// schedule bound to the view's lifetime and identity key.
package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/foxzi/disparo/internal/metrics"
	"github.com/foxzi/disparo/internal/notify"
)

// MinInterval is the shortest accepted refresh interval.
const MinInterval = time.Second

// Refresh intervals of the console views
const (
	DashboardInterval      = 30 * time.Second
	CampaignListInterval   = 10 * time.Second
	CampaignDetailInterval = 5 * time.Second
	ListCollectionInterval = 10 * time.Second
	ListDetailInterval     = 5 * time.Second
)

// ErrIntervalTooShort is returned for intervals below MinInterval
var ErrIntervalTooShort = errors.New("poll interval must be at least 1s")

// FetchFunc loads the snapshot for an identity key
type FetchFunc[T any] func(ctx context.Context, key string) (T, error)

// Snapshot is the latest applied fetch result
type Snapshot[T any] struct {
	Key        string
	Generation uint64
	Value      T
	FetchedAt  time.Time
}

// Options configure a Synchronizer. Hooks run on fetch goroutines, one at a
// time and in resolution order, and only for results of the attached
// schedule. Detach waits for a running hook, so hooks must not block on the
// detaching goroutine and must not call Attach, Detach or Wait.
type Options[T any] struct {
	Logger   *slog.Logger
	Notifier notify.Notifier
	Metrics  *metrics.Metrics

	// ErrorMessage is the notification shown once per failed fetch
	ErrorMessage string

	OnUpdate func(Snapshot[T])
	OnError  func(key string, err error)
}

// Synchronizer re-fetches one view's snapshot. At most one schedule is
// attached at a time; attaching again replaces it.
type Synchronizer[T any] struct {
	name     string
	interval time.Duration
	fetch    FetchFunc[T]
	logger   *slog.Logger
	notifier notify.Notifier
	metrics  *metrics.Metrics
	errMsg   string
	onUpdate func(Snapshot[T])
	onError  func(key string, err error)

	newTicker func(time.Duration) ticker

	attachMu sync.Mutex
	mu       sync.Mutex // guards active
	active   *Handle

	guard Guard

	// applyMu serializes result application so results land in the order
	// they resolve.
	applyMu sync.Mutex

	snapMu   sync.Mutex
	snapshot Snapshot[T]
	hasSnap  bool
}

// New creates a synchronizer for the view called name
func New[T any](name string, interval time.Duration, fetch FetchFunc[T], opts Options[T]) (*Synchronizer[T], error) {
	if interval < MinInterval {
		return nil, fmt.Errorf("%s: %w (got %s)", name, ErrIntervalTooShort, interval)
	}
	if fetch == nil {
		return nil, fmt.Errorf("%s: fetch function is required", name)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Discard
	}
	errMsg := opts.ErrorMessage
	if errMsg == "" {
		errMsg = "Falha ao carregar dados"
	}

	return &Synchronizer[T]{
		name:      name,
		interval:  interval,
		fetch:     fetch,
		logger:    logger.With("component", "poll", "view", name),
		notifier:  notifier,
		metrics:   opts.Metrics,
		errMsg:    errMsg,
		onUpdate:  opts.OnUpdate,
		onError:   opts.OnError,
		newTicker: newTimeTicker,
	}, nil
}

// Name returns the view name
func (s *Synchronizer[T]) Name() string {
	return s.name
}

// Interval returns the refresh interval
func (s *Synchronizer[T]) Interval() time.Duration {
	return s.interval
}

// Attach fetches key immediately and then every interval until the returned
// handle is detached. Any previously attached schedule is detached first and
// its pending responses are discarded.
func (s *Synchronizer[T]) Attach(key string) *Handle {
	s.attachMu.Lock()
	defer s.attachMu.Unlock()

	s.mu.Lock()
	prev := s.active
	s.mu.Unlock()
	if prev != nil {
		prev.Detach()
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{
		ctx:      ctx,
		cancel:   cancel,
		loopDone: make(chan struct{}),
	}
	h.refresh = func() bool { return s.spawn(h) }
	h.detach = func() { s.detach(h) }

	s.mu.Lock()
	h.token = s.guard.Begin(key)
	s.active = h
	s.mu.Unlock()

	s.snapMu.Lock()
	if s.snapshot.Key != key {
		s.snapshot = Snapshot[T]{}
		s.hasSnap = false
	}
	s.snapMu.Unlock()

	s.metrics.ScheduleAttached(s.name)
	s.logger.Debug("schedule attached", "key", key, "generation", h.token.Gen, "interval", s.interval)

	s.spawn(h)
	go s.loop(h)

	return h
}

// Detach stops the schedule of h. It is idempotent; once it returns no tick
// fires for h and no response issued under h is applied.
func (s *Synchronizer[T]) Detach(h *Handle) {
	if h != nil {
		h.Detach()
	}
}

// Refresh triggers an out-of-cycle fetch for the attached schedule
func (s *Synchronizer[T]) Refresh() bool {
	s.mu.Lock()
	h := s.active
	s.mu.Unlock()
	if h == nil {
		return false
	}
	return s.spawn(h)
}

// Snapshot returns the latest applied result of the attached identity
func (s *Synchronizer[T]) Snapshot() (Snapshot[T], bool) {
	tok, live := s.guard.Current()

	s.snapMu.Lock()
	defer s.snapMu.Unlock()
	if !live || !s.hasSnap || s.snapshot.Generation != tok.Gen {
		return Snapshot[T]{}, false
	}
	return s.snapshot, true
}

func (s *Synchronizer[T]) detach(h *Handle) {
	s.mu.Lock()
	if s.active == h {
		s.active = nil
		s.guard.Invalidate()
	}
	s.mu.Unlock()

	h.cancel()
	<-h.loopDone

	s.awaitApply()

	s.metrics.ScheduleDetached(s.name)
	s.logger.Debug("schedule detached", "key", h.token.Key, "generation", h.token.Gen)
}

// awaitApply returns once no result is being applied. A result that passed
// the guard before an invalidation may still be running its hooks; later
// ones fail the guard.
func (s *Synchronizer[T]) awaitApply() {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()
}

func (s *Synchronizer[T]) loop(h *Handle) {
	defer close(h.loopDone)

	t := s.newTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-t.C():
			s.spawn(h)
		}
	}
}

// spawn starts one fetch for h if h is still the attached schedule
func (s *Synchronizer[T]) spawn(h *Handle) bool {
	s.mu.Lock()
	if s.active != h || h.ctx.Err() != nil {
		s.mu.Unlock()
		return false
	}
	h.fetches.Add(1)
	s.mu.Unlock()

	go s.run(h)
	return true
}

func (s *Synchronizer[T]) run(h *Handle) {
	defer h.fetches.Done()

	start := time.Now()
	value, err := s.safeFetch(h.ctx, h.token.Key)
	elapsed := time.Since(start)

	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	var snap Snapshot[T]
	applied := s.guard.Apply(h.token, func() {
		if err != nil {
			return
		}
		snap = Snapshot[T]{
			Key:        h.token.Key,
			Generation: h.token.Gen,
			Value:      value,
			FetchedAt:  time.Now(),
		}
		s.snapMu.Lock()
		s.snapshot = snap
		s.hasSnap = true
		s.snapMu.Unlock()
	})

	if !applied {
		s.metrics.ObservePoll(s.name, metrics.ResultStale, elapsed)
		s.logger.Debug("discarding stale response", "key", h.token.Key, "generation", h.token.Gen, "error", err)
		return
	}

	if err != nil {
		s.metrics.ObservePoll(s.name, metrics.ResultError, elapsed)
		s.logger.Warn("refresh failed", "key", h.token.Key, "error", err)
		s.notifier.Error(s.errMsg)
		if s.onError != nil {
			s.onError(h.token.Key, err)
		}
		return
	}

	s.metrics.ObservePoll(s.name, metrics.ResultOK, elapsed)
	if s.onUpdate != nil {
		s.onUpdate(snap)
	}
}

func (s *Synchronizer[T]) safeFetch(ctx context.Context, key string) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetch panicked: %v", r)
		}
	}()
	return s.fetch(ctx, key)
}

// Handle is the lifetime token of one attached schedule
type Handle struct {
	token      Token
	ctx        context.Context
	cancel     context.CancelFunc
	loopDone   chan struct{}
	fetches    sync.WaitGroup
	detachOnce sync.Once
	refresh    func() bool
	detach     func()
}

// Key returns the identity key the schedule is bound to
func (h *Handle) Key() string {
	return h.token.Key
}

// Generation returns the generation captured at attach time
func (h *Handle) Generation() uint64 {
	return h.token.Gen
}

// Refresh triggers an out-of-cycle fetch. It reports false once detached.
func (h *Handle) Refresh() bool {
	return h.refresh()
}

// Detach stops the schedule; see Synchronizer.Detach
func (h *Handle) Detach() {
	h.detachOnce.Do(h.detach)
}

// Done is closed when the schedule is detached
func (h *Handle) Done() <-chan struct{} {
	return h.ctx.Done()
}

// Wait blocks until the schedule loop and every fetch it started have
// returned. Call it after Detach.
func (h *Handle) Wait() {
	<-h.loopDone
	h.fetches.Wait()
}

type ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	t *time.Ticker
}

func newTimeTicker(d time.Duration) ticker {
	return timeTicker{t: time.NewTicker(d)}
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }
