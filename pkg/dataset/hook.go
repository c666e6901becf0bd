// Package dataset keeps the fetch state of one report view and refreshes
// it: one fetch per refresh, a periodic schedule, and last-good records
// kept visible when a fetch fails.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/ruslano69/stockreport/pkg/report"
)

// FailureMessage is what a view shows for any failed fetch.
const FailureMessage = "Failed to fetch data"

// DefaultInterval between scheduled refreshes.
const DefaultInterval = 180 * time.Second

// ErrAlreadyStarted is returned by Start while a schedule is running.
var ErrAlreadyStarted = errors.New("dataset: schedule already started")

// State is the fetch state of a view.
type State[R report.Record] struct {
	Records     []R
	Loading     bool
	LastError   string
	LastUpdated time.Time // zero until the first successful fetch
}

// Result describes one finished refresh.
type Result struct {
	Seq         uint64
	StartedAt   time.Time
	FinishedAt  time.Time
	Err         error
	NotModified bool
	// Discarded is set when the outcome was dropped: a newer refresh had
	// already been applied, or the context was cancelled.
	Discarded bool
	// Records is the record count after the refresh.
	Records int
}

// Options of a Hook.
type Options struct {
	// Message replaces FailureMessage.
	Message string
	// RefreshOnStart makes Start fetch immediately instead of waiting one
	// interval.
	RefreshOnStart bool
	// OnResult observes every finished refresh. Called without locks held.
	OnResult func(Result)
	// Now defaults to time.Now.
	Now func() time.Time
}

// Hook is safe for concurrent use.
type Hook[R report.Record] struct {
	fetcher Fetcher[R]
	opts    Options

	mu       sync.Mutex
	state    State[R]
	etag     string
	started  uint64 // sequence of the last started refresh
	applied  uint64 // sequence of the last applied refresh
	inflight int
	schedule *Schedule
}

// New creates a hook with empty state.
func New[R report.Record](f Fetcher[R], opts Options) *Hook[R] {
	if opts.Message == "" {
		opts.Message = FailureMessage
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Hook[R]{fetcher: f, opts: opts}
}

// Initialize sets the first-paint records and stamps them as current.
// A nil seed leaves the state empty.
func (h *Hook[R]) Initialize(seed []R) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if seed == nil {
		return
	}
	h.state.Records = slices.Clone(seed)
	h.state.LastUpdated = h.opts.Now()
}

// Snapshot returns a copy of the state.
func (h *Hook[R]) Snapshot() State[R] {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.state
	s.Records = slices.Clone(h.state.Records)
	return s
}

// Refresh performs one fetch and applies its outcome. It blocks until the
// fetch returns.
func (h *Hook[R]) Refresh(ctx context.Context) Result {
	h.mu.Lock()
	h.started++
	seq := h.started
	h.inflight++
	h.state.Loading = true
	etag := h.etag
	h.mu.Unlock()

	res := Result{Seq: seq, StartedAt: h.opts.Now()}
	resp, err := h.fetcher.Fetch(ctx, etag)
	res.FinishedAt = h.opts.Now()
	res.Err = err

	h.mu.Lock()
	h.inflight--
	h.state.Loading = h.inflight > 0
	switch {
	case ctx.Err() != nil, seq < h.applied:
		res.Discarded = true
	case err != nil:
		h.applied = seq
		h.state.LastError = h.opts.Message
	default:
		h.applied = seq
		if resp.NotModified {
			res.NotModified = true
		} else {
			h.state.Records = resp.Records
			h.etag = resp.ETag
		}
		h.state.LastError = ""
		h.state.LastUpdated = res.FinishedAt
	}
	res.Records = len(h.state.Records)
	h.mu.Unlock()

	if h.opts.OnResult != nil {
		h.opts.OnResult(res)
	}
	return res
}

// Schedule is a running refresh loop. Stop it when the view goes away.
type Schedule struct {
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
	release func()
}

// Start refreshes every interval until the schedule is stopped or ctx ends.
func (h *Hook[R]) Start(ctx context.Context, interval time.Duration) (*Schedule, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("dataset: interval must be positive, got %v", interval)
	}

	h.mu.Lock()
	if h.schedule != nil {
		h.mu.Unlock()
		return nil, ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &Schedule{cancel: cancel, done: make(chan struct{})}
	s.release = func() {
		h.mu.Lock()
		if h.schedule == s {
			h.schedule = nil
		}
		h.mu.Unlock()
	}
	h.schedule = s
	h.mu.Unlock()

	go func() {
		defer close(s.done)
		if h.opts.RefreshOnStart {
			h.Refresh(ctx)
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.Refresh(ctx)
			}
		}
	}()
	return s, nil
}

// Stop cancels the loop and waits for it to exit. A refresh in progress is
// cancelled and its outcome discarded. Safe to call more than once.
func (s *Schedule) Stop() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
		s.release()
	})
}

// Done is closed when the loop has exited.
func (s *Schedule) Done() <-chan struct{} {
	return s.done
}
