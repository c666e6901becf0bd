package dataset

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ruslano69/stockreport/pkg/report"
)

func sales(refs ...string) []report.SalesRecord {
	out := make([]report.SalesRecord, len(refs))
	for i, r := range refs {
		out[i] = report.SalesRecord{Reference: report.NewText(r)}
	}
	return out
}

func ok(records []report.SalesRecord) FetcherFunc[report.SalesRecord] {
	return func(context.Context, string) (Response[report.SalesRecord], error) {
		return Response[report.SalesRecord]{Records: records}, nil
	}
}

// scripted replays a fixed sequence of fetch outcomes.
type scripted struct {
	mu    sync.Mutex
	steps []func() (Response[report.SalesRecord], error)
	etags []string
}

func (s *scripted) Fetch(_ context.Context, etag string) (Response[report.SalesRecord], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.etags = append(s.etags, etag)
	step := s.steps[0]
	if len(s.steps) > 1 {
		s.steps = s.steps[1:]
	}
	return step()
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRefresh_FailureKeepsRecords(t *testing.T) {
	f := &scripted{steps: []func() (Response[report.SalesRecord], error){
		func() (Response[report.SalesRecord], error) {
			return Response[report.SalesRecord]{Records: sales("a", "b", "c")}, nil
		},
		func() (Response[report.SalesRecord], error) {
			return Response[report.SalesRecord]{}, errors.Join(ErrServer, errors.New("500 Internal Server Error"))
		},
	}}
	h := New[report.SalesRecord](f, Options{})

	if res := h.Refresh(context.Background()); res.Err != nil {
		t.Fatalf("first refresh: %v", res.Err)
	}
	good := h.Snapshot()

	res := h.Refresh(context.Background())
	if !errors.Is(res.Err, ErrServer) {
		t.Fatalf("expected server failure, got %v", res.Err)
	}

	st := h.Snapshot()
	if len(st.Records) != 3 {
		t.Errorf("records = %d, want 3", len(st.Records))
	}
	if st.LastError != FailureMessage {
		t.Errorf("LastError = %q", st.LastError)
	}
	if st.Loading {
		t.Error("Loading must be false after a refresh")
	}
	if !st.LastUpdated.Equal(good.LastUpdated) {
		t.Error("a failed refresh must not stamp LastUpdated")
	}
}

func TestRefresh_SuccessClearsError(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	f := &scripted{steps: []func() (Response[report.SalesRecord], error){
		func() (Response[report.SalesRecord], error) { return Response[report.SalesRecord]{}, ErrTransport },
		func() (Response[report.SalesRecord], error) {
			return Response[report.SalesRecord]{Records: sales("x")}, nil
		},
	}}
	h := New[report.SalesRecord](f, Options{Message: "Failed to fetch inventory data", Now: func() time.Time { return now }})

	h.Refresh(context.Background())
	if st := h.Snapshot(); st.LastError != "Failed to fetch inventory data" || !st.LastUpdated.IsZero() {
		t.Fatalf("after failure: %+v", st)
	}

	h.Refresh(context.Background())
	st := h.Snapshot()
	if st.LastError != "" || !st.LastUpdated.Equal(now) || len(st.Records) != 1 {
		t.Errorf("after success: %+v", st)
	}
}

func TestInitialize(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	h := New[report.SalesRecord](ok(nil), Options{Now: func() time.Time { return now }})

	seed := sales("a", "b")
	h.Initialize(seed)
	seed[0].Reference = report.NewText("mutated")

	st := h.Snapshot()
	if len(st.Records) != 2 || st.Records[0].Reference.String != "a" {
		t.Errorf("seed not copied: %+v", st.Records)
	}
	if !st.LastUpdated.Equal(now) || st.Loading {
		t.Errorf("state = %+v", st)
	}

	st.Records[1].Reference = report.NewText("changed")
	if h.Snapshot().Records[1].Reference.String != "b" {
		t.Error("snapshot must not alias hook state")
	}
}

func TestRefresh_StaleResponseDiscarded(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	f := FetcherFunc[report.SalesRecord](func(context.Context, string) (Response[report.SalesRecord], error) {
		if calls.Add(1) == 1 {
			<-release
			return Response[report.SalesRecord]{Records: sales("old")}, nil
		}
		return Response[report.SalesRecord]{Records: sales("new")}, nil
	})

	var results []Result
	var mu sync.Mutex
	h := New[report.SalesRecord](f, Options{OnResult: func(r Result) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}})

	first := make(chan Result)
	go func() { first <- h.Refresh(context.Background()) }()
	waitFor(t, "first fetch", func() bool { return calls.Load() == 1 })

	if !h.Snapshot().Loading {
		t.Error("Loading must be true while a fetch is in flight")
	}

	h.Refresh(context.Background())
	if !h.Snapshot().Loading {
		t.Error("Loading must stay true while the older fetch is in flight")
	}

	close(release)
	res := <-first
	if !res.Discarded {
		t.Error("older response must be discarded")
	}

	st := h.Snapshot()
	if st.Records[0].Reference.String != "new" || st.Loading {
		t.Errorf("state = %+v", st)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(results) != 2 {
		t.Errorf("OnResult called %d times", len(results))
	}
}

func TestRefresh_NotModifiedKeepsRecords(t *testing.T) {
	f := &scripted{steps: []func() (Response[report.SalesRecord], error){
		func() (Response[report.SalesRecord], error) {
			return Response[report.SalesRecord]{Records: sales("a"), ETag: `"v1"`}, nil
		},
		func() (Response[report.SalesRecord], error) {
			return Response[report.SalesRecord]{NotModified: true, ETag: `"v1"`}, nil
		},
	}}
	tick := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	h := New[report.SalesRecord](f, Options{Now: func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}})

	h.Refresh(context.Background())
	before := h.Snapshot().LastUpdated
	res := h.Refresh(context.Background())

	if !res.NotModified || res.Records != 1 {
		t.Errorf("result = %+v", res)
	}
	st := h.Snapshot()
	if len(st.Records) != 1 || !st.LastUpdated.After(before) {
		t.Errorf("state = %+v", st)
	}
	if f.etags[0] != "" || f.etags[1] != `"v1"` {
		t.Errorf("etags sent = %q", f.etags)
	}
}

func TestSchedule_RefreshesUntilStopped(t *testing.T) {
	var calls atomic.Int32
	h := New[report.SalesRecord](FetcherFunc[report.SalesRecord](func(context.Context, string) (Response[report.SalesRecord], error) {
		calls.Add(1)
		return Response[report.SalesRecord]{Records: sales("a")}, nil
	}), Options{})

	s, err := h.Start(context.Background(), 5*time.Millisecond)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, "three ticks", func() bool { return calls.Load() >= 3 })

	s.Stop()
	s.Stop()
	after := calls.Load()
	time.Sleep(30 * time.Millisecond)
	if calls.Load() != after {
		t.Error("refresh ran after Stop")
	}

	select {
	case <-s.Done():
	default:
		t.Error("Done must be closed after Stop")
	}
}

func TestSchedule_AlreadyStarted(t *testing.T) {
	h := New[report.SalesRecord](ok(nil), Options{})

	s, err := h.Start(context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := h.Start(context.Background(), time.Hour); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start: %v", err)
	}
	s.Stop()

	s2, err := h.Start(context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("Start after Stop: %v", err)
	}
	s2.Stop()

	if _, err := h.Start(context.Background(), 0); err == nil {
		t.Error("zero interval must be rejected")
	}
}

func TestSchedule_RefreshOnStart(t *testing.T) {
	var calls atomic.Int32
	h := New[report.SalesRecord](FetcherFunc[report.SalesRecord](func(context.Context, string) (Response[report.SalesRecord], error) {
		calls.Add(1)
		return Response[report.SalesRecord]{Records: sales("a")}, nil
	}), Options{RefreshOnStart: true})

	s, err := h.Start(context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	waitFor(t, "initial fetch", func() bool { return len(h.Snapshot().Records) == 1 })
	if calls.Load() != 1 {
		t.Errorf("calls = %d", calls.Load())
	}
}

func TestSchedule_StopCancelsInFlight(t *testing.T) {
	entered := make(chan struct{})
	h := New[report.SalesRecord](FetcherFunc[report.SalesRecord](func(ctx context.Context, _ string) (Response[report.SalesRecord], error) {
		close(entered)
		<-ctx.Done()
		return Response[report.SalesRecord]{}, errors.Join(ErrTransport, ctx.Err())
	}), Options{RefreshOnStart: true})
	h.Initialize(sales("seed"))

	s, err := h.Start(context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-entered
	s.Stop()

	st := h.Snapshot()
	if st.LastError != "" {
		t.Errorf("cancelled refresh must not set an error: %q", st.LastError)
	}
	if st.Loading || len(st.Records) != 1 {
		t.Errorf("state = %+v", st)
	}
}
