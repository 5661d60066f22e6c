package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeSource struct {
	mu        sync.Mutex
	gateOpen  bool
	refreshes int
	err       error
}

func (f *fakeSource) GateOpen(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gateOpen
}

func (f *fakeSource) Refresh(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return true, f.err
}

func (f *fakeSource) setGate(open bool) {
	f.mu.Lock()
	f.gateOpen = open
	f.mu.Unlock()
}

func (f *fakeSource) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshes
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func newTestRefresher(t *testing.T, src *fakeSource) *ForecastRefresher {
	t.Helper()
	r := NewForecastRefresher(src, RefresherConfig{Interval: 10 * time.Millisecond}, nil)
	t.Cleanup(func() { _ = r.Stop(context.Background()) })
	return r
}

func TestDefaultRefresherConfig(t *testing.T) {
	if got := DefaultRefresherConfig().Interval; got != 30*time.Minute {
		t.Errorf("expected Interval 30m, got %v", got)
	}
	r := NewForecastRefresher(&fakeSource{}, RefresherConfig{}, nil)
	if r.config.Interval != 30*time.Minute {
		t.Errorf("zero interval should default, got %v", r.config.Interval)
	}
}

func TestForecastRefresher_StartTwice(t *testing.T) {
	r := newTestRefresher(t, &fakeSource{gateOpen: true})
	ctx := context.Background()
	if err := r.Start(ctx); err != nil {
		t.Fatalf("first Start() error = %v", err)
	}
	if err := r.Start(ctx); err == nil {
		t.Fatal("second Start() should fail")
	}
	if err := r.Stop(ctx); err != nil {
		t.Fatal(err)
	}
	if r.IsRunning() {
		t.Fatal("should be stopped")
	}
}

func TestForecastRefresher_NotArmedDoesNotStart(t *testing.T) {
	src := &fakeSource{gateOpen: true}
	r := newTestRefresher(t, src)

	if err := r.SetVisible(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	if r.IsRunning() {
		t.Fatal("refresher must wait for the first successful forecast")
	}
}

func TestForecastRefresher_ArmRefreshesPeriodically(t *testing.T) {
	src := &fakeSource{gateOpen: true, err: errors.New("transient")}
	r := newTestRefresher(t, src)

	r.Arm(context.Background())
	if !r.IsRunning() {
		t.Fatal("Arm() should start the loop")
	}
	eventually(t, func() bool { return src.count() >= 2 })
}

func TestForecastRefresher_Visibility(t *testing.T) {
	src := &fakeSource{gateOpen: true}
	r := newTestRefresher(t, src)
	ctx := context.Background()

	if err := r.SetVisible(ctx, false); err != nil {
		t.Fatal(err)
	}
	r.Arm(ctx)
	if r.IsRunning() {
		t.Fatal("hidden sessions do not refresh")
	}

	if err := r.SetVisible(ctx, true); err != nil {
		t.Fatal(err)
	}
	if !r.IsRunning() {
		t.Fatal("becoming visible re-establishes the loop")
	}

	if err := r.SetVisible(ctx, false); err != nil {
		t.Fatal(err)
	}
	if r.IsRunning() {
		t.Fatal("hiding tears the loop down")
	}
	before := src.count()
	time.Sleep(40 * time.Millisecond)
	if src.count() != before {
		t.Fatal("no refresh while hidden")
	}

	src.setGate(false)
	if err := r.SetVisible(ctx, true); err != nil {
		t.Fatal(err)
	}
	if r.IsRunning() {
		t.Fatal("closed gate keeps the loop down")
	}
}

func TestForecastRefresher_StopsWhenGateCloses(t *testing.T) {
	src := &fakeSource{gateOpen: true}
	r := newTestRefresher(t, src)

	r.Arm(context.Background())
	src.setGate(false)
	eventually(t, func() bool { return !r.IsRunning() })

	if err := r.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() after self-teardown error = %v", err)
	}
}

func TestForecastRefresher_Disarm(t *testing.T) {
	src := &fakeSource{gateOpen: true}
	r := newTestRefresher(t, src)
	ctx := context.Background()

	r.Arm(ctx)
	if err := r.Disarm(ctx); err != nil {
		t.Fatal(err)
	}
	if err := r.SetVisible(ctx, true); err != nil {
		t.Fatal(err)
	}
	if r.IsRunning() {
		t.Fatal("disarmed refresher stays down")
	}
}
