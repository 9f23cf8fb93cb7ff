package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeService struct {
	name     string
	startErr error
	block    bool
	stopped  atomic.Bool
	release  chan struct{}
}

func newFakeService(name string, block bool, startErr error) *fakeService {
	return &fakeService{name: name, block: block, startErr: startErr, release: make(chan struct{})}
}

func (s *fakeService) Name() string { return s.name }

func (s *fakeService) Start(ctx context.Context) error {
	if !s.block {
		return s.startErr
	}
	select {
	case <-ctx.Done():
	case <-s.release:
	}
	return s.startErr
}

func (s *fakeService) Stop(ctx context.Context) error {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.release)
	}
	return nil
}

func TestRunnerStopsAllWhenContextCancelled(t *testing.T) {
	a := newFakeService("a", true, nil)
	b := newFakeService("b", true, nil)
	runner := NewRunner(a, b)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx, time.Second, nil) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("cancelled run should return nil, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("runner did not stop")
	}
	if !a.stopped.Load() || !b.stopped.Load() {
		t.Fatalf("all services should be stopped")
	}
}

func TestRunnerPropagatesServiceFailure(t *testing.T) {
	boom := errors.New("listen failed")
	failing := newFakeService("http", false, boom)
	other := newFakeService("worker", true, nil)

	err := NewRunner(failing, other).Run(context.Background(), time.Second, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("want listen failure, got %v", err)
	}
	if !other.stopped.Load() {
		t.Fatalf("remaining services should be stopped")
	}
}

func TestRunnerRejectsEmptyOrNil(t *testing.T) {
	if err := NewRunner().Run(context.Background(), time.Second, nil); err == nil {
		t.Fatalf("empty runner should fail")
	}
	if err := NewRunner(nil).Run(context.Background(), time.Second, nil); err == nil {
		t.Fatalf("nil service should fail")
	}
	if err := RunWithOptions(nil, Options{}); err == nil {
		t.Fatalf("nil runner should fail")
	}
}
