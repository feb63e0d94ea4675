package workpool_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zond/wiremesh/scope"
	"github.com/zond/wiremesh/shard"
	"github.com/zond/wiremesh/value"
	"github.com/zond/wiremesh/workpool"
)

// fakeCtx is a minimal shard.Context whose Suspend just sleeps briefly and
// reports Continue, standing in for a real wire's coroutine suspension
// point in tests that don't need a whole wire.
type fakeCtx struct {
	stop bool
}

func (f *fakeCtx) Flow() shard.FlowState                 { return shard.Continue }
func (f *fakeCtx) SetFlow(shard.FlowState)                {}
func (f *fakeCtx) SetFlowError(string)                    {}
func (f *fakeCtx) FlowStorage() value.Value               { return value.Value{} }
func (f *fakeCtx) SetFlowStorage(value.Value)             {}
func (f *fakeCtx) Scope() scope.Chain                     { return scope.Chain{} }
func (f *fakeCtx) Context() context.Context               { return context.Background() }
func (f *fakeCtx) ShouldStop() bool                       { return f.stop }
func (f *fakeCtx) Suspend(float64) (shard.FlowState, error) {
	time.Sleep(time.Millisecond)
	return shard.Continue, nil
}

// TestAwaitReturnsJobResult: Await blocks until the scheduled job
// completes and returns its result, yielding the wire in the meantime.
func TestAwaitReturnsJobResult(t *testing.T) {
	p := workpool.New()
	defer p.Stop()

	out, err := workpool.Await(p, &fakeCtx{}, func() (any, error) {
		time.Sleep(5 * time.Millisecond)
		return 42, nil
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.(int) != 42 {
		t.Fatalf("expected 42, got %v", out)
	}
}

// TestAwaitPropagatesError checks a failing job's error survives Await.
func TestAwaitPropagatesError(t *testing.T) {
	p := workpool.New()
	defer p.Stop()

	boom := errors.New("boom")
	_, err := workpool.Await(p, &fakeCtx{}, func() (any, error) {
		return nil, boom
	}, nil)
	if err != boom {
		t.Fatalf("expected boom, got %v", err)
	}
}

// TestAwaitCancelOnStop: when the
// context reports ShouldStop, Await invokes cancel and busy-waits for the
// foreign job to actually finish rather than abandoning it.
func TestAwaitCancelOnStop(t *testing.T) {
	p := workpool.New()
	defer p.Stop()

	canceled := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		out, err := workpool.Await(p, &fakeCtx{stop: true}, func() (any, error) {
			<-release
			return "late", nil
		}, func() {
			close(canceled)
		})
		if err != nil || out.(string) != "late" {
			t.Errorf("expected (late, nil), got (%v, %v)", out, err)
		}
		close(done)
	}()

	select {
	case <-canceled:
	case <-time.After(time.Second):
		t.Fatal("cancel was never invoked")
	}
	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Await did not return after the job finished")
	}
}

// TestPoolDrainsBurst schedules more work than NumWorkers can absorb at
// once and checks it all eventually completes. It does not observe the
// worker count, so neither the controller's grow nor its shrink path is
// asserted here.
func TestPoolDrainsBurst(t *testing.T) {
	p := workpool.New()
	defer p.Stop()

	const n = 50
	jobs := make([]*workpool.Job, n)
	for i := 0; i < n; i++ {
		jobs[i] = p.Schedule(func() (any, error) {
			time.Sleep(time.Millisecond)
			return nil, nil
		})
	}
	deadline := time.After(2 * time.Second)
	for _, j := range jobs {
		for !j.Done() {
			select {
			case <-deadline:
				t.Fatal("not all jobs completed in time")
			case <-time.After(time.Millisecond):
			}
		}
	}
}
