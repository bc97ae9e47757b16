package httpx

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
)

type countingTask struct {
	aborts atomic.Int32
}

func (t *countingTask) Wait() (*TransportResponse, error) { return nil, nil }
func (t *countingTask) Abort()                            { t.aborts.Add(1) }

func TestHandleCanceler_CancelBeforeAttach(t *testing.T) {
	_, c := newHandleCanceler(context.Background())
	hc := c.(*handleCanceler)

	hc.Cancel()
	nt := &countingTask{}
	hc.attach(nt)
	if nt.aborts.Load() != 1 {
		t.Fatalf("early cancel must be applied on attach")
	}
}

func TestSignalCanceler(t *testing.T) {
	ctx, c := newSignalCanceler(context.Background())
	c.Cancel()
	if ctx.Err() == nil {
		t.Fatalf("context should be cancelled")
	}
}

func TestRegistry_AbortExactlyOnce(t *testing.T) {
	r := newRegistry()
	tk := &task{id: "req_0"}
	r.add(tk)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var ok bool
			switch i % 3 {
			case 0:
				_, ok = r.abort("req_0")
			case 1:
				ok = r.abortTask(tk)
			default:
				ok = r.removeTask(tk)
			}
			if ok {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()
	if wins.Load() != 1 {
		t.Fatalf("expected exactly one removal, got %d", wins.Load())
	}
	if r.len() != 0 {
		t.Fatalf("registry not empty")
	}
}

func TestRegistry_ReusedIDSurvivesStaleCleanup(t *testing.T) {
	r := newRegistry()
	old := &task{id: "detail"}
	fresh := &task{id: "detail"}
	r.add(old)
	r.add(fresh)

	if r.removeTask(old) {
		t.Fatalf("stale task must not evict the new entry")
	}
	if ids := r.ids(); len(ids) != 1 || ids[0] != "detail" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestRegistry_IDsOrdered(t *testing.T) {
	r := newRegistry()
	var c idCounter
	for i := 0; i < 12; i++ {
		id, seq := c.next()
		r.add(&task{id: id, seq: seq})
	}
	r.add(&task{id: "custom", seq: seqOf("custom")})

	ids := r.ids()
	if ids[0] != "req_0" || ids[10] != "req_10" || ids[12] != "custom" {
		t.Fatalf("unexpected order: %v", ids)
	}
}
