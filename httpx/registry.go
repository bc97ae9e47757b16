package httpx

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/Ducr/taro-mobile-open/notify"
)

// canceler is the only cancellation capability the registry knows about.
// Which implementation backs it is decided once per client from the
// adapter's platform.
type canceler interface {
	Cancel()
}

// cancelerFactory derives the dispatch context and its canceler.
type cancelerFactory func(ctx context.Context) (context.Context, canceler)

func cancelerFor(p Platform) cancelerFactory {
	if p == PlatformEmbedded {
		return newHandleCanceler
	}
	return newSignalCanceler
}

// signalCanceler cancels the context handed to the transport.
type signalCanceler struct {
	cancel context.CancelFunc
}

func newSignalCanceler(ctx context.Context) (context.Context, canceler) {
	ctx, cancel := context.WithCancel(ctx)
	return ctx, &signalCanceler{cancel: cancel}
}

func (s *signalCanceler) Cancel() { s.cancel() }

// handleCanceler aborts the native task handle. The handle only exists once
// the adapter has been invoked; a cancel that arrives earlier is remembered
// and applied on attach.
type handleCanceler struct {
	mu        sync.Mutex
	task      Task
	cancelled bool
}

func newHandleCanceler(ctx context.Context) (context.Context, canceler) {
	return ctx, &handleCanceler{}
}

func (h *handleCanceler) Cancel() {
	h.mu.Lock()
	t := h.task
	h.cancelled = true
	h.mu.Unlock()
	if t != nil {
		t.Abort()
	}
}

func (h *handleCanceler) attach(t Task) {
	h.mu.Lock()
	h.task = t
	cancelled := h.cancelled
	h.mu.Unlock()
	if cancelled {
		t.Abort()
	}
}

// task is a registry entry for one in-flight request or upload.
type task struct {
	id     string
	seq    uint64
	method string
	cfg    *RequestConfig
	cancel canceler

	mu      sync.Mutex
	loading notify.Loading
	aborted bool
}

func (t *task) setLoading(l notify.Loading) {
	t.mu.Lock()
	t.loading = l
	t.mu.Unlock()
}

// hideLoading hides the indicator once.
func (t *task) hideLoading() {
	t.mu.Lock()
	l := t.loading
	t.loading = nil
	t.mu.Unlock()
	if l != nil {
		l.Hide()
	}
}

func (t *task) markAborted() {
	t.mu.Lock()
	t.aborted = true
	t.mu.Unlock()
}

func (t *task) wasAborted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.aborted
}

// release frees the derived context of a settled signal-based task.
func (t *task) release() {
	if s, ok := t.cancel.(*signalCanceler); ok {
		s.cancel()
	}
}

// attach hands the native handle to a handle-based canceler.
func (t *task) attach(h Task) {
	if hc, ok := t.cancel.(*handleCanceler); ok && h != nil {
		hc.attach(h)
	}
}

// registry maps request ids to in-flight tasks.
type registry struct {
	mu    sync.Mutex
	tasks map[string]*task
}

func newRegistry() *registry {
	return &registry{tasks: make(map[string]*task)}
}

func (r *registry) add(t *task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[t.id] = t
}

// abort deletes id and sets its abort flag under the registry lock, so a
// settling task either sees the flag or has already removed itself.
// Concurrent callers racing on the same id see exactly one true.
func (r *registry) abort(id string) (*task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, false
	}
	delete(r.tasks, id)
	t.markAborted()
	return t, true
}

// abortTask is abort for a known entry. It only succeeds while t is still the
// entry registered under its id.
func (r *registry) abortTask(t *task) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.tasks[t.id]; !ok || cur != t {
		return false
	}
	delete(r.tasks, t.id)
	t.markAborted()
	return true
}

// removeTask deletes id only while it still maps to t, so a caller-supplied
// id reused after settlement is not evicted by the earlier task's cleanup.
func (r *registry) removeTask(t *task) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.tasks[t.id]; ok && cur == t {
		delete(r.tasks, t.id)
		return true
	}
	return false
}

func (r *registry) ids() []string {
	r.mu.Lock()
	ts := make([]*task, 0, len(r.tasks))
	for _, t := range r.tasks {
		ts = append(ts, t)
	}
	r.mu.Unlock()

	sort.Slice(ts, func(i, j int) bool {
		if ts[i].seq != ts[j].seq {
			return ts[i].seq < ts[j].seq
		}
		return ts[i].id < ts[j].id
	})
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.id
	}
	return out
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// idSeq parses the counter of a generated id; foreign ids sort last.
func idSeq(id string) (uint64, bool) {
	s, ok := strings.CutPrefix(id, requestIDPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 64)
	return n, err == nil
}
