package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Ducr/taro-mobile-open/notify"
	"github.com/Ducr/taro-mobile-open/storage"
)

type toast struct {
	msg     string
	variant notify.Variant
}

// recorder is a Notifier and Navigator that remembers every call.
type recorder struct {
	mu        sync.Mutex
	toasts    []toast
	shown     int
	hidden    int
	redirects []string
}

func (r *recorder) Toast(msg string, v notify.Variant, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, toast{msg: msg, variant: v})
}

func (r *recorder) Modal(string, string) {}

func (r *recorder) ShowLoading(string) notify.Loading {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shown++
	return loadingFunc(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.hidden++
	})
}

func (r *recorder) Redirect(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redirects = append(r.redirects, path)
}

func (r *recorder) NavigateTo(string) {}
func (r *recorder) Back(int)          {}

func (r *recorder) toastMessages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.toasts))
	for i, t := range r.toasts {
		out[i] = t.msg
	}
	return out
}

func (r *recorder) loadingCounts() (shown, hidden int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shown, r.hidden
}

func (r *recorder) redirectPaths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.redirects...)
}

type loadingFunc func()

func (f loadingFunc) Hide() { f() }

// overlayFailure is a recorder whose loading indicator panics.
type overlayFailure struct{ *recorder }

func (overlayFailure) ShowLoading(string) notify.Loading { panic("loading overlay unavailable") }

// gateAdapter hands out tasks the test settles by hand.
type gateAdapter struct {
	platform Platform

	mu      sync.Mutex
	tasks   []*gateTask
	started chan *gateTask
}

func newGateAdapter(p Platform) *gateAdapter {
	return &gateAdapter{platform: p, started: make(chan *gateTask, 16)}
}

func (a *gateAdapter) Platform() Platform { return a.platform }

func (a *gateAdapter) Request(ctx context.Context, req *TransportRequest) Task {
	return a.newTask(ctx, req, nil)
}

func (a *gateAdapter) Upload(ctx context.Context, req *UploadRequest) Task {
	return a.newTask(ctx, nil, req)
}

func (a *gateAdapter) newTask(ctx context.Context, req *TransportRequest, up *UploadRequest) Task {
	t := &gateTask{ctx: ctx, req: req, upload: up, result: make(chan gateResult, 1), aborted: make(chan struct{})}
	a.mu.Lock()
	a.tasks = append(a.tasks, t)
	a.mu.Unlock()
	a.started <- t
	return t
}

type gateResult struct {
	resp *TransportResponse
	err  error
}

type gateTask struct {
	ctx    context.Context
	req    *TransportRequest
	upload *UploadRequest
	result chan gateResult

	once    sync.Once
	aborted chan struct{}
}

func (t *gateTask) settle(resp *TransportResponse, err error) {
	t.result <- gateResult{resp: resp, err: err}
}

func (t *gateTask) Wait() (*TransportResponse, error) {
	r := <-t.result
	return r.resp, r.err
}

func (t *gateTask) Abort() { t.once.Do(func() { close(t.aborted) }) }

func (t *gateTask) wasAborted() bool {
	select {
	case <-t.aborted:
		return true
	default:
		return false
	}
}

func waitStarted(t *testing.T, a *gateAdapter) *gateTask {
	t.Helper()
	select {
	case gt := <-a.started:
		return gt
	case <-time.After(2 * time.Second):
		t.Fatal("adapter was not invoked")
		return nil
	}
}

func waitCall(t *testing.T, call *Call) (*Response, error) {
	t.Helper()
	select {
	case <-call.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("%s did not settle", call.ID())
	}
	return call.Wait()
}

func envelopeBody(code any, message string, data any) []byte {
	b, _ := json.Marshal(map[string]any{"code": code, "message": message, "data": data})
	return b
}

func okResponse(data any) *TransportResponse {
	return &TransportResponse{StatusCode: http.StatusOK, Header: make(http.Header), Body: envelopeBody(0, "ok", data)}
}

type testEnv struct {
	client *Client
	rec    *recorder
	store  *storage.Memory
}

func newTestClient(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	rec := &recorder{}
	store := storage.NewMemory()
	base := []Option{WithStore(store), WithNotifier(rec), WithNavigator(rec)}
	c, err := New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &testEnv{client: c, rec: rec, store: store}
}

func newEnvelopeServer(t *testing.T, h func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(h))
	t.Cleanup(srv.Close)
	return srv
}
