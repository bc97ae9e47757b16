package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"
)

// MaxResponseBytes caps how much of a response body is read into memory.
const MaxResponseBytes int64 = 16 << 20

// TransportConfig captures the http.Transport knobs worth tuning for a
// mobile-facing REST backend.
type TransportConfig struct {
	DialTimeout           time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration
	IdleConnTimeout       time.Duration
	MaxIdleConnsPerHost   int
}

// NewTransport builds an *http.Transport from DefaultTransport() plus overrides.
func NewTransport(cfg TransportConfig) *http.Transport {
	t := DefaultTransport()
	if cfg.DialTimeout > 0 {
		t.DialContext = (&net.Dialer{Timeout: cfg.DialTimeout, KeepAlive: 30 * time.Second}).DialContext
	}
	if cfg.TLSHandshakeTimeout > 0 {
		t.TLSHandshakeTimeout = cfg.TLSHandshakeTimeout
	}
	if cfg.ResponseHeaderTimeout > 0 {
		t.ResponseHeaderTimeout = cfg.ResponseHeaderTimeout
	}
	if cfg.IdleConnTimeout > 0 {
		t.IdleConnTimeout = cfg.IdleConnTimeout
	}
	if cfg.MaxIdleConnsPerHost > 0 {
		t.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost
	}
	return t
}

// DefaultTransport returns a tuned clone of http.DefaultTransport.
func DefaultTransport() *http.Transport {
	base, _ := http.DefaultTransport.(*http.Transport)
	if base == nil {
		return &http.Transport{}
	}
	t := base.Clone()
	t.DialContext = (&net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext
	t.TLSHandshakeTimeout = 5 * time.Second
	t.ExpectContinueTimeout = 1 * time.Second
	t.IdleConnTimeout = 90 * time.Second
	if t.MaxIdleConnsPerHost == 0 {
		t.MaxIdleConnsPerHost = 16
	}
	t.ForceAttemptHTTP2 = true
	return t
}

// AdapterOption configures the net/http based adapters.
type AdapterOption func(*httpDoer)

// WithRoundTripper replaces the underlying RoundTripper.
func WithRoundTripper(rt http.RoundTripper) AdapterOption {
	return func(d *httpDoer) { d.rt = rt }
}

// WithMiddleware wraps the RoundTripper; the first middleware is outermost.
func WithMiddleware(mws ...Middleware) AdapterOption {
	return func(d *httpDoer) { d.mws = append(d.mws, mws...) }
}

// httpDoer performs requests over net/http for both adapters.
type httpDoer struct {
	rt  http.RoundTripper
	mws []Middleware
	hc  *http.Client
}

func newHTTPDoer(opts []AdapterOption) *httpDoer {
	d := &httpDoer{}
	for _, o := range opts {
		if o != nil {
			o(d)
		}
	}
	rt := d.rt
	if rt == nil {
		rt = DefaultTransport()
	}
	d.hc = &http.Client{Transport: chainMiddleware(rt, d.mws)}
	return d
}

func (d *httpDoer) send(ctx context.Context, timeout time.Duration, build func(context.Context) (*http.Request, error)) (*TransportResponse, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	req, err := build(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := d.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes))
	if err != nil {
		return nil, err
	}
	return &TransportResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// HTTPAdapter is the browser-like adapter: cancellation is signalled through
// the request context.
type HTTPAdapter struct {
	d *httpDoer
}

// NewHTTPAdapter returns a web adapter over net/http.
func NewHTTPAdapter(opts ...AdapterOption) *HTTPAdapter {
	return &HTTPAdapter{d: newHTTPDoer(opts)}
}

func (a *HTTPAdapter) Platform() Platform { return PlatformWeb }

func (a *HTTPAdapter) Request(ctx context.Context, req *TransportRequest) Task {
	return startTask(ctx, func(ctx context.Context) (*TransportResponse, error) {
		return a.d.send(ctx, req.Timeout, func(ctx context.Context) (*http.Request, error) {
			return newHTTPRequest(ctx, req)
		})
	})
}

func (a *HTTPAdapter) Upload(ctx context.Context, req *UploadRequest) Task {
	return startTask(ctx, func(ctx context.Context) (*TransportResponse, error) {
		return a.d.send(ctx, req.Timeout, func(ctx context.Context) (*http.Request, error) {
			return newUploadRequest(ctx, req)
		})
	})
}

// RuntimeError is a failure reported by the embedded runtime. Like the
// runtime's own callbacks it carries an errMsg such as "request:fail abort".
type RuntimeError struct {
	ErrMsg string
	Cause  error
}

func (e *RuntimeError) Error() string { return e.ErrMsg }

func (e *RuntimeError) Unwrap() error { return e.Cause }

// TaskAdapter is the embedded-runtime adapter: every operation is a native
// task whose Abort makes it fail with "<api>:fail abort". The request context
// is still honoured for deadlines.
type TaskAdapter struct {
	d *httpDoer
}

// NewTaskAdapter returns a handle-based adapter over net/http.
func NewTaskAdapter(opts ...AdapterOption) *TaskAdapter {
	return &TaskAdapter{d: newHTTPDoer(opts)}
}

func (a *TaskAdapter) Platform() Platform { return PlatformEmbedded }

func (a *TaskAdapter) Request(ctx context.Context, req *TransportRequest) Task {
	return a.start(ctx, "request", func(ctx context.Context) (*TransportResponse, error) {
		return a.d.send(ctx, req.Timeout, func(ctx context.Context) (*http.Request, error) {
			return newHTTPRequest(ctx, req)
		})
	})
}

func (a *TaskAdapter) Upload(ctx context.Context, req *UploadRequest) Task {
	return a.start(ctx, "uploadFile", func(ctx context.Context) (*TransportResponse, error) {
		return a.d.send(ctx, req.Timeout, func(ctx context.Context) (*http.Request, error) {
			return newUploadRequest(ctx, req)
		})
	})
}

func (a *TaskAdapter) start(ctx context.Context, api string, fn func(context.Context) (*TransportResponse, error)) Task {
	// The native handle is detached from the caller's cancellation: only
	// Abort cancels it, which is what makes the registry's handle path real.
	nctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if dl, ok := ctx.Deadline(); ok {
		var cancelDL context.CancelFunc
		nctx, cancelDL = context.WithDeadline(nctx, dl)
		prev := cancel
		cancel = func() { cancelDL(); prev() }
	}
	aborted := make(chan struct{})
	t := &nativeTask{abort: func() {
		close(aborted)
		cancel()
	}}
	t.inner = startTask(nctx, func(ctx context.Context) (*TransportResponse, error) {
		defer cancel()
		resp, err := fn(ctx)
		if err == nil {
			return resp, nil
		}
		select {
		case <-aborted:
			return nil, &RuntimeError{ErrMsg: api + ":fail abort", Cause: err}
		default:
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &RuntimeError{ErrMsg: api + ":fail timeout", Cause: err}
		}
		return nil, &RuntimeError{ErrMsg: fmt.Sprintf("%s:fail %v", api, err), Cause: err}
	})
	return t
}

type nativeTask struct {
	inner *asyncTask
	once  sync.Once
	abort func()
}

func (t *nativeTask) Wait() (*TransportResponse, error) { return t.inner.Wait() }

func (t *nativeTask) Abort() { t.once.Do(t.abort) }
