package httpx

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Ducr/taro-mobile-open/notify"
	"github.com/Ducr/taro-mobile-open/storage"
)

// Client dispatches requests through the interceptor chains and tracks every
// in-flight request in a registry keyed by id. It is safe for concurrent use.
type Client struct {
	adapter   Adapter
	newCancel cancelerFactory

	store     storage.Store
	notifier  notify.Notifier
	navigator notify.Navigator
	logger    *zap.Logger
	metrics   *Metrics
	success   SuccessFunc
	messages  Messages

	loginPath string
	tokenKey  string
	userAgent string
	trace     TraceConfig

	global RequestConfig

	mu       sync.RWMutex
	instance Config

	requests  chain[*RequestConfig]
	responses chain[*Response]
	errs      chain[error]

	ids   idCounter
	tasks *registry
}

// New constructs a Client and installs the built-in interceptors (auth,
// envelope, error notification) ahead of any caller-registered ones.
func New(opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt.apply(&o)
		}
	}
	if o.adapter == nil {
		o.adapter = NewHTTPAdapter()
	}
	p := o.adapter.Platform()
	if p != PlatformWeb && p != PlatformEmbedded {
		return nil, fmt.Errorf("httpx: unsupported platform %q", p)
	}
	if o.store == nil {
		o.store = storage.NewMemory()
	}
	if o.notifier == nil {
		o.notifier = notify.Nop()
	}
	if o.navigator == nil {
		o.navigator = notify.NopNavigator()
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.success == nil {
		o.success = DefaultSuccess
	}
	if o.trace.Header != "" && o.trace.New == nil {
		o.trace.New = DefaultTraceID
	}

	c := &Client{
		adapter:   o.adapter,
		newCancel: cancelerFor(p),
		store:     o.store,
		notifier:  o.notifier,
		navigator: o.navigator,
		logger:    o.logger.With(zap.String("platform", string(p))),
		metrics:   o.metrics,
		success:   o.success,
		messages:  o.messages,
		loginPath: o.loginPath,
		tokenKey:  o.tokenKey,
		userAgent: o.userAgent,
		trace:     o.trace,
		global:    o.global,
		instance:  mergeLayer(Config{}, o.instance),
		tasks:     newRegistry(),
	}
	c.requests.add(c.authInterceptor())
	c.responses.add(c.envelopeInterceptor())
	c.errs.add(c.notifyInterceptor())
	return c, nil
}

// Platform reports the adapter's platform.
func (c *Client) Platform() Platform { return c.adapter.Platform() }

// AddRequestInterceptor appends to the request chain.
func (c *Client) AddRequestInterceptor(i RequestInterceptor) *Client {
	c.requests.add(i)
	return c
}

// AddResponseInterceptor appends to the response chain.
func (c *Client) AddResponseInterceptor(i ResponseInterceptor) *Client {
	c.responses.add(i)
	return c
}

// AddErrorInterceptor appends to the error chain.
func (c *Client) AddErrorInterceptor(i ErrorInterceptor) *Client {
	c.errs.add(i)
	return c
}

// SetConfig merges cfg into the instance layer.
func (c *Client) SetConfig(cfg Config) *Client {
	c.mu.Lock()
	c.instance = mergeLayer(c.instance, cfg)
	c.mu.Unlock()
	return c
}

// SetBaseURL replaces the instance base URL; "" clears it.
func (c *Client) SetBaseURL(baseURL string) *Client {
	c.mu.Lock()
	c.instance.BaseURL = baseURL
	c.mu.Unlock()
	return c
}

// SetTimeout replaces the instance timeout; 0 falls back to the global one.
func (c *Client) SetTimeout(d time.Duration) *Client {
	c.mu.Lock()
	c.instance.Timeout = d
	c.mu.Unlock()
	return c
}

// SetToken stores the auth token. Storage failures are logged.
func (c *Client) SetToken(token string) *Client {
	if err := c.store.Set(context.Background(), c.tokenKey, token); err != nil {
		c.logger.Warn("store token failed", zap.Error(err))
	}
	return c
}

// RemoveToken deletes the auth token. Storage failures are logged.
func (c *Client) RemoveToken() *Client {
	c.removeToken(context.Background())
	return c
}

func (c *Client) removeToken(ctx context.Context) {
	if err := c.store.Remove(ctx, c.tokenKey); err != nil {
		c.logger.Warn("remove token failed", zap.Error(err))
	}
}

// Defaults returns a copy of the instance layer.
func (c *Client) Defaults() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return mergeLayer(Config{}, c.instance)
}

// effective merges global, instance and the call layers.
func (c *Client) effective(layers ...Config) RequestConfig {
	c.mu.RLock()
	inst := c.instance
	c.mu.RUnlock()
	return Merge(c.global, append([]Config{inst}, layers...)...)
}

// Abort cancels the in-flight request id. It reports false, and logs, when
// id is not registered (unknown or already settled).
func (c *Client) Abort(id string) bool {
	t, ok := c.tasks.abort(id)
	if !ok {
		c.logger.Warn("abort: no such request", zap.String("request_id", id))
		return false
	}
	c.cancelTask(t)
	return true
}

func (c *Client) cancelTask(t *task) {
	t.cancel.Cancel()
	c.metrics.abort(t.method)
	c.logger.Debug("request aborted", zap.String("request_id", t.id))
}

// AbortAll aborts every request registered at the time of the call and
// returns how many were aborted.
func (c *Client) AbortAll() int {
	n := 0
	for _, id := range c.tasks.ids() {
		if c.Abort(id) {
			n++
		}
	}
	c.logger.Info("aborted requests", zap.Int("count", n))
	return n
}

// ListActive returns the ids of in-flight requests in dispatch order.
func (c *Client) ListActive() []string {
	return c.tasks.ids()
}

// Dispatch starts a request with a fresh id. The only synchronous error is
// ErrEmptyURL; everything else settles on the returned Call.
func (c *Client) Dispatch(ctx context.Context, cfg Config) (*Call, error) {
	return c.DispatchWithID(ctx, "", cfg)
}

// DispatchWithID is Dispatch with a caller-chosen id. An empty id allocates
// the next req_<n>.
func (c *Client) DispatchWithID(ctx context.Context, id string, cfg Config) (*Call, error) {
	eff := c.effective(cfg)
	if strings.TrimSpace(eff.URL) == "" {
		return nil, ErrEmptyURL
	}
	return c.start(ctx, id, &eff, c.execute), nil
}

type executor func(ctx context.Context, t *task) (*Response, error)

func (c *Client) start(ctx context.Context, id string, cfg *RequestConfig, exec executor) *Call {
	if ctx == nil {
		ctx = context.Background()
	}
	var seq uint64
	if id == "" {
		id, seq = c.ids.next()
	} else {
		seq = seqOf(id)
	}
	dctx, cn := c.newCancel(ctx)
	t := &task{id: id, seq: seq, method: cfg.Method, cfg: cfg, cancel: cn}
	c.tasks.add(t)

	call := newCall(c, t)
	go c.run(ctx, dctx, t, call, exec)
	return call
}

// run owns the whole lifetime of one registered task. Every exit path goes
// through the deferred block.
func (c *Client) run(parent, ctx context.Context, t *task, call *Call, exec executor) {
	begin := time.Now()
	c.metrics.start(t.method)

	var (
		resp *Response
		err  error
	)
	defer func() {
		t.hideLoading()
		c.tasks.removeTask(t)
		if t.wasAborted() && !IsAborted(err) {
			resp, err = nil, &AbortedError{Cause: err}
		}
		t.release()
		c.metrics.finish(t.method, statusOf(resp, err), outcomeOf(err), time.Since(begin))
		call.settle(resp, err)
	}()

	// Cancelling the caller's context behaves like Abort.
	stop := context.AfterFunc(parent, func() {
		if c.tasks.abortTask(t) {
			c.cancelTask(t)
		}
	})
	defer stop()

	ctx = withRequestID(ctx, t.id)
	func() {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("request pipeline panicked", zap.String("request_id", t.id), zap.Any("panic", r))
				resp, err = nil, panicError(r)
			}
		}()
		resp, err = exec(ctx, t)
	}()
}

func (c *Client) execute(ctx context.Context, t *task) (*Response, error) {
	cfg, err := c.requests.run(ctx, t.cfg.clone(), nil, t.cfg)
	if err != nil {
		return c.fail(ctx, t, err, t.cfg)
	}
	if cfg == nil {
		cfg = t.cfg
	}

	if cfg.ShowLoading {
		t.setLoading(c.notifier.ShowLoading(cfg.LoadingText))
	}
	if t.wasAborted() {
		return nil, &AbortedError{}
	}

	url := fullURL(cfg.BaseURL, cfg.URL)
	c.logger.Debug("dispatch",
		zap.String("request_id", t.id),
		zap.String("method", cfg.Method),
		zap.String("url", url),
	)
	handle := c.adapter.Request(ctx, &TransportRequest{
		Method:  cfg.Method,
		URL:     url,
		Header:  c.outgoingHeader(cfg.Header),
		Data:    cfg.Data,
		Timeout: cfg.Timeout,
	})
	t.attach(handle)

	tr, err := handle.Wait()
	if err != nil {
		if t.wasAborted() || looksAborted(c.adapter.Platform(), err) {
			return nil, abortedFrom(err, "")
		}
		return c.fail(ctx, t, newTransportError(c.messages.NetworkError, cfg.Method, url, err), cfg)
	}
	if t.wasAborted() {
		return nil, &AbortedError{}
	}

	in := &Response{StatusCode: tr.StatusCode, Header: tr.Header, Body: tr.Body}
	out, err := c.responses.run(ctx, in, nil, cfg)
	if err != nil {
		return c.fail(ctx, t, err, cfg)
	}
	if out == nil {
		out = in
	}
	return out, nil
}

// fail runs the error chain. Aborted work bypasses it.
func (c *Client) fail(ctx context.Context, t *task, err error, cfg *RequestConfig) (*Response, error) {
	if t.wasAborted() || IsAborted(err) {
		return nil, abortedFrom(err, "")
	}
	if err = c.runErrors(ctx, err, cfg); err != nil {
		return nil, err
	}
	c.logger.Debug("error recovered by interceptor", zap.String("request_id", t.id))
	return &Response{}, nil
}

// runErrors passes err through the error chain. The value flowing is the
// error itself: a link that returns a nil error value recovers, and a link
// that fails replaces the error and routes it to the next Rejected.
func (c *Client) runErrors(ctx context.Context, err error, cfg *RequestConfig) error {
	cur, failed := err, false
	for _, l := range c.errs.snapshot() {
		fn := l.Fulfilled
		if failed {
			fn = l.Rejected
		}
		if fn == nil {
			continue
		}
		v, ferr := callLink(fn, ctx, cur, cfg)
		if ferr != nil {
			cur, failed = ferr, true
			continue
		}
		if v == nil {
			return nil
		}
		cur, failed = v, false
	}
	return cur
}

func (c *Client) outgoingHeader(h http.Header) http.Header {
	out := mergeHeader(nil, h)
	if c.userAgent != "" && out.Get("User-Agent") == "" {
		out.Set("User-Agent", c.userAgent)
	}
	if c.trace.Header != "" && out.Get(c.trace.Header) == "" {
		if id := strings.TrimSpace(c.trace.New()); id != "" {
			out.Set(c.trace.Header, id)
		}
	}
	return out
}
