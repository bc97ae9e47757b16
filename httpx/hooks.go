package httpx

import (
	"context"
	"fmt"
	"net/http"
	"sync"
)

// Interceptor is one link of an interceptor chain. Fulfilled transforms the
// value produced by the previous link. Rejected runs instead when an earlier
// link failed; returning a nil error recovers the chain. Either may be nil.
type Interceptor[T any] struct {
	Fulfilled func(ctx context.Context, v T, cfg *RequestConfig) (T, error)
	Rejected  func(ctx context.Context, err error, cfg *RequestConfig) (T, error)
}

type (
	// RequestInterceptor transforms the effective config before dispatch.
	RequestInterceptor = Interceptor[*RequestConfig]
	// ResponseInterceptor transforms the transport response on success.
	ResponseInterceptor = Interceptor[*Response]
	// ErrorInterceptor transforms the error on failure. The value flowing
	// through the chain is the error itself; a link that returns a nil
	// error value and no failure recovers the request.
	ErrorInterceptor = Interceptor[error]
)

// chain is an append-only list of interceptors.
type chain[T any] struct {
	mu    sync.RWMutex
	links []Interceptor[T]
}

func (c *chain[T]) add(i Interceptor[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.links = append(c.links, i)
}

func (c *chain[T]) snapshot() []Interceptor[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.links[:len(c.links):len(c.links)]
}

func (c *chain[T]) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.links)
}

// run executes the links in registration order starting from (v, err).
func (c *chain[T]) run(ctx context.Context, v T, err error, cfg *RequestConfig) (T, error) {
	for _, l := range c.snapshot() {
		if err != nil {
			if l.Rejected != nil {
				v, err = callLink(l.Rejected, ctx, err, cfg)
			}
			continue
		}
		if l.Fulfilled != nil {
			v, err = callLink(l.Fulfilled, ctx, v, cfg)
		}
	}
	return v, err
}

// callLink runs one interceptor function; a panic becomes the link's error.
func callLink[In, Out any](fn func(context.Context, In, *RequestConfig) (Out, error), ctx context.Context, in In, cfg *RequestConfig) (out Out, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return fn(ctx, in, cfg)
}

func panicError(r any) error {
	return fmt.Errorf("httpx: interceptor panic: %v", r)
}

// Middleware wraps the RoundTripper used by the HTTP adapter.
type Middleware func(next http.RoundTripper) http.RoundTripper

func chainMiddleware(rt http.RoundTripper, mws []Middleware) http.RoundTripper {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		rt = mws[i](rt)
	}
	return rt
}
