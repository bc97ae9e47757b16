package httpx

import (
	"context"
	"net/http"
)

// Call is the handle of one dispatched request.
type Call struct {
	id     string
	client *Client
	t      *task

	done chan struct{}
	resp *Response
	err  error
}

func newCall(c *Client, t *task) *Call {
	return &Call{id: t.id, client: c, t: t, done: make(chan struct{})}
}

func (c *Call) settle(resp *Response, err error) {
	c.resp, c.err = resp, err
	close(c.done)
}

// ID returns the registry id, e.g. "req_3".
func (c *Call) ID() string { return c.id }

// Abort cancels this request. It reports false once the request has settled
// or was already aborted.
func (c *Call) Abort() bool {
	if !c.client.tasks.abortTask(c.t) {
		return false
	}
	c.client.cancelTask(c.t)
	return true
}

// Done is closed when the request settles.
func (c *Call) Done() <-chan struct{} { return c.done }

// Wait blocks until the request settles. An aborted request always returns
// an error for which IsAborted reports true.
func (c *Call) Wait() (*Response, error) {
	<-c.done
	return c.resp, c.err
}

// Decode waits and unmarshals the payload into v.
func (c *Call) Decode(v any) error {
	resp, err := c.Wait()
	if err != nil {
		return err
	}
	return resp.Decode(v)
}

// DecodeCall waits for call and decodes its payload as T.
func DecodeCall[T any](call *Call) (T, error) {
	var v T
	err := call.Decode(&v)
	return v, err
}

// Request is Dispatch with the URL given separately; cfg layers override it.
func (c *Client) Request(ctx context.Context, url string, cfg ...Config) (*Call, error) {
	return c.verb(ctx, Config{URL: url}, cfg)
}

// Get sends params as the query string.
func (c *Client) Get(ctx context.Context, url string, params any, cfg ...Config) (*Call, error) {
	return c.verb(ctx, Config{URL: url, Params: params, Method: http.MethodGet}, cfg)
}

// Post sends data as a JSON body.
func (c *Client) Post(ctx context.Context, url string, data any, cfg ...Config) (*Call, error) {
	return c.verb(ctx, Config{URL: url, Data: data, Method: http.MethodPost}, cfg)
}

func (c *Client) Put(ctx context.Context, url string, data any, cfg ...Config) (*Call, error) {
	return c.verb(ctx, Config{URL: url, Data: data, Method: http.MethodPut}, cfg)
}

func (c *Client) Delete(ctx context.Context, url string, data any, cfg ...Config) (*Call, error) {
	return c.verb(ctx, Config{URL: url, Data: data, Method: http.MethodDelete}, cfg)
}

func (c *Client) verb(ctx context.Context, base Config, cfg []Config) (*Call, error) {
	layer := base
	for _, l := range cfg {
		layer = mergeLayer(layer, l)
	}
	return c.Dispatch(ctx, layer)
}
