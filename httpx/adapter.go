package httpx

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Platform identifies the hosting environment of an adapter. It decides how
// in-flight requests are cancelled.
type Platform string

const (
	// PlatformWeb cancels through the request context (an abort signal).
	PlatformWeb Platform = "web"
	// PlatformEmbedded cancels through the native task handle's Abort.
	PlatformEmbedded Platform = "embedded"
)

// ParsePlatform maps "web"/"h5" and "embedded"/"weapp" to a Platform.
func ParsePlatform(s string) (Platform, bool) {
	switch s {
	case "web", "h5", "":
		return PlatformWeb, true
	case "embedded", "weapp", "miniprogram":
		return PlatformEmbedded, true
	}
	return "", false
}

// TransportRequest is what the adapter sends. URL is absolute.
type TransportRequest struct {
	Method  string
	URL     string
	Header  http.Header
	Data    any
	Timeout time.Duration
}

// TransportResponse is what the adapter received. Any status is a response;
// interpreting it is the response interceptors' job.
type TransportResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// UploadRequest describes a multipart file upload.
type UploadRequest struct {
	URL      string
	FilePath string
	// Name is the multipart field name of the file.
	Name     string
	FormData map[string]string
	Header   http.Header
	Timeout  time.Duration

	OnProgress func(Progress)
}

// Progress is an upload progress event.
type Progress struct {
	// Progress is the percentage sent, 0..100.
	Progress                 int
	TotalBytesSent           int64
	TotalBytesExpectedToSend int64
}

// Task is the native handle of one transport operation.
type Task interface {
	// Wait blocks until the operation settles.
	Wait() (*TransportResponse, error)
	// Abort cancels the operation. It is safe to call at any time, repeatedly.
	Abort()
}

// Adapter is the platform request primitive. Request and Upload start the
// operation and return immediately.
type Adapter interface {
	Platform() Platform
	Request(ctx context.Context, req *TransportRequest) Task
	Upload(ctx context.Context, req *UploadRequest) Task
}

// asyncTask runs one operation on its own goroutine.
type asyncTask struct {
	cancel context.CancelFunc
	done   chan struct{}
	resp   *TransportResponse
	err    error
}

func startTask(ctx context.Context, fn func(ctx context.Context) (*TransportResponse, error)) *asyncTask {
	ctx, cancel := context.WithCancel(ctx)
	t := &asyncTask{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(t.done)
		defer cancel()
		t.resp, t.err = fn(ctx)
	}()
	return t
}

func (t *asyncTask) Wait() (*TransportResponse, error) {
	<-t.done
	return t.resp, t.err
}

func (t *asyncTask) Abort() { t.cancel() }

// NewAdapter returns the net/http adapter for p.
func NewAdapter(p Platform, opts ...AdapterOption) (Adapter, error) {
	switch p {
	case PlatformWeb:
		return NewHTTPAdapter(opts...), nil
	case PlatformEmbedded:
		return NewTaskAdapter(opts...), nil
	}
	return nil, fmt.Errorf("httpx: unsupported platform %q", p)
}
