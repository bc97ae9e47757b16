package httpx

import (
	"context"
	"math"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

const requestIDPrefix = "req_"

// idCounter hands out req_<n> ids. The counter belongs to one client and is
// never reset, so an id is never reused within the client's lifetime.
type idCounter struct {
	n atomic.Uint64
}

func (c *idCounter) next() (string, uint64) {
	n := c.n.Add(1) - 1
	return requestIDPrefix + strconv.FormatUint(n, 10), n
}

// seqOf orders caller-supplied ids after generated ones.
func seqOf(id string) uint64 {
	if n, ok := idSeq(id); ok {
		return n
	}
	return math.MaxUint64
}

type requestIDKey struct{}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the registry id of the request an interceptor is
// running for.
func RequestIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok
}

type TraceIDFunc func() string

// TraceConfig controls the correlation header sent with every request. It is
// independent of the req_<n> id, which only has meaning inside this process.
type TraceConfig struct {
	// Header carries the trace id, e.g. "X-Request-ID". Empty disables it.
	Header string

	// New generates a trace id when the header is missing. Nil uses uuid.
	New TraceIDFunc
}

func DefaultTraceConfig() TraceConfig {
	return TraceConfig{
		Header: "X-Request-ID",
		New:    DefaultTraceID,
	}
}

// DefaultTraceID returns a random UUID.
func DefaultTraceID() string {
	return uuid.NewString()
}
