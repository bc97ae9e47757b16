// Package httpx is the request layer of the bidding mini-program:
// - layered configuration (global, instance, per call) merged per request
// - request / response / error interceptor chains with built-in auth,
//   envelope unwrapping and error notification
// - a registry of in-flight requests addressable by "req_<n>" ids, with
//   Abort / AbortAll over either a context signal or a native task handle
// - loading indicator lifecycle, verb shortcuts and multipart upload
// - typed errors (RequestError, AbortedError) and Prometheus metrics
package httpx
