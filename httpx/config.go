package httpx

import (
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout is the process-wide request timeout.
const DefaultTimeout = 2 * time.Minute

// DefaultLoadingText is shown while a request with ShowLoading is in flight.
const DefaultLoadingText = "加载中..."

// RequestConfig is the effective descriptor of one call, produced by Merge.
type RequestConfig struct {
	Method  string
	URL     string
	BaseURL string
	Header  http.Header

	// Data is the query (GET/HEAD) or JSON body (other methods).
	Data any
	// Params is an alias of Data; Merge moves it into Data when Data is unset.
	Params any

	Timeout time.Duration

	ShowLoading bool
	ShowError   bool
	NeedAuth    bool

	LoadingText string
	// CustomError replaces the error message in the error toast.
	CustomError string

	// Name is the multipart field name of an upload.
	Name string
	// OnProgress receives upload progress events.
	OnProgress func(Progress)
}

// Config is one override layer. Zero values mean "not set"; the booleans are
// pointers so an explicit false can override a true default (see Bool).
type Config struct {
	Method  string
	URL     string
	BaseURL string
	Header  http.Header

	Data   any
	Params any

	Timeout time.Duration

	ShowLoading *bool
	ShowError   *bool
	NeedAuth    *bool

	LoadingText string
	CustomError string

	Name       string
	OnProgress func(Progress)
}

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// DefaultRequestConfig returns the process-wide defaults.
func DefaultRequestConfig() RequestConfig {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	return RequestConfig{
		Method:      http.MethodGet,
		Header:      h,
		Timeout:     DefaultTimeout,
		ShowLoading: true,
		ShowError:   true,
		NeedAuth:    true,
		LoadingText: DefaultLoadingText,
	}
}

// Merge layers the given overrides on top of global. Later layers win field
// by field; headers merge key by key. Merge does not modify its inputs.
func Merge(global RequestConfig, layers ...Config) RequestConfig {
	out := global
	out.Header = mergeHeader(nil, global.Header)
	for _, l := range layers {
		if l.Method != "" {
			out.Method = l.Method
		}
		if l.URL != "" {
			out.URL = l.URL
		}
		if l.BaseURL != "" {
			out.BaseURL = l.BaseURL
		}
		out.Header = mergeHeader(out.Header, l.Header)
		if l.Data != nil {
			out.Data = l.Data
		}
		if l.Params != nil {
			out.Params = l.Params
		}
		if l.Timeout != 0 {
			out.Timeout = l.Timeout
		}
		if l.ShowLoading != nil {
			out.ShowLoading = *l.ShowLoading
		}
		if l.ShowError != nil {
			out.ShowError = *l.ShowError
		}
		if l.NeedAuth != nil {
			out.NeedAuth = *l.NeedAuth
		}
		if l.LoadingText != "" {
			out.LoadingText = l.LoadingText
		}
		if l.CustomError != "" {
			out.CustomError = l.CustomError
		}
		if l.Name != "" {
			out.Name = l.Name
		}
		if l.OnProgress != nil {
			out.OnProgress = l.OnProgress
		}
	}
	if out.Params != nil && out.Data == nil {
		out.Data = out.Params
		out.Params = nil
	}
	out.Method = strings.ToUpper(strings.TrimSpace(out.Method))
	if out.Method == "" {
		out.Method = http.MethodGet
	}
	return out
}

// mergeLayer folds src into dst the same way Merge folds layers, keeping the
// result a layer (used by SetConfig).
func mergeLayer(dst, src Config) Config {
	out := dst
	out.Header = mergeHeader(mergeHeader(nil, dst.Header), src.Header)
	if src.Method != "" {
		out.Method = src.Method
	}
	if src.URL != "" {
		out.URL = src.URL
	}
	if src.BaseURL != "" {
		out.BaseURL = src.BaseURL
	}
	if src.Data != nil {
		out.Data = src.Data
	}
	if src.Params != nil {
		out.Params = src.Params
	}
	if src.Timeout != 0 {
		out.Timeout = src.Timeout
	}
	if src.ShowLoading != nil {
		out.ShowLoading = Bool(*src.ShowLoading)
	}
	if src.ShowError != nil {
		out.ShowError = Bool(*src.ShowError)
	}
	if src.NeedAuth != nil {
		out.NeedAuth = Bool(*src.NeedAuth)
	}
	if src.LoadingText != "" {
		out.LoadingText = src.LoadingText
	}
	if src.CustomError != "" {
		out.CustomError = src.CustomError
	}
	if src.Name != "" {
		out.Name = src.Name
	}
	if src.OnProgress != nil {
		out.OnProgress = src.OnProgress
	}
	return out
}

// mergeHeader copies src into dst, replacing values per canonical key.
// dst may be nil, in which case a new header is allocated.
func mergeHeader(dst, src http.Header) http.Header {
	if dst == nil {
		dst = make(http.Header, len(src))
	}
	for k, vv := range src {
		ck := http.CanonicalHeaderKey(k)
		if k != ck {
			delete(dst, k)
		}
		dst[ck] = append([]string(nil), vv...)
	}
	return dst
}

func (c *RequestConfig) clone() *RequestConfig {
	out := *c
	out.Header = mergeHeader(nil, c.Header)
	return &out
}

// isAbsoluteURL reports whether u starts with a scheme ("http:", "https:", ...).
func isAbsoluteURL(u string) bool {
	i := strings.Index(u, "://")
	if i <= 0 {
		return false
	}
	for _, r := range u[:i] {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.') {
			return false
		}
	}
	return true
}

// fullURL prefixes relative URLs with baseURL.
func fullURL(baseURL, u string) string {
	if baseURL == "" || isAbsoluteURL(u) {
		return u
	}
	switch {
	case strings.HasSuffix(baseURL, "/") && strings.HasPrefix(u, "/"):
		return baseURL + u[1:]
	case !strings.HasSuffix(baseURL, "/") && !strings.HasPrefix(u, "/") && u != "":
		return baseURL + "/" + u
	default:
		return baseURL + u
	}
}
