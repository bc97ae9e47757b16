package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// carriesQuery reports whether data travels in the query string for method.
func carriesQuery(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

// toValues flattens data into query values. It accepts url.Values,
// map[string]string, map[string]any, and anything that marshals to a JSON
// object; nested values are sent as their JSON text.
func toValues(data any) (url.Values, error) {
	switch d := data.(type) {
	case nil:
		return nil, nil
	case url.Values:
		return d, nil
	case map[string]string:
		v := make(url.Values, len(d))
		for k, s := range d {
			v.Set(k, s)
		}
		return v, nil
	}

	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("httpx: encode query: %w", err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("httpx: query data must be an object: %w", err)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	v := make(url.Values, len(m))
	for _, k := range keys {
		raw := bytes.TrimSpace(m[k])
		if bytes.Equal(raw, []byte("null")) {
			continue
		}
		var s string
		if len(raw) > 0 && raw[0] == '"' {
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, err
			}
		} else {
			s = string(raw)
		}
		v.Set(k, s)
	}
	return v, nil
}

func newHTTPRequest(ctx context.Context, req *TransportRequest) (*http.Request, error) {
	u := req.URL
	var body io.Reader
	var bodyBytes []byte

	if carriesQuery(req.Method) {
		q, err := toValues(req.Data)
		if err != nil {
			return nil, err
		}
		if len(q) > 0 {
			pu, err := url.Parse(u)
			if err != nil {
				return nil, err
			}
			qq := pu.Query()
			for k, vv := range q {
				for _, v := range vv {
					qq.Add(k, v)
				}
			}
			pu.RawQuery = qq.Encode()
			u = pu.String()
		}
	} else if req.Data != nil {
		switch d := req.Data.(type) {
		case []byte:
			bodyBytes = d
		case json.RawMessage:
			bodyBytes = d
		case string:
			bodyBytes = []byte(d)
		default:
			b, err := json.Marshal(d)
			if err != nil {
				return nil, fmt.Errorf("httpx: encode body: %w", err)
			}
			bodyBytes = b
		}
		body = bytes.NewReader(bodyBytes)
	}

	hr, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return nil, err
	}
	if bodyBytes != nil {
		b := bodyBytes
		hr.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(b)), nil
		}
	}
	for k, vv := range req.Header {
		hr.Header.Del(k)
		for _, v := range vv {
			hr.Header.Add(k, v)
		}
	}
	if hr.Header.Get("Accept") == "" {
		hr.Header.Set("Accept", "application/json")
	}
	return hr, nil
}

// progressReader reports bytes read through onRead.
type progressReader struct {
	r      io.Reader
	total  int64
	mu     sync.Mutex
	read   int64
	onRead func(Progress)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.onRead != nil {
		p.mu.Lock()
		p.read += int64(n)
		ev := Progress{TotalBytesSent: p.read, TotalBytesExpectedToSend: p.total}
		p.mu.Unlock()
		if ev.TotalBytesExpectedToSend > 0 {
			ev.Progress = int(ev.TotalBytesSent * 100 / ev.TotalBytesExpectedToSend)
		}
		p.onRead(ev)
	}
	return n, err
}

// newUploadRequest streams the file as multipart/form-data. The returned
// request owns the open file; it is closed once the body has been written.
func newUploadRequest(ctx context.Context, req *UploadRequest) (*http.Request, error) {
	f, err := os.Open(req.FilePath)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	name := req.Name
	if name == "" {
		name = "file"
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		defer f.Close()
		err := func() error {
			keys := make([]string, 0, len(req.FormData))
			for k := range req.FormData {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if err := mw.WriteField(k, req.FormData[k]); err != nil {
					return err
				}
			}
			part, err := mw.CreateFormFile(name, filepath.Base(req.FilePath))
			if err != nil {
				return err
			}
			src := &progressReader{r: f, total: st.Size(), onRead: req.OnProgress}
			if _, err := io.Copy(part, src); err != nil {
				return err
			}
			return mw.Close()
		}()
		_ = pw.CloseWithError(err)
	}()

	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, pr)
	if err != nil {
		_ = pr.CloseWithError(err)
		return nil, err
	}
	for k, vv := range req.Header {
		hr.Header.Del(k)
		for _, v := range vv {
			hr.Header.Add(k, v)
		}
	}
	hr.Header.Set("Content-Type", mw.FormDataContentType())
	return hr, nil
}
