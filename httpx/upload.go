package httpx

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// MethodUpload labels uploads in the registry and in metrics.
const MethodUpload = "UPLOAD"

// Upload sends filePath as multipart/form-data together with formData. It
// shares the registry and id space with Dispatch but has its own pipeline:
// the request chain runs (so the auth header is set), the response and error
// chains do not, and no loading indicator or toast is shown.
//
// A 200 response resolves with the body as Data (a non-JSON body becomes a
// JSON string). Any other outcome is a *RequestError with CodeUploadError,
// or an *AbortedError when cancelled.
func (c *Client) Upload(ctx context.Context, url, filePath string, formData map[string]string, cfg ...Config) (*Call, error) {
	layer := Config{URL: url, Method: http.MethodPost}
	for _, l := range cfg {
		layer = mergeLayer(layer, l)
	}
	eff := c.effective(layer)
	if strings.TrimSpace(eff.URL) == "" {
		return nil, ErrEmptyURL
	}
	eff.Method = MethodUpload
	eff.ShowLoading = false
	eff.ShowError = false

	form := make(map[string]string, len(formData))
	for k, v := range formData {
		form[k] = v
	}
	return c.start(ctx, "", &eff, func(ctx context.Context, t *task) (*Response, error) {
		return c.executeUpload(ctx, t, filePath, form)
	}), nil
}

func (c *Client) executeUpload(ctx context.Context, t *task, filePath string, form map[string]string) (*Response, error) {
	url := fullURL(t.cfg.BaseURL, t.cfg.URL)
	uploadErr := func(msg string, status int, cause error) *RequestError {
		return &RequestError{
			Kind:       KindUpload,
			Message:    msg,
			Code:       CodeUploadError,
			StatusCode: status,
			Method:     http.MethodPost,
			URL:        url,
			Cause:      cause,
		}
	}

	cfg, err := c.requests.run(ctx, t.cfg.clone(), nil, t.cfg)
	if err != nil {
		if IsAborted(err) {
			return nil, abortedFrom(err, "upload aborted")
		}
		return nil, uploadErr(c.messages.UploadFailed, 0, err)
	}
	if cfg == nil {
		cfg = t.cfg
	}
	if t.wasAborted() {
		return nil, &AbortedError{Message: "upload aborted"}
	}

	header := c.outgoingHeader(cfg.Header)
	header.Del("Content-Type")
	c.logger.Debug("upload",
		zap.String("request_id", t.id),
		zap.String("url", url),
		zap.String("file", filePath),
	)
	handle := c.adapter.Upload(ctx, &UploadRequest{
		URL:        url,
		FilePath:   filePath,
		Name:       cfg.Name,
		FormData:   form,
		Header:     header,
		Timeout:    cfg.Timeout,
		OnProgress: cfg.OnProgress,
	})
	t.attach(handle)

	tr, err := handle.Wait()
	if err != nil {
		if t.wasAborted() || looksAborted(c.adapter.Platform(), err) {
			return nil, abortedFrom(err, "upload aborted")
		}
		c.logger.Error("upload failed", zap.String("request_id", t.id), zap.Error(err))
		return nil, uploadErr(c.messages.UploadFailed, 0, err)
	}
	if t.wasAborted() {
		return nil, &AbortedError{Message: "upload aborted"}
	}
	if tr.StatusCode != http.StatusOK {
		return nil, uploadErr(fmt.Sprintf(c.messages.UploadStatus, tr.StatusCode), tr.StatusCode, nil)
	}
	return &Response{
		StatusCode: tr.StatusCode,
		Header:     tr.Header,
		Body:       tr.Body,
		Data:       rawOrString(tr.Body),
	}, nil
}
