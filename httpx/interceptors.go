package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/Ducr/taro-mobile-open/notify"
)

// authInterceptor adds "Authorization: Bearer <token>" when NeedAuth is set
// and a token is stored.
func (c *Client) authInterceptor() RequestInterceptor {
	return RequestInterceptor{
		Fulfilled: func(ctx context.Context, v *RequestConfig, _ *RequestConfig) (*RequestConfig, error) {
			if !v.NeedAuth {
				return v, nil
			}
			token, ok, err := c.store.Get(ctx, c.tokenKey)
			if err != nil {
				c.logger.Warn("read token failed", zap.Error(err))
				return v, nil
			}
			if ok && token != "" {
				if v.Header == nil {
					v.Header = make(http.Header)
				}
				v.Header.Set("Authorization", "Bearer "+token)
			}
			return v, nil
		},
	}
}

// envelopeInterceptor unwraps {code, message|msg, data}. Only status 200 with
// a success code resolves.
func (c *Client) envelopeInterceptor() ResponseInterceptor {
	return ResponseInterceptor{
		Fulfilled: func(_ context.Context, r *Response, cfg *RequestConfig) (*Response, error) {
			url := fullURL(cfg.BaseURL, cfg.URL)
			if r.StatusCode != http.StatusOK {
				return nil, &RequestError{
					Kind:       KindTransport,
					Message:    fmt.Sprintf(c.messages.HTTPError, r.StatusCode),
					Code:       CodeHTTPError,
					StatusCode: r.StatusCode,
					Method:     cfg.Method,
					URL:        url,
				}
			}

			var env Envelope
			if err := json.Unmarshal(r.Body, &env); err != nil {
				return nil, &RequestError{
					Kind:       KindBusiness,
					Message:    c.messages.BusinessError,
					StatusCode: r.StatusCode,
					Method:     cfg.Method,
					URL:        url,
					Cause:      err,
				}
			}
			if !c.success(env.Code) {
				msg := env.Text()
				if msg == "" {
					msg = c.messages.BusinessError
				}
				return nil, &RequestError{
					Kind:       KindBusiness,
					Message:    msg,
					Code:       env.Code,
					StatusCode: r.StatusCode,
					Method:     cfg.Method,
					URL:        url,
				}
			}

			r.Envelope = &env
			if isNullJSON(env.Data) {
				r.Data = rawOrString(r.Body)
			} else {
				r.Data = env.Data
			}
			return r, nil
		},
	}
}

// notifyInterceptor logs and toasts failures and sends the user to the login
// page on 401. Aborted requests pass through untouched.
func (c *Client) notifyInterceptor() ErrorInterceptor {
	return ErrorInterceptor{
		Fulfilled: func(ctx context.Context, err error, cfg *RequestConfig) (error, error) {
			if IsAborted(err) {
				return err, nil
			}
			id, _ := RequestIDFrom(ctx)
			c.logger.Error("request failed",
				zap.String("request_id", id),
				zap.String("method", cfg.Method),
				zap.String("url", cfg.URL),
				zap.Error(err),
			)

			if cfg.ShowError {
				msg := cfg.CustomError
				if msg == "" {
					msg = errorText(err)
				}
				if msg == "" {
					msg = c.messages.RequestFailed
				}
				c.notifier.Toast(msg, notify.VariantNone, notify.DefaultToastDuration)
			}

			if IsStatus(err, http.StatusUnauthorized) {
				c.removeToken(ctx)
				c.navigator.Redirect(c.loginPath)
			}
			return err, nil
		},
	}
}

func errorText(err error) string {
	if re, ok := AsRequestError(err); ok {
		return re.Message
	}
	return err.Error()
}
