package httpx

import (
	"time"

	"go.uber.org/zap"

	"github.com/Ducr/taro-mobile-open/notify"
	"github.com/Ducr/taro-mobile-open/storage"
)

// DefaultLoginPath is where a 401 response sends the user.
const DefaultLoginPath = "/pages/login/index"

type Option interface{ apply(*options) }

type optionFunc func(*options)

func (f optionFunc) apply(o *options) { f(o) }

type options struct {
	adapter   Adapter
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

	global   RequestConfig
	instance Config
}

func defaultOptions() options {
	return options{
		success:   DefaultSuccess,
		messages:  DefaultMessages(),
		loginPath: DefaultLoginPath,
		tokenKey:  storage.KeyToken,
		trace:     DefaultTraceConfig(),
		global:    DefaultRequestConfig(),
	}
}

// WithAdapter selects the platform adapter. The default is NewHTTPAdapter().
func WithAdapter(a Adapter) Option {
	return optionFunc(func(o *options) { o.adapter = a })
}

// WithStore sets the token storage. The default is an in-memory store.
func WithStore(s storage.Store) Option {
	return optionFunc(func(o *options) { o.store = s })
}

func WithNotifier(n notify.Notifier) Option {
	return optionFunc(func(o *options) { o.notifier = n })
}

func WithNavigator(n notify.Navigator) Option {
	return optionFunc(func(o *options) { o.navigator = n })
}

func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) { o.logger = l })
}

// WithMetrics enables Prometheus metrics; see NewMetrics.
func WithMetrics(m *Metrics) Option {
	return optionFunc(func(o *options) { o.metrics = m })
}

// WithSuccessFunc overrides which envelope codes count as success.
func WithSuccessFunc(f SuccessFunc) Option {
	return optionFunc(func(o *options) { o.success = f })
}

func WithLoginPath(path string) Option {
	return optionFunc(func(o *options) { o.loginPath = path })
}

// WithTokenKey changes the storage key of the auth token.
func WithTokenKey(key string) Option {
	return optionFunc(func(o *options) { o.tokenKey = key })
}

func WithUserAgent(ua string) Option {
	return optionFunc(func(o *options) { o.userAgent = ua })
}

// WithTrace configures the correlation header. An empty Header disables it.
func WithTrace(cfg TraceConfig) Option {
	return optionFunc(func(o *options) { o.trace = cfg })
}

// WithGlobalConfig replaces the process-wide defaults layer.
func WithGlobalConfig(cfg RequestConfig) Option {
	return optionFunc(func(o *options) { o.global = cfg })
}

// WithDefaults merges cfg into the instance layer.
func WithDefaults(cfg Config) Option {
	return optionFunc(func(o *options) { o.instance = mergeLayer(o.instance, cfg) })
}

func WithBaseURL(baseURL string) Option {
	return optionFunc(func(o *options) { o.instance.BaseURL = baseURL })
}

func WithTimeout(d time.Duration) Option {
	return optionFunc(func(o *options) { o.instance.Timeout = d })
}

// WithMessages overrides the user-facing error texts; empty fields keep the
// English defaults.
func WithMessages(m Messages) Option {
	return optionFunc(func(o *options) { o.messages = m.merge(DefaultMessages()) })
}
