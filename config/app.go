package config

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Ducr/taro-mobile-open/httpx"
	"github.com/Ducr/taro-mobile-open/observability"
	"github.com/Ducr/taro-mobile-open/storage"
)

// EnvPrefix 环境变量前缀
const EnvPrefix = "BIDCTL"

// App 应用配置
type App struct {
	BaseURL  string        `mapstructure:"base_url" json:"base_url"`
	Platform string        `mapstructure:"platform" json:"platform"`
	Timeout  time.Duration `mapstructure:"timeout" json:"timeout"`

	UI      UIConfig                `mapstructure:"ui" json:"ui"`
	Auth    AuthConfig              `mapstructure:"auth" json:"auth"`
	Storage storage.Config          `mapstructure:"storage" json:"storage"`
	Log     observability.LogConfig `mapstructure:"log" json:"log"`
}

// UIConfig 加载提示与错误提示
type UIConfig struct {
	ShowLoading bool   `mapstructure:"show_loading" json:"show_loading"`
	LoadingText string `mapstructure:"loading_text" json:"loading_text"`
	ShowError   bool   `mapstructure:"show_error" json:"show_error"`
	// Language 错误提示文案的语言，zh 或 en
	Language    string `mapstructure:"language" json:"language"`
}

// AuthConfig token 存储键与登录页
type AuthConfig struct {
	TokenKey  string `mapstructure:"token_key" json:"token_key"`
	LoginPath string `mapstructure:"login_path" json:"login_path"`
}

// AppDefaults 返回 App 的默认值，键与 mapstructure 标签一致
func AppDefaults() map[string]any {
	return map[string]any{
		"base_url":             "",
		"platform":             string(httpx.PlatformWeb),
		"timeout":              httpx.DefaultTimeout,
		"ui.show_loading":      true,
		"ui.loading_text":      httpx.DefaultLoadingText,
		"ui.show_error":        true,
		"ui.language":          "zh",
		"auth.token_key":       storage.KeyToken,
		"auth.login_path":      httpx.DefaultLoginPath,
		"storage.driver":       storage.DriverFile,
		"storage.path":         "",
		"storage.redis.host":   "",
		"storage.redis.port":   6379,
		"storage.redis.db":     0,
		"storage.redis.prefix": "bid:",
		"log.level":            "warn",
		"log.format":           "console",
		"log.outputs":          []string{"stderr"},
	}
}

// LoadApp 加载应用配置，path 可为空
func LoadApp(path string, logger *zap.Logger) (*Config[App], error) {
	return Load(path,
		WithDefaults[App](AppDefaults()),
		WithEnv[App](EnvPrefix),
		WithLogger[App](logger),
	)
}

// Validate 检查配置是否可用
func (a App) Validate() error {
	if _, ok := httpx.ParsePlatform(a.Platform); !ok {
		return fmt.Errorf("config: unknown platform %q", a.Platform)
	}
	if a.Timeout < 0 {
		return fmt.Errorf("config: negative timeout %s", a.Timeout)
	}
	return nil
}

// ClientOptions 把配置转换为创建客户端时的选项
func (a App) ClientOptions() []httpx.Option {
	return []httpx.Option{
		httpx.WithDefaults(a.layer()),
		httpx.WithTokenKey(a.Auth.TokenKey),
		httpx.WithLoginPath(a.Auth.LoginPath),
		httpx.WithMessages(httpx.MessagesFor(a.UI.Language)),
	}
}

func (a App) layer() httpx.Config {
	return httpx.Config{
		BaseURL:     a.BaseURL,
		Timeout:     a.Timeout,
		ShowLoading: httpx.Bool(a.UI.ShowLoading),
		ShowError:   httpx.Bool(a.UI.ShowError),
		LoadingText: a.UI.LoadingText,
	}
}

// Apply 把可热更新的字段写入已有客户端
func Apply(c *httpx.Client, a App) {
	c.SetConfig(a.layer()).
		SetBaseURL(a.BaseURL).
		SetTimeout(a.Timeout)
}

// Bind 配置变更时重新 Apply。平台、存储、token 键和提示语言需要重建客户端，只记录日志。
func Bind(cfg *Config[App], c *httpx.Client, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.OnChange(func(old, new App) {
		Apply(c, new)
		logger.Info("client config reloaded",
			zap.String("base_url", new.BaseURL),
			zap.Duration("timeout", new.Timeout),
		)
		if old.Platform != new.Platform || Changed(old.Storage, new.Storage) || Changed(old.Auth, new.Auth) ||
			old.UI.Language != new.UI.Language {
			logger.Warn("platform, storage, auth or language changed; restart to apply")
		}
	})
}
