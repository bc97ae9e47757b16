// Package config 基于 viper 的泛型配置加载：文件 + 默认值 + 环境变量，
// 文件变更时热加载并回调 OnChange 注册的监听者。
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config 配置管理器
type Config[T any] struct {
	v        *viper.Viper
	path     string
	logger   *zap.Logger
	value    *T
	mu       sync.RWMutex
	watchers []func(old, new T)
}

// Option 配置选项
type Option[T any] func(*Config[T])

// WithDefaults 设置默认值
func WithDefaults[T any](defaults map[string]any) Option[T] {
	return func(c *Config[T]) {
		for k, v := range defaults {
			c.v.SetDefault(k, v)
		}
	}
}

// WithEnv 绑定环境变量，例如 prefix=BIDCTL 时 base_url 对应 BIDCTL_BASE_URL
func WithEnv[T any](prefix string) Option[T] {
	return func(c *Config[T]) {
		c.v.SetEnvPrefix(prefix)
		c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		c.v.AutomaticEnv()
	}
}

// WithLogger 记录热加载失败和回调 panic
func WithLogger[T any](l *zap.Logger) Option[T] {
	return func(c *Config[T]) {
		if l != nil {
			c.logger = l
		}
	}
}

// Load 加载配置。path 为空时只使用默认值和环境变量，且不监控文件。
func Load[T any](path string, opts ...Option[T]) (*Config[T], error) {
	v := viper.New()
	c := &Config[T]{v: v, path: path, logger: zap.NewNop()}

	for _, opt := range opts {
		opt(c)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var val T
	if err := v.Unmarshal(&val); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	c.value = &val

	if path != "" {
		c.watch()
	}
	return c, nil
}

// Path 返回配置文件路径
func (c *Config[T]) Path() string { return c.path }

// Get 获取当前配置（并发安全，返回深拷贝）
func (c *Config[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return deepCopy(*c.value)
}

// OnChange 注册配置变更回调
func (c *Config[T]) OnChange(callback func(old, new T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watchers = append(c.watchers, callback)
}

// Changed 比较两个值是否不同
func Changed[T any](old, new T) bool {
	return !reflect.DeepEqual(old, new)
}

// deepCopy 通过 JSON 序列化实现深拷贝
func deepCopy[T any](src T) T {
	var dst T
	data, _ := json.Marshal(src)
	_ = json.Unmarshal(data, &dst)
	return dst
}

func (c *Config[T]) watch() {
	var (
		debounceTimer *time.Timer
		debounceMu    sync.Mutex
	)

	c.v.OnConfigChange(func(_ fsnotify.Event) {
		debounceMu.Lock()
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
			if _, err := c.Reload(); err != nil {
				c.logger.Warn("config reload failed", zap.String("path", c.path), zap.Error(err))
			}
		})
		debounceMu.Unlock()
	})

	c.v.WatchConfig()
}

// Reload 重新读取配置文件；配置有变化时依次调用回调并返回 true
func (c *Config[T]) Reload() (bool, error) {
	oldConfig := c.Get()

	newConfig, watchers, err := c.reloadConfig()
	if err != nil {
		return false, err
	}

	if reflect.DeepEqual(oldConfig, newConfig) {
		return false, nil
	}

	for _, cb := range watchers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Error("config watcher panicked", zap.Any("panic", r))
				}
			}()
			cb(oldConfig, newConfig)
		}()
	}
	return true, nil
}

// reloadConfig 重新加载配置，返回新配置和回调列表
func (c *Config[T]) reloadConfig() (T, []func(old, new T), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	if c.path != "" {
		if err := c.v.ReadInConfig(); err != nil {
			return zero, nil, err
		}
	}

	var val T
	if err := c.v.Unmarshal(&val); err != nil {
		return zero, nil, err
	}
	c.value = &val

	watchers := make([]func(old, new T), len(c.watchers))
	copy(watchers, c.watchers)

	return deepCopy(val), watchers, nil
}
