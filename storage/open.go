package storage

import "fmt"

// Drivers accepted by Open.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

// Config selects and configures a Store.
type Config struct {
	Driver string      `mapstructure:"driver" json:"driver"`
	Path   string      `mapstructure:"path" json:"path"`
	Redis  RedisConfig `mapstructure:"redis" json:"redis"`
}

// Open builds the Store named by cfg.Driver. The returned close function
// releases backend connections and is never nil.
func Open(cfg Config) (Store, func() error, error) {
	nop := func() error { return nil }
	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemory(), nop, nil
	case DriverFile:
		f, err := NewFile(cfg.Path)
		if err != nil {
			return nil, nop, err
		}
		return f, nop, nil
	case DriverRedis:
		r, err := NewRedis(cfg.Redis)
		if err != nil {
			return nil, nop, err
		}
		return r, r.Close, nil
	}
	return nil, nop, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
}
