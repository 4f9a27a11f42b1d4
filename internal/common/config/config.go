// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	Sheet   SheetConfig   `mapstructure:"sheet"`
	Storage StorageConfig `mapstructure:"storage"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// SheetConfig points at the spreadsheet-backed web endpoint. The endpoint
// is an opaque collaborator: one URL serves snapshot reads and
// fire-and-forget writes.
type SheetConfig struct {
	Endpoint       string `mapstructure:"endpoint"`
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

func (s SheetConfig) Timeout() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Millisecond
}

type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled reports whether a snapshot cache was configured at all.
func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

// SyncConfig carries the timing knobs of the fire-and-forget sync model.
type SyncConfig struct {
	RefreshDelay int `mapstructure:"refresh_delay"` // milliseconds
	SubmitLatch  int `mapstructure:"submit_latch"`  // milliseconds
	CacheTTL     int `mapstructure:"cache_ttl"`     // milliseconds
}

func (s SyncConfig) RefreshDelayDuration() time.Duration {
	return time.Duration(s.RefreshDelay) * time.Millisecond
}

func (s SyncConfig) SubmitLatchDuration() time.Duration {
	return time.Duration(s.SubmitLatch) * time.Millisecond
}

func (s SyncConfig) CacheTTLDuration() time.Duration {
	return time.Duration(s.CacheTTL) * time.Millisecond
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
