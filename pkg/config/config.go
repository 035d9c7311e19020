package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	AppProviderConfig   = "config"
	AppProviderDatabase = "database"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Apps      AppsConfig      `mapstructure:"apps"`
	Database  DatabaseConfig  `mapstructure:"database"`
}

type ServerConfig struct {
	Address                string `mapstructure:"address"`
	Mode                   string `mapstructure:"mode"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Production bool   `mapstructure:"production"`
}

type WebSocketConfig struct {
	WriteWaitSeconds int `mapstructure:"write_wait_seconds"`
	PongWaitSeconds  int `mapstructure:"pong_wait_seconds"`
	MaxMessageSize   int `mapstructure:"max_message_size"`
	SendBufferSize   int `mapstructure:"send_buffer_size"`
	// 通过 connection_established 告知客户端的空闲超时
	ActivityTimeoutSeconds int `mapstructure:"activity_timeout_seconds"`
}

type AppsConfig struct {
	Provider string      `mapstructure:"provider"`
	List     []AppConfig `mapstructure:"list"`
}

type AppConfig struct {
	ID              string   `mapstructure:"id"`
	Key             string   `mapstructure:"key"`
	Secret          string   `mapstructure:"secret"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	MaxConnections  int      `mapstructure:"max_connections"`
	MaxMessageSize  int      `mapstructure:"max_message_size"`
	ActivityTimeout int      `mapstructure:"activity_timeout"` // 秒，0 表示使用 websocket.activity_timeout_seconds
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

var GlobalConfig Config

func (w WebSocketConfig) WriteWait() time.Duration {
	return time.Duration(w.WriteWaitSeconds) * time.Second
}

func (w WebSocketConfig) PongWait() time.Duration {
	return time.Duration(w.PongWaitSeconds) * time.Second
}

func (s ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSeconds) * time.Second
}

func Init() error {
	return load("config")
}

// 测试用的配置文件
func InitTest() error {
	return load("config.test")
}

// InitFile 从指定路径加载配置，用于 -config 参数
func InitFile(path string) error {
	v := newViper()
	v.SetConfigFile(path)
	return read(v)
}

func load(name string) error {
	// 获取项目根目录
	_, b, _, _ := runtime.Caller(0)
	basepath := filepath.Dir(filepath.Dir(filepath.Dir(b)))

	v := newViper()
	v.SetConfigName(name)
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(basepath, "config"))
	return read(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("PUSHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.production", true)
	v.SetDefault("websocket.write_wait_seconds", 10)
	v.SetDefault("websocket.pong_wait_seconds", 60)
	v.SetDefault("websocket.max_message_size", 10000)
	v.SetDefault("websocket.send_buffer_size", 256)
	v.SetDefault("websocket.activity_timeout_seconds", 30)
	v.SetDefault("apps.provider", AppProviderConfig)
	return v
}

func read(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	GlobalConfig = cfg
	return nil
}

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return errors.New("server.address is required")
	}

	ws := c.WebSocket
	if ws.WriteWaitSeconds < 1 {
		return errors.New("websocket.write_wait_seconds must be >= 1")
	}
	if ws.PongWaitSeconds < 1 {
		return errors.New("websocket.pong_wait_seconds must be >= 1")
	}
	if ws.MaxMessageSize < 1 {
		return errors.New("websocket.max_message_size must be >= 1")
	}
	if ws.SendBufferSize < 1 {
		return errors.New("websocket.send_buffer_size must be >= 1")
	}
	if ws.ActivityTimeoutSeconds < 1 {
		return errors.New("websocket.activity_timeout_seconds must be >= 1")
	}

	switch c.Apps.Provider {
	case AppProviderConfig:
		return c.Apps.validateList()
	case AppProviderDatabase:
		if c.Database.DSN == "" {
			return errors.New("database.dsn is required when apps.provider is database")
		}
		return nil
	default:
		return fmt.Errorf("unsupported apps.provider %q", c.Apps.Provider)
	}
}

func (a *AppsConfig) validateList() error {
	if len(a.List) == 0 {
		return errors.New("apps.list must contain at least one app")
	}

	keys := make(map[string]struct{}, len(a.List))
	for i, app := range a.List {
		if app.ID == "" {
			return fmt.Errorf("apps.list[%d].id is required", i)
		}
		if app.Key == "" {
			return fmt.Errorf("apps.list[%d].key is required", i)
		}
		if _, dup := keys[app.Key]; dup {
			return fmt.Errorf("apps.list[%d].key %q is duplicated", i, app.Key)
		}
		keys[app.Key] = struct{}{}
		if app.MaxConnections < 0 {
			return fmt.Errorf("apps.list[%d].max_connections must be >= 0", i)
		}
	}
	return nil
}
