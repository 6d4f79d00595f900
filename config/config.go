// Ininicializing common application configuration
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Frame  FrameConfig  `mapstructure:"frame"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Kafka  KafkaConfig  `mapstructure:"kafka"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	AppVersion     string        `mapstructure:"app_version"`
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	Timeout        time.Duration `mapstructure:"timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Env            string        `mapstructure:"environment"`
	Mode           string        `mapstructure:"mode"`
}

// FrameConfig holds the compositor constants and the upload ceiling.
type FrameConfig struct {
	BorderColor       string `mapstructure:"border_color"`
	BorderWidth       int    `mapstructure:"border_width"`
	SquareMaxSize     int    `mapstructure:"square_max_size"`
	CircleTargetSize  int    `mapstructure:"circle_target_size"`
	SupersampleFactor int    `mapstructure:"supersample_factor"`
	MaxUploadBytes    int64  `mapstructure:"max_upload_bytes"`
	MaxPixels         int    `mapstructure:"max_pixels"`
	AssetDir          string `mapstructure:"asset_dir"`
	OverlayPath       string `mapstructure:"overlay_path"` // relative to AssetDir, empty disables the overlay
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`

	// Настройки пула соединений
	MaxRetries   int           `mapstructure:"max_retries"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads config.yaml from FRAMER_CONFIG_DIR (./config by default)
// when present. Every key can be overridden from the environment, e.g.
// FRAMER_FRAME_MAX_UPLOAD_BYTES.
func LoadConfig() (*viper.Viper, error) {

	viperInstance := viper.New()

	viperInstance.AddConfigPath(GetEnv("FRAMER_CONFIG_DIR", "./config"))
	viperInstance.SetConfigName("config")
	viperInstance.SetConfigType("yaml")

	setDefaults(viperInstance)

	viperInstance.SetEnvPrefix("FRAMER")
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperInstance.AutomaticEnv()

	err := viperInstance.ReadInConfig()

	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return nil, err
	}
	return viperInstance, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {

	var c Config

	err := v.Unmarshal(&c)
	if err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if c.Frame.MaxUploadBytes <= 0 {
		return fmt.Errorf("frame.max_upload_bytes must be positive, got %d", c.Frame.MaxUploadBytes)
	}
	if c.Frame.SupersampleFactor < 1 {
		return fmt.Errorf("frame.supersample_factor must be at least 1, got %d", c.Frame.SupersampleFactor)
	}
	return nil
}

// GetServerAddress возвращает полный адрес сервера
func (c *Config) GetServerAddress() string {
	return c.Server.Host + ":" + c.Server.Port
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.app_version", "1.0.0")
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.request_timeout", 20*time.Second)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("frame.border_color", "#89C997")
	v.SetDefault("frame.border_width", 20)
	v.SetDefault("frame.square_max_size", 800)
	v.SetDefault("frame.circle_target_size", 400)
	v.SetDefault("frame.supersample_factor", 4)
	v.SetDefault("frame.max_upload_bytes", 5*1024*1024)
	v.SetDefault("frame.max_pixels", 40_000_000)
	v.SetDefault("frame.asset_dir", "./frames")
	v.SetDefault("frame.overlay_path", "")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cache_ttl", 15*time.Minute)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("redis.pool_timeout", 4*time.Second)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "frame-events")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
