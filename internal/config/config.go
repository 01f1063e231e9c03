package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ErrInvalid - конфигурация не прошла проверку
var ErrInvalid = errors.New("некорректная конфигурация")

// Config корневая структура конфигурации приложения.
type Config struct {
	Decay     DecayConfig     `yaml:"decay"`
	World     WorldConfig     `yaml:"world"`
	Server    ServerConfig    `yaml:"server"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Sync      SyncConfig      `yaml:"sync"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
	Auth      AuthConfig      `yaml:"auth"`
}

// DecayConfig - случайный тик и настройки листвы
type DecayConfig struct {
	Chance         float64 `yaml:"chance"`
	LoadRadius     int     `yaml:"load_radius"`
	NeighborRadius int     `yaml:"neighbor_radius"`
	// SaplingChance - шанс саженца 1/N по имени породы; 0 - без саженцев
	SaplingChance map[string]int `yaml:"sapling_chance"`
	// Adjacency - модель соседства по имени породы
	Adjacency map[string]string `yaml:"adjacency"`
}

type WorldConfig struct {
	TPS           int   `yaml:"tps"`
	Seed          int64 `yaml:"seed"`
	Height        int   `yaml:"height"`
	PreloadRadius int   `yaml:"preload_radius"` // в чанках вокруг точки появления
	DemoForest    bool  `yaml:"demo_forest"`
}

type ServerConfig struct {
	HTTPPort int `yaml:"http_port"`
}

type EventBusConfig struct {
	URL       string `yaml:"url"` // пусто - шина в памяти
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
	Capacity  int    `yaml:"capacity"`
}

type SyncConfig struct {
	Enabled        bool   `yaml:"enabled"`
	RegionID       string `yaml:"region_id"`
	BatchSize      int    `yaml:"batch_size"`
	FlushEvery     int    `yaml:"flush_every_seconds"`
	UseCompression bool   `yaml:"use_compression"`
	ConflictWindow int    `yaml:"conflict_window_seconds"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	Endpoint    string `yaml:"endpoint"`
}

type LoggingConfig struct {
	Dir          string `yaml:"dir"`
	ConsoleLevel string `yaml:"console_level"`
	FileLevel    string `yaml:"file_level"`
}

// AuthConfig - доступ операторов к изменяющим запросам API.
// Secret задаётся в base64 (не менее 32 байт) или через LEAFDECAY_JWT_SECRET.
type AuthConfig struct {
	Enabled       bool             `yaml:"enabled"`
	Secret        string           `yaml:"secret"`
	TokenTTLHours int              `yaml:"token_ttl_hours"`
	Operators     []OperatorConfig `yaml:"operators"`
}

// OperatorConfig - учётная запись оператора; PasswordHash в формате bcrypt
type OperatorConfig struct {
	Name         string `yaml:"name"`
	PasswordHash string `yaml:"password_hash"`
}

// GetSecret возвращает секрет: config -> env
func (a *AuthConfig) GetSecret() string {
	if a.Secret != "" {
		return a.Secret
	}
	return os.Getenv("LEAFDECAY_JWT_SECRET")
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Decay: DecayConfig{
			Chance:         1.0 / 16,
			LoadRadius:     6,
			NeighborRadius: 1,
		},
		World: WorldConfig{
			TPS:           20,
			Seed:          1,
			Height:        128,
			PreloadRadius: 2,
			DemoForest:    true,
		},
		EventBus: EventBusConfig{
			Stream:    "LEAFDECAY",
			Retention: 24,
			Capacity:  4096,
		},
		Sync: SyncConfig{
			RegionID:       "region-1",
			BatchSize:      256,
			FlushEvery:     1,
			ConflictWindow: 60,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "leafdecay",
			Endpoint:    "localhost:4318",
		},
		Logging: LoggingConfig{
			ConsoleLevel: "INFO",
			FileLevel:    "DEBUG",
		},
		Auth: AuthConfig{
			TokenTTLHours: 24,
		},
	}
}

// GetHTTPPort возвращает порт HTTP API с поддержкой fallback значений
func (s *ServerConfig) GetHTTPPort() int {
	return getPortWithEnvFallback(s.HTTPPort, "LEAFDECAY_HTTP_PORT", 8088)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать путь из ENV LEAFDECAY_CONFIG,
// иначе возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("LEAFDECAY_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет диапазоны значений
func (c *Config) Validate() error {
	switch {
	case c.Decay.Chance < 0 || c.Decay.Chance > 1:
		return fmt.Errorf("%w: decay.chance=%v вне [0,1]", ErrInvalid, c.Decay.Chance)
	case c.Decay.LoadRadius < 0:
		return fmt.Errorf("%w: decay.load_radius=%d", ErrInvalid, c.Decay.LoadRadius)
	case c.Decay.NeighborRadius < 0:
		return fmt.Errorf("%w: decay.neighbor_radius=%d", ErrInvalid, c.Decay.NeighborRadius)
	case c.World.TPS <= 0 || c.World.TPS > 1000:
		return fmt.Errorf("%w: world.tps=%d", ErrInvalid, c.World.TPS)
	case c.World.Height < 16:
		return fmt.Errorf("%w: world.height=%d меньше 16", ErrInvalid, c.World.Height)
	case c.World.PreloadRadius < 0:
		return fmt.Errorf("%w: world.preload_radius=%d", ErrInvalid, c.World.PreloadRadius)
	case c.Server.HTTPPort < 0 || c.Server.HTTPPort > 65535:
		return fmt.Errorf("%w: server.http_port=%d", ErrInvalid, c.Server.HTTPPort)
	case c.Sync.Enabled && c.Sync.BatchSize <= 0:
		return fmt.Errorf("%w: sync.batch_size=%d", ErrInvalid, c.Sync.BatchSize)
	case c.Auth.Enabled && c.Auth.TokenTTLHours <= 0:
		return fmt.Errorf("%w: auth.token_ttl_hours=%d", ErrInvalid, c.Auth.TokenTTLHours)
	case c.Auth.Enabled && len(c.Auth.Operators) == 0:
		return fmt.Errorf("%w: auth включён без операторов", ErrInvalid)
	}

	for i, op := range c.Auth.Operators {
		if op.Name == "" || op.PasswordHash == "" {
			return fmt.Errorf("%w: auth.operators[%d] без имени или хеша", ErrInvalid, i)
		}
	}

	for name, chance := range c.Decay.SaplingChance {
		if chance < 0 {
			return fmt.Errorf("%w: decay.sapling_chance[%s]=%d", ErrInvalid, name, chance)
		}
	}
	for name, adj := range c.Decay.Adjacency {
		if adj != "orthogonal6" && adj != "extended18" {
			return fmt.Errorf("%w: decay.adjacency[%s]=%q", ErrInvalid, name, adj)
		}
	}
	return nil
}
