package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_DefaultsWithoutPath(t *testing.T) {
	t.Setenv("LEAFDECAY_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.InDelta(t, 1.0/16, cfg.Decay.Chance, 1e-9)
	assert.Equal(t, 6, cfg.Decay.LoadRadius)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
decay:
  chance: 0.5
  sapling_chance:
    palm: 10
  adjacency:
    fir: extended18
world:
  tps: 10
eventbus:
  url: nats://localhost:4222
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Decay.Chance)
	assert.Equal(t, 6, cfg.Decay.LoadRadius, "незаданные поля остаются по умолчанию")
	assert.Equal(t, 10, cfg.Decay.SaplingChance["palm"])
	assert.Equal(t, "extended18", cfg.Decay.Adjacency["fir"])
	assert.Equal(t, 10, cfg.World.TPS)
	assert.Equal(t, 128, cfg.World.Height)
	assert.Equal(t, "nats://localhost:4222", cfg.EventBus.URL)
	assert.Equal(t, "LEAFDECAY", cfg.EventBus.Stream)
}

func TestLoad_FromEnv(t *testing.T) {
	path := writeConfig(t, "world:\n  seed: 99\n")
	t.Setenv("LEAFDECAY_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(99), cfg.World.Seed)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "decay: [1, 2"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "decay:\n  chance: 2\n"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"отрицательный шанс", func(c *Config) { c.Decay.Chance = -0.1 }},
		{"нулевой TPS", func(c *Config) { c.World.TPS = 0 }},
		{"низкий мир", func(c *Config) { c.World.Height = 8 }},
		{"порт", func(c *Config) { c.Server.HTTPPort = 70000 }},
		{"модель соседства", func(c *Config) { c.Decay.Adjacency = map[string]string{"palm": "corners26"} }},
		{"шанс саженца", func(c *Config) { c.Decay.SaplingChance = map[string]int{"fir": -1} }},
		{"размер пакета", func(c *Config) { c.Sync.Enabled = true; c.Sync.BatchSize = 0 }},
		{"auth без операторов", func(c *Config) { c.Auth.Enabled = true }},
		{"оператор без хеша", func(c *Config) { c.Auth.Operators = []OperatorConfig{{Name: "root"}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestGetHTTPPort(t *testing.T) {
	s := ServerConfig{HTTPPort: 9000}
	assert.Equal(t, 9000, s.GetHTTPPort())

	t.Setenv("LEAFDECAY_HTTP_PORT", "9100")
	s.HTTPPort = 0
	assert.Equal(t, 9100, s.GetHTTPPort())

	t.Setenv("LEAFDECAY_HTTP_PORT", "abc")
	assert.Equal(t, 8088, s.GetHTTPPort())
}

func TestLoad_AuthSection(t *testing.T) {
	path := writeConfig(t, `
auth:
  enabled: true
  operators:
    - name: forester
      password_hash: "$2a$10$abcdefghijklmnopqrstuv"
`)
	t.Setenv("LEAFDECAY_JWT_SECRET", "c2VjcmV0")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, 24, cfg.Auth.TokenTTLHours)
	require.Len(t, cfg.Auth.Operators, 1)
	assert.Equal(t, "forester", cfg.Auth.Operators[0].Name)
	assert.Equal(t, "c2VjcmV0", cfg.Auth.GetSecret())

	cfg.Auth.Secret = "b3duc2VjcmV0"
	assert.Equal(t, "b3duc2VjcmV0", cfg.Auth.GetSecret())
}
