package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"chessd/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CHESSD_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("NOTIFY_DRIVER", "log")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8082", cfg.HTTPAddr)
	assert.Equal(t, "chess", cfg.MongoDBName)
	assert.Equal(t, "chess:notifications", cfg.NotifyStream)
	assert.Equal(t, 24*time.Hour, cfg.ReapFinishedEvery)
	assert.Equal(t, 24*time.Hour, cfg.ReapStaleEvery)
	assert.Equal(t, 72*time.Hour, cfg.StaleAfter)
	assert.Equal(t, 10, cfg.TokenHashCost)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(file, []byte(
		"STORE_DRIVER=mysql\nMYSQL_DSN=user:pass@/chess\nSTALE_AFTER=1h\nREDIS_DB=2\n",
	), 0o600))
	t.Setenv("CHESSD_ENV_FILE", file)
	t.Setenv("HTTP_ADDR", ":9000")
	t.Cleanup(func() {
		for _, k := range []string{"STORE_DRIVER", "MYSQL_DSN", "STALE_AFTER", "REDIS_DB"} {
			os.Unsetenv(k)
		}
	})

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.StoreMySQL, cfg.StoreDriver)
	assert.Equal(t, "user:pass@/chess", cfg.MySQLDSN)
	assert.Equal(t, time.Hour, cfg.StaleAfter)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, ":9000", cfg.HTTPAddr)
}

func TestLoadBadDuration(t *testing.T) {
	t.Setenv("CHESSD_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("STALE_AFTER", "three days")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() config.Config {
		return config.Config{
			StoreDriver:       config.StoreMongo,
			MongoURI:          "mongodb://localhost:27017",
			MongoDBName:       "chess",
			NotifyDriver:      config.NotifyRedis,
			RedisAddr:         "localhost:6379",
			ReapFinishedEvery: time.Hour,
			ReapStaleEvery:    time.Hour,
			StaleAfter:        time.Hour,
		}
	}

	cfg := valid()
	assert.NoError(t, cfg.Validate())

	cases := map[string]func(c *config.Config){
		"mongo without uri":  func(c *config.Config) { c.MongoURI = "" },
		"mysql without dsn":  func(c *config.Config) { c.StoreDriver = config.StoreMySQL },
		"unknown store":      func(c *config.Config) { c.StoreDriver = "postgres" },
		"unknown notifier":   func(c *config.Config) { c.NotifyDriver = "sms" },
		"redis without addr": func(c *config.Config) { c.RedisAddr = "" },
		"zero interval":      func(c *config.Config) { c.ReapStaleEvery = 0 },
		"negative stale":     func(c *config.Config) { c.StaleAfter = -time.Hour },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
