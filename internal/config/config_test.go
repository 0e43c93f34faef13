package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "erp-crm", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "$", cfg.App.CurrencyPrefix)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "erp", cfg.Database.DBName)
		assert.True(t, cfg.Dashboard.Concurrent)
		assert.Equal(t, 4, cfg.Dashboard.MaxParallel)
		assert.Equal(t, 5*time.Minute, cfg.Dashboard.CacheTTL)
		assert.False(t, cfg.Redis.Enabled)
	})

	t.Run("loads values from environment variables with ERP prefix", func(t *testing.T) {
		t.Setenv("ERP_APP_ENV", "testing")
		t.Setenv("ERP_APP_PORT", "9000")
		t.Setenv("ERP_DATABASE_DRIVER", "sqlite")
		t.Setenv("ERP_DATABASE_PATH", ":memory:")
		t.Setenv("ERP_DASHBOARD_CONCURRENT", "false")
		t.Setenv("ERP_DASHBOARD_CACHE_TTL", "30s")

		cfg, err := Load()
		require.NoError(t, err)

		assert.True(t, cfg.App.IsTesting())
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, ":memory:", cfg.Database.Path)
		assert.False(t, cfg.Dashboard.Concurrent)
		assert.Equal(t, 30*time.Second, cfg.Dashboard.CacheTTL)
	})

	t.Run("rejects unknown driver", func(t *testing.T) {
		t.Setenv("ERP_DATABASE_DRIVER", "mysql")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("production requires a jwt secret", func(t *testing.T) {
		t.Setenv("ERP_APP_ENV", "production")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt secret")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", DBName: "erp", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=erp sslmode=disable", d.DSN())
}
