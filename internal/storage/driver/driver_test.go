package driver_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/invoicer/internal/config"
	"github.com/MrJamesThe3rd/invoicer/internal/storage/driver"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name   string
		driver string
	}{
		{name: "Memory", driver: config.DriverMemory},
		{name: "LevelDB", driver: config.DriverLevelDB},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.Storage.Driver = tt.driver
			cfg.Storage.Path = filepath.Join(t.TempDir(), "invoicer.db")

			backend, closer, err := driver.Open(context.Background(), cfg)
			require.NoError(t, err)

			ctx := context.Background()
			require.NoError(t, backend.Put(ctx, "k", []byte("v")))

			got, err := backend.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, []byte("v"), got)

			assert.NoError(t, closer.Close())
		})
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Driver = "redis"

	_, _, err := driver.Open(context.Background(), cfg)
	assert.ErrorContains(t, err, `unknown storage driver "redis"`)
}
