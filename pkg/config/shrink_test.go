package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqzr-sharding/sqzr/pkg/config"
)

func TestApplyDefaults(t *testing.T) {
	assert := assert.New(t)

	cfg := config.Shrink{NumNewShards: 2}
	cfg.ApplyDefaults()

	assert.Equal("_shrunken", cfg.TargetIndexSuffix)
	assert.Equal(12*time.Hour, cfg.Timeout())
	assert.Equal(0.05, cfg.BufferFraction)
	assert.Equal(".sqzr-jobs", cfg.JobIndexName)
	assert.Equal("etcd", cfg.LockBackend)
}

func TestValidateExactlyOneStrategy(t *testing.T) {
	assert := assert.New(t)

	for _, tt := range []struct {
		name string
		cfg  config.Shrink
		ok   bool
	}{
		{"explicit count", config.Shrink{NumNewShards: 2}, true},
		{"percentage", config.Shrink{PercentageOfSourceShards: 0.5}, true},
		{"max shard size", config.Shrink{MaxShardSizeBytes: 1 << 30}, true},
		{"none", config.Shrink{}, false},
		{"two at once", config.Shrink{NumNewShards: 2, MaxShardSizeBytes: 1 << 30}, false},
		{"percentage of one or more", config.Shrink{PercentageOfSourceShards: 1.5}, false},
	} {
		err := tt.cfg.Validate()
		if tt.ok {
			assert.NoError(err, tt.name)
		} else {
			assert.Error(err, tt.name)
		}
	}
}

func TestLoadShrinkCfgToml(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level = "debug"
cluster_endpoint = "http://localhost:9200"
lock_backend = "mem"
num_new_shards = 2
timeout_seconds = 3600

[[aliases]]
name = "logs"
is_write_index = true
`), 0644))

	assert.NoError(config.LoadShrinkCfg(path))

	cfg := config.ShrinkConfig()
	assert.Equal("http://localhost:9200", cfg.ClusterEndpoint)
	assert.Equal("mem", cfg.LockBackend)
	assert.Equal(2, cfg.NumNewShards)
	assert.Equal(time.Hour, cfg.Timeout())
	require.Len(t, cfg.Aliases, 1)
	assert.Equal("logs", cfg.Aliases[0].Name)
	assert.True(cfg.Aliases[0].IsWriteIndex)
}

func TestLoadShrinkCfgYaml(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: info
cluster_endpoint: http://localhost:9200
lock_backend: mem
percentage_of_source_shards: 0.5
`), 0644))

	assert.NoError(config.LoadShrinkCfg(path))
	assert.Equal(0.5, config.ShrinkConfig().PercentageOfSourceShards)
}

func TestLoadShrinkCfgUnknownSuffix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.ini")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	assert.Error(t, config.LoadShrinkCfg(path))
}
