package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v2"

	"github.com/sqzr-sharding/sqzr/pkg/models/sqzrerror"
	"github.com/sqzr-sharding/sqzr/pkg/sqzrlog"
)

const (
	DefaultTargetIndexSuffix = "_shrunken"
	DefaultActionTimeout     = 12 * time.Hour
	DefaultBufferFraction    = 0.05
	DefaultPollInterval      = 30 * time.Second
	DefaultJobIndexName      = ".sqzr-jobs"
)

type Alias struct {
	Name         string `json:"name" toml:"name" yaml:"name"`
	IsWriteIndex bool   `json:"is_write_index" toml:"is_write_index" yaml:"is_write_index"`
}

type Shrink struct {
	LogLevel string `json:"log_level" toml:"log_level" yaml:"log_level"`

	ClusterEndpoint string `json:"cluster_endpoint" toml:"cluster_endpoint" yaml:"cluster_endpoint"`

	LockBackend   string `json:"lock_backend" toml:"lock_backend" yaml:"lock_backend"`
	EtcdAddr      string `json:"etcd_addr" toml:"etcd_addr" yaml:"etcd_addr"`
	MemBackupPath string `json:"mem_backup_path" toml:"mem_backup_path" yaml:"mem_backup_path"`

	JobIndexName string `json:"job_index_name" toml:"job_index_name" yaml:"job_index_name"`

	TargetIndexSuffix string `json:"target_index_suffix" toml:"target_index_suffix" yaml:"target_index_suffix"`

	// Exactly one of the next three governs the target shard count.
	NumNewShards             int     `json:"num_new_shards" toml:"num_new_shards" yaml:"num_new_shards"`
	PercentageOfSourceShards float64 `json:"percentage_of_source_shards" toml:"percentage_of_source_shards" yaml:"percentage_of_source_shards"`
	MaxShardSizeBytes        int64   `json:"max_shard_size_bytes" toml:"max_shard_size_bytes" yaml:"max_shard_size_bytes"`

	ForceUnsafe bool    `json:"force_unsafe" toml:"force_unsafe" yaml:"force_unsafe"`
	Aliases     []Alias `json:"aliases" toml:"aliases" yaml:"aliases"`

	TimeoutSeconds      int64   `json:"timeout_seconds" toml:"timeout_seconds" yaml:"timeout_seconds"`
	BufferFraction      float64 `json:"buffer_fraction" toml:"buffer_fraction" yaml:"buffer_fraction"`
	PollIntervalSeconds int64   `json:"poll_interval_seconds" toml:"poll_interval_seconds" yaml:"poll_interval_seconds"`
}

var cfgShrink Shrink

func LoadShrinkCfg(cfgPath string) error {
	file, err := os.Open(cfgPath)
	if err != nil {
		return err
	}
	defer file.Close()

	cfgShrink = Shrink{}

	if err := initShrinkConfig(file, cfgPath); err != nil {
		return err
	}
	cfgShrink.ApplyDefaults()
	if err := cfgShrink.Validate(); err != nil {
		return err
	}

	configBytes, err := json.MarshalIndent(cfgShrink, "", "  ")
	if err != nil {
		return err
	}

	sqzrlog.Zero.Info().Msg("Running config:" + string(configBytes))
	return nil
}

func initShrinkConfig(file *os.File, filepath string) error {
	if strings.HasSuffix(filepath, ".toml") {
		_, err := toml.NewDecoder(file).Decode(&cfgShrink)
		return err
	}
	if strings.HasSuffix(filepath, ".yaml") {
		return yaml.NewDecoder(file).Decode(&cfgShrink)
	}
	if strings.HasSuffix(filepath, ".json") {
		return json.NewDecoder(file).Decode(&cfgShrink)
	}
	return fmt.Errorf("unknown config format type: %s. Use .toml, .yaml or .json suffix in filename", filepath)
}

func (c *Shrink) ApplyDefaults() {
	if c.TargetIndexSuffix == "" {
		c.TargetIndexSuffix = DefaultTargetIndexSuffix
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = int64(DefaultActionTimeout / time.Second)
	}
	if c.BufferFraction == 0 {
		c.BufferFraction = DefaultBufferFraction
	}
	if c.PollIntervalSeconds == 0 {
		c.PollIntervalSeconds = int64(DefaultPollInterval / time.Second)
	}
	if c.JobIndexName == "" {
		c.JobIndexName = DefaultJobIndexName
	}
	if c.LockBackend == "" {
		c.LockBackend = "etcd"
	}
}

func (c *Shrink) Validate() error {
	set := 0
	if c.NumNewShards > 0 {
		set++
	}
	if c.PercentageOfSourceShards > 0 {
		set++
	}
	if c.MaxShardSizeBytes > 0 {
		set++
	}
	if set != 1 {
		return sqzrerror.Newf(sqzrerror.SQZR_CONFIG_ERROR,
			"exactly one of num_new_shards, percentage_of_source_shards, max_shard_size_bytes must be set, got %d", set)
	}
	if c.PercentageOfSourceShards >= 1 {
		return sqzrerror.New(sqzrerror.SQZR_CONFIG_ERROR,
			"percentage_of_source_shards must be strictly less than 1")
	}
	return nil
}

func (c *Shrink) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *Shrink) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func ShrinkConfig() *Shrink {
	return &cfgShrink
}
