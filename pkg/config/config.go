// Package config 加载 idgend 的配置：YAML文件 + IDGEND_* 环境变量覆盖
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"katydid-snowflake/pkg/idgen/snowflake"
	"katydid-snowflake/pkg/logger"
)

// EnvPrefix 环境变量前缀，例如 IDGEND_SERVER_ADDR、IDGEND_IDGEN_DATACENTER_ID
const EnvPrefix = "IDGEND"

// 解析策略名
const (
	StrategyStatic    = "static"
	StrategyEnv       = "env"
	StrategyOutbound  = "outbound_ip"
	StrategyPrivateIP = "private_ip"
	StrategyHostname  = "hostname"
	StrategyRedis     = "redis"
)

// ErrInvalidConfig 配置无效
var ErrInvalidConfig = errors.New("invalid config")

// AppConfig 服务配置
type AppConfig struct {
	Server ServerConfig  `mapstructure:"server"`
	Log    logger.Config `mapstructure:"log"`
	IDGen  IDGenConfig   `mapstructure:"idgen"`
}

// ServerConfig HTTP服务配置
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	Mode            string        `mapstructure:"mode" validate:"oneof=debug release test"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	MaxBatch        int           `mapstructure:"max_batch" validate:"gte=1,lte=100000"`
}

// IDGenConfig 生成器配置
type IDGenConfig struct {
	DatacenterID  int64            `mapstructure:"datacenter_id" validate:"gte=0"`
	Layout        snowflake.Layout `mapstructure:"layout"`
	EnableMetrics bool             `mapstructure:"enable_metrics"`
	QueueSize     int              `mapstructure:"queue_size" validate:"gte=0"`
	Resolver      ResolverConfig   `mapstructure:"resolver"`
}

// ResolverConfig 工作机器ID解析配置，Strategies按顺序尝试
type ResolverConfig struct {
	Strategies     []string      `mapstructure:"strategies" validate:"min=1,dive,oneof=static env outbound_ip private_ip hostname redis"`
	StaticWorkerID int64         `mapstructure:"static_worker_id" validate:"gte=0"`
	EnvVar         string        `mapstructure:"env_var"`
	ProbeAddr      string        `mapstructure:"probe_addr"`
	Timeout        time.Duration `mapstructure:"timeout" validate:"gt=0"`
	RetryAttempts  uint          `mapstructure:"retry_attempts"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
	Redis          RedisConfig   `mapstructure:"redis"`
}

// RedisConfig Redis分配表配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
	Key      string `mapstructure:"key"`
	Member   string `mapstructure:"member"`
}

// HasStrategy 是否启用了某个解析策略
func (c ResolverConfig) HasStrategy(name string) bool {
	for _, s := range c.Strategies {
		if s == name {
			return true
		}
	}
	return false
}

var validate = validator.New()

// Load 读取配置，path为空时只使用默认值和环境变量
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验结构体标签以及跨字段约束
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := c.IDGen.Layout.Validate(); err != nil {
		return fmt.Errorf("%w: idgen.layout: %w", ErrInvalidConfig, err)
	}
	if c.IDGen.DatacenterID > c.IDGen.Layout.MaxDatacenterID() {
		return fmt.Errorf("%w: idgen.datacenter_id %d exceeds max %d",
			ErrInvalidConfig, c.IDGen.DatacenterID, c.IDGen.Layout.MaxDatacenterID())
	}
	if c.IDGen.Resolver.HasStrategy(StrategyRedis) && c.IDGen.Resolver.Redis.Addr == "" {
		return fmt.Errorf("%w: idgen.resolver.redis.addr is required by the redis strategy", ErrInvalidConfig)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_batch", 1000)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file.path", "")
	v.SetDefault("log.file.max_size_mb", logger.DefaultMaxSizeMB)
	v.SetDefault("log.file.max_backups", logger.DefaultMaxBackups)
	v.SetDefault("log.file.max_age_days", logger.DefaultMaxAgeDays)
	v.SetDefault("log.file.compress", false)

	v.SetDefault("idgen.datacenter_id", 0)
	v.SetDefault("idgen.layout.epoch", snowflake.DefaultLayout.Epoch)
	v.SetDefault("idgen.layout.datacenter_bits", snowflake.DefaultLayout.DatacenterBits)
	v.SetDefault("idgen.layout.worker_bits", snowflake.DefaultLayout.WorkerBits)
	v.SetDefault("idgen.layout.sequence_bits", snowflake.DefaultLayout.SequenceBits)
	v.SetDefault("idgen.enable_metrics", true)
	v.SetDefault("idgen.queue_size", 1024)

	v.SetDefault("idgen.resolver.strategies", []string{StrategyEnv, StrategyOutbound, StrategyPrivateIP})
	v.SetDefault("idgen.resolver.static_worker_id", 0)
	v.SetDefault("idgen.resolver.env_var", "IDGEN_WORKER_ID")
	v.SetDefault("idgen.resolver.probe_addr", "8.8.8.8:80")
	v.SetDefault("idgen.resolver.timeout", 5*time.Second)
	v.SetDefault("idgen.resolver.retry_attempts", 3)
	v.SetDefault("idgen.resolver.retry_delay", 200*time.Millisecond)
	v.SetDefault("idgen.resolver.redis.addr", "")
	v.SetDefault("idgen.resolver.redis.password", "")
	v.SetDefault("idgen.resolver.redis.db", 0)
	v.SetDefault("idgen.resolver.redis.key", "idgen:workers")
	v.SetDefault("idgen.resolver.redis.member", "")
}
