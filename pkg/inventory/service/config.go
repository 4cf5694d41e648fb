package service

import (
	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-inventory/pkg/config"
	"github.com/lk2023060901/xdooria-inventory/pkg/gameconfig"
	"github.com/lk2023060901/xdooria-inventory/pkg/inventory/metrics"
	"github.com/lk2023060901/xdooria-inventory/pkg/logger"
)

// Config 背包服务配置
type Config struct {
	// MinimalAmount 进程级的物品数量下限
	MinimalAmount int `mapstructure:"minimal_amount" json:"minimal_amount" yaml:"minimal_amount" validate:"gte=0"`
	// DefaultCapacity NewInventory 使用的默认容量
	DefaultCapacity int `mapstructure:"default_capacity" json:"default_capacity" yaml:"default_capacity" validate:"gte=0"`

	ItemTable ItemTableConfig `mapstructure:"item_table" json:"item_table" yaml:"item_table"`
	Metrics   metrics.Config  `mapstructure:"metrics" json:"metrics" yaml:"metrics"`
	Logger    logger.Config   `mapstructure:"logger" json:"logger" yaml:"logger"`
}

// ItemTableConfig 物品表配置
type ItemTableConfig struct {
	// Path 物品表文件路径，json/yaml/toml
	Path string `mapstructure:"path" json:"path" yaml:"path" validate:"required"`
	// Key 物品表在文件中的路径
	Key string `mapstructure:"key" json:"key" yaml:"key"`
	// Watch 文件变化时自动重载
	Watch bool `mapstructure:"watch" json:"watch" yaml:"watch"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		MinimalAmount:   0,
		DefaultCapacity: 100,
		ItemTable: ItemTableConfig{
			Path: "./config/items.yaml",
			Key:  gameconfig.DefaultKey,
		},
		Metrics: *metrics.DefaultConfig(),
		Logger:  *logger.DefaultConfig(),
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if err := config.NewValidator().Validate(c); err != nil {
		return err
	}
	if err := c.Logger.Validate(); err != nil {
		return errors.Wrap(err, "invalid logger config")
	}
	return nil
}

// LoadConfig 从配置管理器读取服务配置，key 为空时读取整个文件
// 未出现在文件中的字段保留默认值
func LoadConfig(mgr config.Manager, key string) (*Config, error) {
	if mgr == nil {
		return nil, errors.Wrap(config.ErrNilConfig, "config manager is nil")
	}

	cfg := DefaultConfig()
	var err error
	if key == "" {
		err = mgr.Unmarshal(cfg)
	} else {
		err = mgr.UnmarshalKey(key, cfg)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
