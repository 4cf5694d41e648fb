package service

import (
	"github.com/google/wire"
	"github.com/lk2023060901/xdooria-inventory/pkg/config"
	"github.com/lk2023060901/xdooria-inventory/pkg/logger"
)

// ProviderSet 导出背包服务相关的 Provider
var ProviderSet = wire.NewSet(
	ProvideConfig, // 返回 *Config
	ProvideLogger, // 返回 logger.Logger
	New,           // 返回 *Service
)

// ProvideConfig 从配置管理器读取整个文件作为服务配置
func ProvideConfig(mgr config.Manager) (*Config, error) {
	return LoadConfig(mgr, "")
}

// ProvideLogger 按服务配置创建 zap logger
func ProvideLogger(cfg *Config) (logger.Logger, error) {
	l, err := logger.New(&cfg.Logger)
	if err != nil {
		return nil, err
	}
	return l, nil
}
