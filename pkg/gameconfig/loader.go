package gameconfig

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-inventory/pkg/config"
	"github.com/lk2023060901/xdooria-inventory/pkg/inventory"
	"github.com/lk2023060901/xdooria-inventory/pkg/logger"
	"github.com/spf13/viper"
)

// DefaultKey 物品表在配置文件中的默认路径
const DefaultKey = "item_table"

// Loader 物品表加载器
type Loader struct {
	manager   config.Manager
	key       string
	validator *config.Validator
	logger    logger.Logger
}

// NewLoader 基于已有的配置管理器创建加载器，key 为空时使用 DefaultKey
func NewLoader(mgr config.Manager, key string, l logger.Logger) (*Loader, error) {
	if mgr == nil {
		return nil, errors.New("config manager is required for NewLoader")
	}
	if l == nil {
		l = logger.NewNoop()
	}
	if key == "" {
		key = DefaultKey
	}
	return &Loader{
		manager:   mgr,
		key:       key,
		validator: config.NewValidator(),
		logger:    l.Named("gameconfig"),
	}, nil
}

// NewFileLoader 从物品表文件创建加载器，支持 json/yaml/toml
// 文件不存在时按空表处理
func NewFileLoader(path, key string, l logger.Logger) (*Loader, error) {
	if l == nil {
		return nil, errors.New("logger is required for NewFileLoader")
	}

	mgr := config.NewManager()
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to stat item table %s", path)
		}
		l.Warn("optional item table not found, initializing as empty", "path", path)
	} else if err := mgr.LoadFile(path); err != nil {
		return nil, err
	}
	return NewLoader(mgr, key, l)
}

// LoadTable 解析并校验物品表，key 不存在时返回空表
func (l *Loader) LoadTable() (*ItemTable, error) {
	table := &ItemTable{Items: make([]ItemDefinition, 0)}

	err := l.manager.UnmarshalKey(l.key, table, viper.DecodeHook(FlagsHookFunc()))
	if errors.Is(err, config.ErrKeyNotFound) {
		l.logger.Warn("item table key not set, initializing as empty", "key", l.key)
		return table, nil
	}
	if err != nil {
		return nil, err
	}

	if err := l.validator.Validate(table); err != nil {
		return nil, errors.Wrapf(err, "invalid item table %s", l.key)
	}
	return table, nil
}

// LoadMetas 满足 inventory.Loader
func (l *Loader) LoadMetas() ([]*inventory.ItemMeta, error) {
	table, err := l.LoadTable()
	if err != nil {
		return nil, err
	}
	metas, err := table.Metas()
	if err != nil {
		return nil, err
	}
	l.logger.Info("item table loaded", "key", l.key, "items", len(metas))
	return metas, nil
}

// Watch 物品表文件变化时重载注册表，重载失败保留旧数据
func (l *Loader) Watch(registry *inventory.Registry) error {
	if registry == nil {
		return errors.Wrap(inventory.ErrInvalidArgument, "registry is nil")
	}
	return l.manager.Watch(func(path string) {
		if err := registry.Reload(); err != nil {
			l.logger.Error("item table reload failed, keeping previous table", "path", path, "error", err)
			return
		}
		l.logger.Info("item table reloaded", "path", path)
	})
}
