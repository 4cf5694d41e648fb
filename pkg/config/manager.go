package config

import (
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Manager 配置管理器接口
type Manager interface {
	// LoadFile 加载配置文件，格式由扩展名或 WithConfigType 决定
	LoadFile(path string) error
	// BindEnv 绑定环境变量，prefix 为 "INV" 时 INV_ITEM_TABLE_PATH 覆盖 item_table.path
	BindEnv(prefix string)
	// Unmarshal 解析整个配置到结构体
	Unmarshal(v any, opts ...viper.DecoderConfigOption) error
	// UnmarshalKey 解析指定路径的配置，key 不存在时返回 ErrKeyNotFound
	UnmarshalKey(key string, v any, opts ...viper.DecoderConfigOption) error
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	IsSet(key string) bool
	// Watch 监听配置文件变化，回调在 fsnotify 的 goroutine 上执行
	Watch(callback func(path string)) error
	// ReadInConfig 重新读取已加载的文件
	ReadInConfig() error
}

type manager struct {
	v         *viper.Viper
	mu        sync.RWMutex
	envPrefix string
	callbacks []func(path string)
	watching  bool
}

// NewManager 创建配置管理器
func NewManager(opts ...Option) Manager {
	m := &manager{
		v:         viper.New(),
		callbacks: make([]func(string), 0),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.envPrefix != "" {
		m.BindEnv(m.envPrefix)
	}
	return m
}

func (m *manager) LoadFile(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.v.SetConfigFile(path)
	if err := m.v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "failed to read config file %s", path)
	}
	return nil
}

func (m *manager) ReadInConfig() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "failed to reload config file %s", m.v.ConfigFileUsed())
	}
	return nil
}

func (m *manager) BindEnv(prefix string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prefix != "" {
		m.v.SetEnvPrefix(prefix)
	}
	m.v.AutomaticEnv()
	m.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
}

func (m *manager) Unmarshal(v any, opts ...viper.DecoderConfigOption) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.v.Unmarshal(v, opts...); err != nil {
		return errors.Wrap(err, "failed to unmarshal config")
	}
	return nil
}

func (m *manager) UnmarshalKey(key string, v any, opts ...viper.DecoderConfigOption) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.v.IsSet(key) {
		return errors.Wrapf(ErrKeyNotFound, "key %s", key)
	}
	if err := m.v.UnmarshalKey(key, v, opts...); err != nil {
		return errors.Wrapf(err, "failed to unmarshal key %s", key)
	}
	return nil
}

func (m *manager) GetString(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.v.GetString(key)
}

func (m *manager) GetInt(key string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.v.GetInt(key)
}

func (m *manager) GetBool(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.v.GetBool(key)
}

func (m *manager) IsSet(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.v.IsSet(key)
}

func (m *manager) Watch(callback func(path string)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.v.ConfigFileUsed() == "" {
		return errors.New("config: watch requires a loaded file")
	}
	m.callbacks = append(m.callbacks, callback)
	if m.watching {
		return nil
	}
	m.watching = true

	m.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		m.mu.RLock()
		callbacks := append([]func(string){}, m.callbacks...)
		m.mu.RUnlock()

		for _, cb := range callbacks {
			cb(e.Name)
		}
	})
	m.v.WatchConfig()
	return nil
}
