package config

import "github.com/spf13/viper"

// Option 配置选项函数
type Option func(*manager)

// WithDefaults 设置默认配置值
func WithDefaults(defaults map[string]any) Option {
	return func(m *manager) {
		for key, value := range defaults {
			m.v.SetDefault(key, value)
		}
	}
}

// WithConfigType 设置配置文件类型（yaml、json、toml 等）
// 文件扩展名不能反映格式时使用
func WithConfigType(configType string) Option {
	return func(m *manager) {
		m.v.SetConfigType(configType)
	}
}

// WithEnvPrefix 设置环境变量前缀
func WithEnvPrefix(prefix string) Option {
	return func(m *manager) {
		m.envPrefix = prefix
	}
}

// WithViper 使用自定义的 Viper 实例
func WithViper(v *viper.Viper) Option {
	return func(m *manager) {
		m.v = v
	}
}

// WithStructDefaults 把结构体的字段值按 mapstructure 标签展开为默认值
// 注册过默认值的 key 才能被 AutomaticEnv 覆盖，prefix 为空时从根开始
func WithStructDefaults(prefix string, defaults any) Option {
	return func(m *manager) {
		for key, value := range FlattenStruct(prefix, defaults) {
			m.v.SetDefault(key, value)
		}
	}
}
