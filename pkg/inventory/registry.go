package inventory

import (
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-inventory/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// ItemRegistry 按 handle 查询物品元数据
type ItemRegistry interface {
	// TryGetMeta handle 不存在时返回 (nil, false, nil)
	// 只有注册表加载失败才会返回错误
	TryGetMeta(handle string) (*ItemMeta, bool, error)
}

// Loader 提供注册表的全部元数据
type Loader func() ([]*ItemMeta, error)

// StaticLoader 固定元数据集合的 Loader，常用于测试
func StaticLoader(metas ...*ItemMeta) Loader {
	return func() ([]*ItemMeta, error) {
		return metas, nil
	}
}

var _ ItemRegistry = (*Registry)(nil)

// Registry 懒加载的元数据注册表
// 首次查询时调用 Loader，并发的首次加载只会执行一次，成功后结果常驻内存
type Registry struct {
	loader Loader
	logger logger.Logger
	group  singleflight.Group

	mu    sync.RWMutex
	table map[string]*ItemMeta
}

// RegistryOption 注册表选项
type RegistryOption func(*Registry)

// WithRegistryLogger 注入 logger
func WithRegistryLogger(l logger.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry 创建注册表
func NewRegistry(loader Loader, opts ...RegistryOption) (*Registry, error) {
	if loader == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "registry loader is nil")
	}
	r := &Registry{
		loader: loader,
		logger: logger.NewNoop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named("registry")
	return r, nil
}

func (r *Registry) TryGetMeta(handle string) (*ItemMeta, bool, error) {
	if strings.TrimSpace(handle) == "" {
		return nil, false, errors.Wrap(ErrInvalidArgument, "handle is blank")
	}
	table, err := r.ensureLoaded()
	if err != nil {
		return nil, false, err
	}
	meta, ok := table[handle]
	return meta, ok, nil
}

// Metas 按 handle 排序返回全部元数据
func (r *Registry) Metas() ([]*ItemMeta, error) {
	table, err := r.ensureLoaded()
	if err != nil {
		return nil, err
	}
	metas := make([]*ItemMeta, 0, len(table))
	for _, m := range table {
		metas = append(metas, m)
	}
	sort.Slice(metas, func(a, b int) bool { return metas[a].Handle() < metas[b].Handle() })
	return metas, nil
}

// Reload 重新调用 Loader 并整体替换，失败时保留旧表
func (r *Registry) Reload() error {
	_, err := r.load(true)
	return err
}

// Loaded 是否已成功加载
func (r *Registry) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.table != nil
}

func (r *Registry) ensureLoaded() (map[string]*ItemMeta, error) {
	r.mu.RLock()
	table := r.table
	r.mu.RUnlock()
	if table != nil {
		return table, nil
	}
	return r.load(false)
}

func (r *Registry) load(force bool) (map[string]*ItemMeta, error) {
	key := "load"
	if force {
		key = "reload"
	}
	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		if !force {
			r.mu.RLock()
			table := r.table
			r.mu.RUnlock()
			if table != nil {
				return table, nil
			}
		}

		metas, err := r.loader()
		if err != nil {
			return nil, errors.Wrap(err, "load item registry")
		}
		table, err := buildTable(metas)
		if err != nil {
			r.logger.Warn("item registry rejected", "error", err)
			return nil, err
		}

		r.mu.Lock()
		r.table = table
		r.mu.Unlock()

		r.logger.Debug("item registry loaded", "count", len(table))
		return table, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]*ItemMeta), nil
}

// ValidateMetas 按注册表的规则检查元数据集合，通过时 Reload 一定会接受它
func ValidateMetas(metas []*ItemMeta) error {
	_, err := buildTable(metas)
	return err
}

func buildTable(metas []*ItemMeta) (map[string]*ItemMeta, error) {
	if metas == nil {
		return nil, errors.Wrap(ErrInvalidRegistry, "loader returned nil collection")
	}
	table := make(map[string]*ItemMeta, len(metas))
	for idx, m := range metas {
		if m == nil {
			return nil, errors.Wrapf(ErrInvalidRegistry, "meta #%d is nil", idx)
		}
		if _, dup := table[m.Handle()]; dup {
			return nil, errors.Wrapf(ErrInvalidRegistry, "duplicate handle %q", m.Handle())
		}
		table[m.Handle()] = m
	}
	return table, nil
}
