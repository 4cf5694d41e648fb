package service

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/lk2023060901/xdooria-inventory/pkg/gameconfig"
	"github.com/lk2023060901/xdooria-inventory/pkg/inventory"
	"github.com/lk2023060901/xdooria-inventory/pkg/inventory/metrics"
	"github.com/lk2023060901/xdooria-inventory/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
)

// Service 组装注册表、工厂和指标，是背包模块的入口
type Service struct {
	config      *Config
	logger      logger.Logger
	loader      *gameconfig.Loader
	registry    *inventory.Registry
	items       inventory.ItemFactory
	inventories *inventory.InventoryFactory
	metrics     *metrics.InventoryMetrics // 未启用时为 nil

	// handle -> 堆叠上限，随物品表一起重载
	stackLimits atomic.Pointer[map[string]int]

	mu        sync.Mutex
	observers map[uuid.UUID]func()
}

// New 创建背包服务
func New(cfg *Config, l logger.Logger) (*Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if l == nil {
		l = logger.NewNoop()
	}

	inventory.SetMinimalAmount(cfg.MinimalAmount)

	s := &Service{
		config:    cfg,
		logger:    l.Named("inventory_service"),
		observers: make(map[uuid.UUID]func()),
	}
	empty := map[string]int{}
	s.stackLimits.Store(&empty)

	loader, err := gameconfig.NewFileLoader(cfg.ItemTable.Path, cfg.ItemTable.Key, l)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create item table loader")
	}
	s.loader = loader

	registry, err := inventory.NewRegistry(s.loadMetas, inventory.WithRegistryLogger(l))
	if err != nil {
		return nil, err
	}
	s.registry = registry

	items, err := inventory.NewItemFactory(registry, inventory.WithFactoryLogger(l))
	if err != nil {
		return nil, err
	}
	s.items = items
	s.inventories = inventory.NewInventoryFactory(
		inventory.WithLogger(l),
		inventory.WithRegistry(registry),
		inventory.WithMergeStrategies(&inventory.MaxStackStrategy{Limit: s.stackLimit}),
	)

	if cfg.Metrics.Enabled {
		m, err := metrics.New(&cfg.Metrics)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create inventory metrics")
		}
		s.metrics = m
	}

	if cfg.ItemTable.Watch {
		if err := loader.Watch(registry); err != nil {
			return nil, errors.Wrap(err, "failed to watch item table")
		}
	}

	s.logger.Info("inventory service created",
		"item_table", cfg.ItemTable.Path,
		"default_capacity", cfg.DefaultCapacity,
		"metrics", cfg.Metrics.Enabled)
	return s, nil
}

func (s *Service) loadMetas() ([]*inventory.ItemMeta, error) {
	table, err := s.loader.LoadTable()
	if err != nil {
		return nil, err
	}
	metas, err := table.Metas()
	if err != nil {
		return nil, err
	}
	// 注册表拒绝的表不能替换当前的堆叠上限
	if err := inventory.ValidateMetas(metas); err != nil {
		return nil, err
	}
	limits := table.MaxStackLimits()
	s.stackLimits.Store(&limits)
	return metas, nil
}

func (s *Service) stackLimit(handle string) int {
	return (*s.stackLimits.Load())[handle]
}

func (s *Service) Config() *Config                    { return s.config }
func (s *Service) Registry() *inventory.Registry      { return s.registry }
func (s *Service) ItemFactory() inventory.ItemFactory { return s.items }

// Metrics 未启用指标时返回 nil
func (s *Service) Metrics() *metrics.InventoryMetrics { return s.metrics }

// RegisterMetrics 注册指标，未启用时什么也不做
func (s *Service) RegisterMetrics(registerer prometheus.Registerer) error {
	if s.metrics == nil {
		return nil
	}
	return s.metrics.Register(registerer)
}

// NewInventory 以默认容量创建背包
func (s *Service) NewInventory(opts ...inventory.Option) (*inventory.Inventory, error) {
	return s.CreateInventory(s.config.DefaultCapacity, opts...)
}

// CreateInventory 创建背包，启用指标时自动观察
func (s *Service) CreateInventory(capacity int, opts ...inventory.Option) (*inventory.Inventory, error) {
	inv, err := s.inventories.CreateInventory(capacity, opts...)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		stop := s.metrics.Observe(inv)
		s.mu.Lock()
		s.observers[inv.ID()] = stop
		s.mu.Unlock()
	}
	return inv, nil
}

// Release 停止观察背包，背包本身仍然可用
func (s *Service) Release(inv *inventory.Inventory) {
	if inv == nil {
		return
	}
	s.mu.Lock()
	stop, ok := s.observers[inv.ID()]
	delete(s.observers, inv.ID())
	s.mu.Unlock()

	if ok {
		stop()
	}
}

// Give 按 handle 创建物品并放入背包
// 返回的物品在被合并时数量为 0，调用方应以背包中的堆叠为准
func (s *Service) Give(ctx context.Context, inv *inventory.Inventory, handle string, amount int) (*inventory.Item, bool, error) {
	if inv == nil {
		return nil, false, errors.Wrap(inventory.ErrInvalidArgument, "inventory is nil")
	}
	item, ok, err := s.items.TryCreateItem(handle, amount)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, errors.Wrapf(inventory.ErrItemMetaNotFound, "handle %q", handle)
	}

	inserted, err := inv.InsertItem(ctx, item, false)
	s.recordInsert(inserted, err)
	if err != nil {
		s.logger.DebugContext(ctx, "give rejected",
			"inventory_id", inv.ID().String(), "handle", handle, "amount", amount, "error", err)
		return nil, false, err
	}
	return item, inserted, nil
}

// Move 把物品移动到目标背包
func (s *Service) Move(ctx context.Context, item *inventory.Item, to *inventory.Inventory, force bool) (bool, error) {
	if to == nil {
		return false, errors.Wrap(inventory.ErrInvalidArgument, "target inventory is nil")
	}
	moved, err := to.InsertItem(ctx, item, force)
	s.recordInsert(moved, err)
	return moved, err
}

func (s *Service) recordInsert(inserted bool, err error) {
	if s.metrics != nil {
		s.metrics.RecordInsert(inserted, err)
	}
}

// Close 停止观察所有背包
func (s *Service) Close() error {
	s.mu.Lock()
	stops := make([]func(), 0, len(s.observers))
	for id, stop := range s.observers {
		stops = append(stops, stop)
		delete(s.observers, id)
	}
	s.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
	return nil
}
