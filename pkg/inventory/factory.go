package inventory

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-inventory/pkg/logger"
)

// KindInitializer 物品构造完成后按 kind 执行的初始化
type KindInitializer func(item *Item) error

// ItemFactory 物品工厂，物品只能由工厂创建
type ItemFactory interface {
	// CreateItem 按元数据创建物品，amount 必须 >= 1，不可堆叠物品只能为 1
	CreateItem(meta *ItemMeta, amount int) (*Item, error)
	// TryCreateItem handle 无法解析时返回 (nil, false, nil)
	TryCreateItem(handle string, amount int) (*Item, bool, error)
	// SplitItem 从 item 中拆出 amount 个组成新堆叠，新堆叠不属于任何背包
	// 拆分完成后通知所有拆分策略，策略返回错误时新堆叠仍然有效并随错误一起返回
	SplitItem(ctx context.Context, item *Item, amount int) (*Item, error)
	SplitStrategies() *SplitStrategyHandler
	// RegisterKind 注册 kind 初始化逻辑，同一 kind 重复注册会覆盖
	RegisterKind(kind ItemKind, init KindInitializer) error
}

type itemFactory struct {
	registry ItemRegistry
	split    *SplitStrategyHandler
	logger   logger.Logger

	mu    sync.RWMutex
	kinds map[ItemKind]KindInitializer

	optErr error
}

// FactoryOption 工厂选项
type FactoryOption func(*itemFactory)

// WithFactoryLogger 注入 logger
func WithFactoryLogger(l logger.Logger) FactoryOption {
	return func(f *itemFactory) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithSplitStrategies 注册拆分策略
func WithSplitStrategies(strategies ...SplitStrategy) FactoryOption {
	return func(f *itemFactory) {
		for idx, s := range strategies {
			if err := f.split.Add(s); err != nil {
				f.optErr = errors.CombineErrors(f.optErr, errors.Wrapf(err, "split strategy #%d", idx))
			}
		}
	}
}

// NewItemFactory 创建物品工厂，registry 为 nil 时 TryCreateItem 总是解析失败
func NewItemFactory(registry ItemRegistry, opts ...FactoryOption) (ItemFactory, error) {
	split, err := NewSplitStrategyHandler()
	if err != nil {
		return nil, err
	}
	f := &itemFactory{
		registry: registry,
		split:    split,
		logger:   logger.NewNoop(),
		kinds:    make(map[ItemKind]KindInitializer),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.optErr != nil {
		return nil, f.optErr
	}
	f.logger = f.logger.Named("item_factory")
	return f, nil
}

func (f *itemFactory) CreateItem(meta *ItemMeta, amount int) (*Item, error) {
	if meta == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "item meta is nil")
	}
	if amount < 1 {
		return nil, errors.Wrapf(ErrOutOfRange, "item %s amount %d must be at least 1", meta.Handle(), amount)
	}
	if !meta.IsStackable() && amount > 1 {
		return nil, errors.Wrapf(ErrItemNotStackable, "item %s amount %d", meta.Handle(), amount)
	}

	item := newItem(meta, amount)

	f.mu.RLock()
	init := f.kinds[meta.Kind()]
	f.mu.RUnlock()
	if init != nil {
		if err := init(item); err != nil {
			return nil, errors.Wrapf(err, "init item %s of kind %s", meta.Handle(), meta.Kind())
		}
	}
	return item, nil
}

func (f *itemFactory) TryCreateItem(handle string, amount int) (*Item, bool, error) {
	if f.registry == nil {
		return nil, false, nil
	}
	meta, ok, err := f.registry.TryGetMeta(handle)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	item, err := f.CreateItem(meta, amount)
	if err != nil {
		return nil, false, err
	}
	return item, true, nil
}

func (f *itemFactory) SplitItem(ctx context.Context, item *Item, amount int) (*Item, error) {
	if item == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "item is nil")
	}
	if !item.IsStackable() {
		return nil, errors.Wrapf(ErrItemNotStackable, "item %s cannot be split", item.Handle())
	}
	if item.IsLocked() {
		return nil, errors.Wrapf(ErrItemNotMovable, "item %s is locked", item.ID())
	}

	created, err := f.CreateItem(item.Meta(), amount)
	if err != nil {
		return nil, err
	}
	item.copyStateTo(created)
	if err := item.takeAmount(amount); err != nil {
		return nil, err
	}

	f.logger.DebugContext(ctx, "item split",
		"item_id", item.ID().String(), "new_id", created.ID().String(), "amount", amount)
	if err := f.split.SplitItem(ctx, item, created); err != nil {
		return created, err
	}
	return created, nil
}

func (f *itemFactory) SplitStrategies() *SplitStrategyHandler { return f.split }

func (f *itemFactory) RegisterKind(kind ItemKind, init KindInitializer) error {
	if kind == "" {
		return errors.Wrap(ErrInvalidArgument, "item kind is blank")
	}
	if init == nil {
		return errors.Wrapf(ErrInvalidArgument, "initializer for kind %s is nil", kind)
	}
	f.mu.Lock()
	f.kinds[kind] = init
	f.mu.Unlock()
	return nil
}

// InventoryFactory 背包工厂，为创建的背包注入统一的 logger、注册表和合并策略
type InventoryFactory struct {
	opts []Option
}

// NewInventoryFactory 创建背包工厂，opts 会应用到每个新背包
func NewInventoryFactory(opts ...Option) *InventoryFactory {
	return &InventoryFactory{opts: opts}
}

// CreateInventory 创建背包，调用时的 opts 在工厂默认选项之后应用
func (f *InventoryFactory) CreateInventory(capacity int, opts ...Option) (*Inventory, error) {
	all := make([]Option, 0, len(f.opts)+len(opts))
	all = append(all, f.opts...)
	all = append(all, opts...)
	return New(capacity, all...)
}
