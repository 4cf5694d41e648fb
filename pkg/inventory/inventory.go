package inventory

import (
	"context"
	"slices"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/lk2023060901/xdooria-inventory/pkg/logger"
)

// MinimalInventoryCapacity 背包容量下限
const MinimalInventoryCapacity = 0

// ItemFilter 背包准入过滤器，返回 false 表示拒绝
type ItemFilter func(item *Item) bool

type entry struct {
	item *Item
	seq  uint64
}

// Inventory 基于重量容量的背包
//
// 单次增删在锁内完成，但插入的整体流程（过滤 -> 容量 -> 合并 -> 添加）不是原子的，
// 并发插入可能同时通过容量检查，容量只是尽力而为的门槛。
type Inventory struct {
	id        uuid.UUID
	logger    logger.Logger
	registry  ItemRegistry
	merge     *MergeStrategyHandler
	observers observerList

	mu           sync.RWMutex
	capacity     int
	usedCapacity int
	filter       ItemFilter
	items        map[uuid.UUID]*entry
	seq          uint64

	// 构造选项中的错误，由 New 返回
	optErr error
}

// Option 背包构造选项
type Option func(*Inventory)

// WithLogger 注入 logger
func WithLogger(l logger.Logger) Option {
	return func(inv *Inventory) {
		if l != nil {
			inv.logger = l
		}
	}
}

// WithItemFilter 设置准入过滤器
func WithItemFilter(filter ItemFilter) Option {
	return func(inv *Inventory) {
		inv.filter = filter
	}
}

// WithRegistry 设置注册表，按 handle 查询容量时需要
func WithRegistry(r ItemRegistry) Option {
	return func(inv *Inventory) {
		inv.registry = r
	}
}

// WithMergeStrategies 在内置合并策略之后追加策略
func WithMergeStrategies(strategies ...MergeStrategy) Option {
	return func(inv *Inventory) {
		for idx, s := range strategies {
			if err := inv.merge.Add(s); err != nil {
				inv.optErr = errors.CombineErrors(inv.optErr, errors.Wrapf(err, "merge strategy #%d", idx))
			}
		}
	}
}

// New 创建背包
func New(capacity int, opts ...Option) (*Inventory, error) {
	if capacity < MinimalInventoryCapacity {
		return nil, errors.Wrapf(ErrOutOfRange, "capacity %d below minimum %d", capacity, MinimalInventoryCapacity)
	}

	merge, err := NewMergeStrategyHandler(DefaultMergeStrategy{})
	if err != nil {
		return nil, err
	}
	inv := &Inventory{
		id:       uuid.New(),
		logger:   logger.NewNoop(),
		merge:    merge,
		capacity: capacity,
		items:    make(map[uuid.UUID]*entry),
	}
	for _, opt := range opts {
		opt(inv)
	}
	if inv.optErr != nil {
		return nil, inv.optErr
	}
	inv.logger = inv.logger.Named("inventory").WithFields("inventory_id", inv.id.String())
	return inv, nil
}

// ===== 基础信息 =====

func (inv *Inventory) ID() uuid.UUID { return inv.id }

func (inv *Inventory) Capacity() int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.capacity
}

// UsedCapacity 所有物品总重量之和
func (inv *Inventory) UsedCapacity() int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.usedCapacity
}

// AvailableCapacity 剩余容量，强制插入后可能为负
func (inv *Inventory) AvailableCapacity() int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.capacity - inv.usedCapacity
}

// MergeStrategies 背包使用的合并策略链，可以继续追加策略
func (inv *Inventory) MergeStrategies() *MergeStrategyHandler { return inv.merge }

// SetItemFilter 替换准入过滤器，nil 表示全部接受
// 已在背包中的物品不受影响
func (inv *Inventory) SetItemFilter(filter ItemFilter) {
	inv.mu.Lock()
	inv.filter = filter
	inv.mu.Unlock()
}

// Subscribe 订阅变更事件，返回退订函数
// nil 观察者不会被登记，返回的退订函数什么也不做
func (inv *Inventory) Subscribe(o Observer) func() {
	if o == nil {
		inv.logger.Warn("nil observer ignored")
	}
	return inv.observers.add(o)
}

// ===== 插入与移除 =====

// InsertItem 插入物品
//
// 返回 false 的情况：物品已在本背包中、从原背包移出失败、ID 冲突。
// 被已有堆叠合并时返回 true，此时 item 数量归零且不属于任何背包。
// force 为 true 时跳过过滤器、容量和锁定检查。
func (inv *Inventory) InsertItem(ctx context.Context, item *Item, force bool) (bool, error) {
	if item == nil {
		return false, errors.Wrap(ErrInvalidArgument, "item is nil")
	}

	if !force {
		if !inv.IsItemAllowed(item) {
			return false, errors.Wrapf(ErrItemNotAllowed, "item %s rejected by filter", item.ID())
		}
		if weight, available := item.TotalWeight(), inv.AvailableCapacity(); weight > available {
			return false, errors.Wrapf(ErrInventoryCapacity, "item %s weighs %d, %d available", item.ID(), weight, available)
		}
		if item.IsMovingLocked() {
			return false, errors.Wrapf(ErrItemNotMovable, "item %s is locked", item.ID())
		}
	}

	current := item.CurrentInventory()
	if current == inv {
		return false, nil
	}
	if current != nil {
		removed, err := current.RemoveItem(ctx, item)
		if err != nil {
			return false, errors.Wrapf(err, "move item %s from inventory %s", item.ID(), current.ID())
		}
		if !removed {
			inv.logger.WarnContext(ctx, "move aborted, item not released by previous inventory",
				"item_id", item.ID().String(), "from", current.ID().String())
			return false, nil
		}
	}

	merged, err := inv.mergeIntoExisting(ctx, item)
	if err != nil {
		return false, err
	}
	if merged {
		return true, nil
	}

	inv.mu.Lock()
	if _, exists := inv.items[item.ID()]; exists {
		inv.mu.Unlock()
		inv.logger.ErrorContext(ctx, "item id collision", "item_id", item.ID().String())
		return false, nil
	}
	inv.seq++
	inv.items[item.ID()] = &entry{item: item, seq: inv.seq}
	inv.mu.Unlock()

	item.setCurrentInventory(inv)
	inv.recalculate()

	inv.logger.DebugContext(ctx, "item inserted",
		"item_id", item.ID().String(), "handle", item.Handle(), "amount", item.Amount(), "force", force)
	inv.observers.emit(Event{
		Action:    ActionItemAdded,
		Inventory: inv,
		Item:      item,
		Changed:   []Property{PropertyItems, PropertyUsedCapacity, PropertyAvailableCapacity},
	})
	return true, nil
}

// mergeIntoExisting 按插入顺序寻找第一个可以吸收 item 的堆叠
// 多个堆叠都可合并时，最早放入背包的堆叠胜出
func (inv *Inventory) mergeIntoExisting(ctx context.Context, item *Item) (bool, error) {
	for _, candidate := range inv.Items() {
		ok, err := inv.merge.CanBeMerged(candidate, item)
		if err != nil {
			return false, err
		}
		if !ok {
			continue
		}

		amount := item.Amount()
		if err := inv.merge.MergeItemWith(ctx, candidate, item); err != nil {
			return false, errors.Wrapf(err, "merge item %s into %s", item.ID(), candidate.ID())
		}

		inv.logger.DebugContext(ctx, "item merged",
			"item_id", item.ID().String(), "target_id", candidate.ID().String(), "handle", item.Handle(), "amount", amount)
		inv.observers.emit(Event{Action: ActionItemMerged, Inventory: inv, Item: item})
		return true, nil
	}
	return false, nil
}

// RemoveItem 移除物品，物品不在背包中时返回 false
func (inv *Inventory) RemoveItem(ctx context.Context, item *Item) (bool, error) {
	if item == nil {
		return false, errors.Wrap(ErrInvalidArgument, "item is nil")
	}
	if item.IsMovingLocked() {
		return false, errors.Wrapf(ErrItemNotMovable, "item %s is locked", item.ID())
	}

	inv.mu.Lock()
	e, ok := inv.items[item.ID()]
	if !ok || e.item != item {
		inv.mu.Unlock()
		return false, nil
	}
	delete(inv.items, item.ID())
	inv.mu.Unlock()

	item.setCurrentInventory(nil)
	inv.recalculate()

	inv.logger.DebugContext(ctx, "item removed", "item_id", item.ID().String(), "handle", item.Handle())
	inv.observers.emit(Event{
		Action:    ActionItemRemoved,
		Inventory: inv,
		Item:      item,
		Changed:   []Property{PropertyItems, PropertyUsedCapacity, PropertyAvailableCapacity},
	})
	return true, nil
}

// ===== 容量管理 =====

// SetCapacity 修改容量，新容量小于已用容量时返回 false 且不做修改
func (inv *Inventory) SetCapacity(capacity int) (bool, error) {
	if capacity < MinimalInventoryCapacity {
		return false, errors.Wrapf(ErrOutOfRange, "capacity %d below minimum %d", capacity, MinimalInventoryCapacity)
	}

	inv.mu.Lock()
	if capacity < inv.usedCapacity {
		inv.mu.Unlock()
		return false, nil
	}
	if capacity == inv.capacity {
		inv.mu.Unlock()
		return true, nil
	}
	old := inv.capacity
	inv.capacity = capacity
	inv.mu.Unlock()

	inv.logger.Debug("capacity changed", "from", old, "to", capacity)
	inv.observers.emit(Event{
		Action:    ActionCapacityChanged,
		Inventory: inv,
		Changed:   []Property{PropertyCapacity, PropertyAvailableCapacity},
	})
	return true, nil
}

// recalculate 重新累加已用容量，返回值是否变化
func (inv *Inventory) recalculate() bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	used := 0
	for _, e := range inv.items {
		used += e.item.TotalWeight()
	}
	changed := used != inv.usedCapacity
	inv.usedCapacity = used
	return changed
}

// onItemChanged 背包内物品数量或重量变化时由 Item 回调
func (inv *Inventory) onItemChanged(item *Item) {
	if !inv.Contains(item) {
		return
	}
	if !inv.recalculate() {
		return
	}
	inv.observers.emit(Event{
		Action:    ActionItemChanged,
		Inventory: inv,
		Item:      item,
		Changed:   []Property{PropertyUsedCapacity, PropertyAvailableCapacity},
	})
}

// ===== 查询 =====

// Contains 判断物品是否在本背包中
func (inv *Inventory) Contains(item *Item) bool {
	if item == nil {
		return false
	}
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	e, ok := inv.items[item.ID()]
	return ok && e.item == item
}

// GetItem 按 ID 查找物品
func (inv *Inventory) GetItem(id uuid.UUID) (*Item, bool) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	e, ok := inv.items[id]
	if !ok {
		return nil, false
	}
	return e.item, true
}

// Items 按放入顺序返回所有物品
func (inv *Inventory) Items() []*Item {
	inv.mu.RLock()
	entries := make([]*entry, 0, len(inv.items))
	for _, e := range inv.items {
		entries = append(entries, e)
	}
	inv.mu.RUnlock()

	slices.SortFunc(entries, func(a, b *entry) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		default:
			return 0
		}
	})
	items := make([]*Item, len(entries))
	for idx, e := range entries {
		items[idx] = e.item
	}
	return items
}

// Count 物品堆叠数
func (inv *Inventory) Count() int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return len(inv.items)
}

// FindItems 查找指定 handle 的所有堆叠
func (inv *Inventory) FindItems(handle string) []*Item {
	result := make([]*Item, 0)
	for _, item := range inv.Items() {
		if item.Handle() == handle {
			result = append(result, item)
		}
	}
	return result
}

// AmountOf 指定 handle 的总数量
func (inv *Inventory) AmountOf(handle string) int {
	total := 0
	for _, item := range inv.FindItems(handle) {
		total += item.Amount()
	}
	return total
}

// HasAmount 检查是否拥有足够数量
func (inv *Inventory) HasAmount(handle string, amount int) bool {
	return inv.AmountOf(handle) >= amount
}
