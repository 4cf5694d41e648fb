package inventory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"weak"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

var minimalAmount atomic.Int64

// MinimalAmount 进程级的物品数量下限，默认 0
func MinimalAmount() int {
	return int(minimalAmount.Load())
}

// SetMinimalAmount 设置进程级的物品数量下限，负数按 0 处理
func SetMinimalAmount(n int) {
	if n < 0 {
		n = 0
	}
	minimalAmount.Store(int64(n))
}

// Item 一个物品堆叠
//
// 物品只能由 ItemFactory 创建。owner 是指向所属背包的弱引用，
// 只有 Inventory 会写它，物品不会延长背包的生命周期。
type Item struct {
	id   uuid.UUID
	meta *ItemMeta

	mu           sync.RWMutex
	amount       int
	singleWeight int
	displayName  string
	locked       bool
	movingLocked bool
	attributes   map[string]any
	owner        weak.Pointer[Inventory]
}

func newItem(meta *ItemMeta, amount int) *Item {
	return &Item{
		id:           uuid.New(),
		meta:         meta,
		amount:       amount,
		singleWeight: meta.DefaultWeight(),
		displayName:  meta.DisplayName(),
	}
}

func (i *Item) ID() uuid.UUID     { return i.id }
func (i *Item) Meta() *ItemMeta   { return i.meta }
func (i *Item) Handle() string    { return i.meta.Handle() }
func (i *Item) Kind() ItemKind    { return i.meta.Kind() }
func (i *Item) IsStackable() bool { return i.meta.IsStackable() }

func (i *Item) Amount() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.amount
}

// SetAmount 修改数量，所属背包会随之重算已用容量
func (i *Item) SetAmount(amount int) error {
	floor := max(MinimalAmount(), 0)
	if amount < floor {
		return errors.Wrapf(ErrOutOfRange, "item %s amount %d below minimum %d", i.Handle(), amount, floor)
	}

	i.mu.Lock()
	changed := i.amount != amount
	i.amount = amount
	i.mu.Unlock()

	if changed {
		i.notifyOwner()
	}
	return nil
}

func (i *Item) SingleWeight() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.singleWeight
}

// SetSingleWeight 修改单体重量，仅 FlagWeightChangeable 物品可用
func (i *Item) SetSingleWeight(weight int) error {
	if !i.meta.IsWeightChangeable() {
		return errors.Wrapf(ErrWeightNotChangeable, "item %s", i.Handle())
	}
	if weight <= 0 {
		return errors.Wrapf(ErrOutOfRange, "item %s weight %d must be positive", i.Handle(), weight)
	}

	i.mu.Lock()
	changed := i.singleWeight != weight
	i.singleWeight = weight
	i.mu.Unlock()

	if changed {
		i.notifyOwner()
	}
	return nil
}

// TotalWeight 单体重量 * 数量
func (i *Item) TotalWeight() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.singleWeight * i.amount
}

func (i *Item) DisplayName() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.displayName
}

// DefaultDisplayName 元数据中的默认名称，不受 SetDisplayName 影响
func (i *Item) DefaultDisplayName() string {
	return i.meta.DisplayName()
}

func (i *Item) SetDisplayName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.Wrapf(ErrInvalidArgument, "item %s display name is blank", i.Handle())
	}
	i.mu.Lock()
	i.displayName = name
	i.mu.Unlock()
	return nil
}

// ResetDisplayName 恢复默认名称
func (i *Item) ResetDisplayName() {
	i.mu.Lock()
	i.displayName = i.meta.DisplayName()
	i.mu.Unlock()
}

func (i *Item) IsLocked() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.locked
}

func (i *Item) SetLocked(locked bool) {
	i.mu.Lock()
	i.locked = locked
	i.mu.Unlock()
}

// IsMovingLocked 物品被锁定或被单独禁止移动时为 true
func (i *Item) IsMovingLocked() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.locked || i.movingLocked
}

func (i *Item) SetMovingLocked(locked bool) {
	i.mu.Lock()
	i.movingLocked = locked
	i.mu.Unlock()
}

// Attribute 读取物品实例上的自定义属性
func (i *Item) Attribute(key string) (any, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	v, ok := i.attributes[key]
	return v, ok
}

func (i *Item) SetAttribute(key string, value any) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.attributes == nil {
		i.attributes = make(map[string]any)
	}
	i.attributes[key] = value
}

// CurrentInventory 当前所属背包，不在任何背包中时返回 nil
func (i *Item) CurrentInventory() *Inventory {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.owner.Value()
}

// CurrentInventoryID 当前所属背包的 ID
func (i *Item) CurrentInventoryID() (uuid.UUID, bool) {
	if inv := i.CurrentInventory(); inv != nil {
		return inv.ID(), true
	}
	return uuid.Nil, false
}

// setCurrentInventory 只能由 Inventory 调用，用于建立或解除双向关联
func (i *Item) setCurrentInventory(inv *Inventory) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if inv == nil {
		i.owner = weak.Pointer[Inventory]{}
		return
	}
	i.owner = weak.Make(inv)
}

// CanMergeWith 判断 source 能否合并到当前物品，不产生副作用
func (i *Item) CanMergeWith(source *Item) (bool, error) {
	if source == nil {
		return false, errors.Wrap(ErrInvalidArgument, "merge source is nil")
	}
	if source == i {
		return false, nil
	}
	if !i.IsStackable() || !source.IsStackable() {
		return false, nil
	}
	if i.Handle() != source.Handle() {
		return false, nil
	}

	source.mu.RLock()
	srcAmount, srcWeight := source.amount, source.singleWeight
	source.mu.RUnlock()

	return srcAmount > 0 && srcWeight == i.SingleWeight(), nil
}

// MergeItem 把 source 的数量全部转移到当前物品，source 数量归零
// 不检查 CanMergeWith，调用方负责先判断
func (i *Item) MergeItem(ctx context.Context, source *Item) error {
	if source == nil {
		return errors.Wrap(ErrInvalidArgument, "merge source is nil")
	}
	if source == i {
		return errors.Wrapf(ErrInvalidArgument, "item %s cannot merge with itself", i.id)
	}

	source.mu.Lock()
	moved := source.amount
	source.amount = 0
	source.mu.Unlock()

	i.mu.Lock()
	i.amount += moved
	i.mu.Unlock()

	if moved != 0 {
		source.notifyOwner()
		i.notifyOwner()
	}
	return nil
}

// takeAmount 从堆叠中扣除 n 个，扣除后至少保留 1 个
func (i *Item) takeAmount(n int) error {
	i.mu.Lock()
	if n < 1 || n >= i.amount {
		current := i.amount
		i.mu.Unlock()
		return errors.Wrapf(ErrOutOfRange, "item %s cannot take %d of %d", i.Handle(), n, current)
	}
	i.amount -= n
	i.mu.Unlock()

	i.notifyOwner()
	return nil
}

// copyStateTo 复制单体重量、名称和属性，拆分时使用
func (i *Item) copyStateTo(dst *Item) {
	i.mu.RLock()
	weight, name := i.singleWeight, i.displayName
	attrs := make(map[string]any, len(i.attributes))
	for k, v := range i.attributes {
		attrs[k] = v
	}
	i.mu.RUnlock()

	dst.mu.Lock()
	dst.singleWeight = weight
	dst.displayName = name
	if len(attrs) > 0 {
		dst.attributes = attrs
	}
	dst.mu.Unlock()
}

// notifyOwner 通知所属背包重算容量，调用时不能持有 i.mu
func (i *Item) notifyOwner() {
	if inv := i.CurrentInventory(); inv != nil {
		inv.onItemChanged(i)
	}
}

func (i *Item) String() string {
	return fmt.Sprintf("%s x%d (%s)", i.Handle(), i.Amount(), i.id)
}
