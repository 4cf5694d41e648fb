package inventory

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// IsItemAllowed 只检查过滤器，未设置过滤器时接受全部
func (inv *Inventory) IsItemAllowed(item *Item) bool {
	if item == nil {
		return false
	}
	inv.mu.RLock()
	filter := inv.filter
	inv.mu.RUnlock()

	if filter == nil {
		return true
	}
	return filter(item)
}

// CanBeInserted 过滤器、容量、锁定三项都通过时为 true
func (inv *Inventory) CanBeInserted(item *Item) bool {
	if item == nil {
		return false
	}
	if !inv.IsItemAllowed(item) {
		return false
	}
	if fits, err := inv.DoesItemFit(item); err != nil || !fits {
		return false
	}
	return !item.IsMovingLocked()
}

// GetInsertableItems 返回本背包中可以放入 target 的物品，不修改任何状态
// 三个开关分别控制是否检查 target 的剩余容量、过滤器和物品锁定
func (inv *Inventory) GetInsertableItems(target *Inventory, checkCapacity, checkAllowance, checkMovable bool) ([]*Item, error) {
	if target == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "target inventory is nil")
	}

	available := target.AvailableCapacity()
	result := make([]*Item, 0)
	for _, item := range inv.Items() {
		if checkAllowance && !target.IsItemAllowed(item) {
			continue
		}
		if checkCapacity && item.TotalWeight() > available {
			continue
		}
		if checkMovable && item.IsMovingLocked() {
			continue
		}
		result = append(result, item)
	}
	return result, nil
}

// ===== 容量查询 =====

// DoesItemFit 物品总重量不超过剩余容量，不检查过滤器和锁定
func (inv *Inventory) DoesItemFit(item *Item) (bool, error) {
	if item == nil {
		return false, errors.Wrap(ErrInvalidArgument, "item is nil")
	}
	return item.TotalWeight() <= inv.AvailableCapacity(), nil
}

// DoesMetaFit 按元数据默认重量判断 amount 个物品能否放下
func (inv *Inventory) DoesMetaFit(meta *ItemMeta, amount int) (bool, error) {
	if meta == nil {
		return false, errors.Wrap(ErrInvalidArgument, "item meta is nil")
	}
	if amount <= 0 {
		return false, errors.Wrapf(ErrOutOfRange, "amount %d must be positive", amount)
	}
	return meta.DefaultWeight()*amount <= inv.AvailableCapacity(), nil
}

// DoesHandleFit 通过注册表解析 handle 后判断
func (inv *Inventory) DoesHandleFit(handle string, amount int) (bool, error) {
	if amount <= 0 {
		return false, errors.Wrapf(ErrOutOfRange, "amount %d must be positive", amount)
	}
	meta, err := inv.resolveMeta(handle)
	if err != nil {
		return false, err
	}
	return inv.DoesMetaFit(meta, amount)
}

// GetItemFitAmount 以物品当前单体重量计算还能放下的数量
// 剩余容量为负时结果为负
func (inv *Inventory) GetItemFitAmount(item *Item) (int, error) {
	if item == nil {
		return 0, errors.Wrap(ErrInvalidArgument, "item is nil")
	}
	return floorDiv(inv.AvailableCapacity(), item.SingleWeight()), nil
}

func (inv *Inventory) GetMetaFitAmount(meta *ItemMeta) (int, error) {
	if meta == nil {
		return 0, errors.Wrap(ErrInvalidArgument, "item meta is nil")
	}
	return floorDiv(inv.AvailableCapacity(), meta.DefaultWeight()), nil
}

func (inv *Inventory) GetHandleFitAmount(handle string) (int, error) {
	meta, err := inv.resolveMeta(handle)
	if err != nil {
		return 0, err
	}
	return inv.GetMetaFitAmount(meta)
}

func (inv *Inventory) resolveMeta(handle string) (*ItemMeta, error) {
	if strings.TrimSpace(handle) == "" {
		return nil, errors.Wrap(ErrInvalidArgument, "handle is blank")
	}
	if inv.registry == nil {
		return nil, errors.Wrapf(ErrItemMetaNotFound, "handle %q: inventory has no registry", handle)
	}
	meta, ok, err := inv.registry.TryGetMeta(handle)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrapf(ErrItemMetaNotFound, "handle %q", handle)
	}
	return meta, nil
}

// floorDiv 向下取整的整数除法，b 必须为正
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && (a < 0) {
		q--
	}
	return q
}
