package inventory

import "github.com/cockroachdb/errors"

// 背包核心错误，调用方通过 errors.Is 判断类型
// 返回的错误都会用 errors.Wrapf 附带上下文
var (
	// ErrInvalidArgument 必填参数为 nil 或空白
	ErrInvalidArgument = errors.New("inventory: invalid argument")

	// ErrOutOfRange 数值参数越界
	ErrOutOfRange = errors.New("inventory: argument out of range")

	// ErrInventoryCapacity 物品重量超过剩余容量
	ErrInventoryCapacity = errors.New("inventory: not enough capacity")

	// ErrItemNotAllowed 物品被背包过滤器拒绝
	ErrItemNotAllowed = errors.New("inventory: item not allowed")

	// ErrItemNotMovable 物品处于锁定状态
	ErrItemNotMovable = errors.New("inventory: item not movable")

	// ErrItemMetaNotFound handle 无法在注册表中解析
	ErrItemMetaNotFound = errors.New("inventory: item meta not found")

	// ErrItemNotStackable 不可堆叠物品请求数量大于 1
	ErrItemNotStackable = errors.New("inventory: item not stackable")

	// ErrInvalidRegistry 注册表数据非法（nil 集合或重复 handle）
	ErrInvalidRegistry = errors.New("inventory: invalid registry")

	// ErrWeightNotChangeable 物品元数据不允许修改单体重量
	ErrWeightNotChangeable = errors.New("inventory: item weight not changeable")
)

func IsInvalidArgument(err error) bool { return errors.Is(err, ErrInvalidArgument) }

func IsOutOfRange(err error) bool { return errors.Is(err, ErrOutOfRange) }

func IsInventoryCapacity(err error) bool { return errors.Is(err, ErrInventoryCapacity) }

func IsItemNotAllowed(err error) bool { return errors.Is(err, ErrItemNotAllowed) }

func IsItemNotMovable(err error) bool { return errors.Is(err, ErrItemNotMovable) }

func IsItemMetaNotFound(err error) bool { return errors.Is(err, ErrItemMetaNotFound) }

// IsRejected 判断是否为业务规则拒绝（容量、过滤器、锁定），而不是参数错误
func IsRejected(err error) bool {
	return IsInventoryCapacity(err) || IsItemNotAllowed(err) || IsItemNotMovable(err)
}
