package inventory

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// ItemFlags 物品元数据标记位
type ItemFlags uint8

const (
	// FlagNotStackable 每个物品实例只能有 1 个数量，且不参与合并
	FlagNotStackable ItemFlags = 1 << iota
	// FlagWeightChangeable 允许单个物品实例修改单体重量
	FlagWeightChangeable
)

// Has 判断是否包含全部指定标记
func (f ItemFlags) Has(flag ItemFlags) bool {
	return f&flag == flag
}

func (f ItemFlags) String() string {
	if f == 0 {
		return "none"
	}
	names := make([]string, 0, 2)
	if f.Has(FlagNotStackable) {
		names = append(names, "not_stackable")
	}
	if f.Has(FlagWeightChangeable) {
		names = append(names, "weight_changeable")
	}
	return strings.Join(names, "|")
}

// ItemKind 物品的具体实现类型，由 ItemFactory 决定构造时执行的初始化逻辑
type ItemKind string

// KindDefault 未声明 kind 的物品
const KindDefault ItemKind = "default"

// ItemMeta 物品静态描述，构造后不可变，同类物品共享同一个指针
type ItemMeta struct {
	handle        string
	kind          ItemKind
	displayName   string
	defaultWeight int
	flags         ItemFlags
}

// NewItemMeta 创建物品元数据，kind 为空时使用 KindDefault
func NewItemMeta(handle string, kind ItemKind, displayName string, defaultWeight int, flags ItemFlags) (*ItemMeta, error) {
	if strings.TrimSpace(handle) == "" {
		return nil, errors.Wrap(ErrInvalidArgument, "item meta handle is blank")
	}
	if strings.TrimSpace(displayName) == "" {
		return nil, errors.Wrapf(ErrInvalidArgument, "item meta %q display name is blank", handle)
	}
	if defaultWeight <= 0 {
		return nil, errors.Wrapf(ErrOutOfRange, "item meta %q weight %d must be positive", handle, defaultWeight)
	}
	if kind == "" {
		kind = KindDefault
	}
	return &ItemMeta{
		handle:        handle,
		kind:          kind,
		displayName:   displayName,
		defaultWeight: defaultWeight,
		flags:         flags,
	}, nil
}

// MustItemMeta 同 NewItemMeta，出错时 panic，用于静态表和测试
func MustItemMeta(handle string, kind ItemKind, displayName string, defaultWeight int, flags ItemFlags) *ItemMeta {
	meta, err := NewItemMeta(handle, kind, displayName, defaultWeight, flags)
	if err != nil {
		panic(err)
	}
	return meta
}

func (m *ItemMeta) Handle() string      { return m.handle }
func (m *ItemMeta) Kind() ItemKind      { return m.kind }
func (m *ItemMeta) DisplayName() string { return m.displayName }
func (m *ItemMeta) DefaultWeight() int  { return m.defaultWeight }
func (m *ItemMeta) Flags() ItemFlags    { return m.flags }

// IsStackable 是否可堆叠
func (m *ItemMeta) IsStackable() bool { return !m.flags.Has(FlagNotStackable) }

// IsWeightChangeable 是否允许修改单体重量
func (m *ItemMeta) IsWeightChangeable() bool { return m.flags.Has(FlagWeightChangeable) }
