package gameconfig

import (
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-viper/mapstructure/v2"
	"github.com/lk2023060901/xdooria-inventory/pkg/inventory"
)

// ErrUnknownFlag 物品表中出现未知的 flag 名称
var ErrUnknownFlag = errors.New("gameconfig: unknown item flag")

// ItemDefinition 物品表中的一行
type ItemDefinition struct {
	Handle      string              `mapstructure:"handle" json:"handle" yaml:"handle" validate:"required"`
	Kind        string              `mapstructure:"kind" json:"kind" yaml:"kind"`
	DisplayName string              `mapstructure:"display_name" json:"display_name" yaml:"display_name" validate:"required"`
	Weight      int                 `mapstructure:"weight" json:"weight" yaml:"weight" validate:"gt=0"`
	Flags       inventory.ItemFlags `mapstructure:"flags" json:"flags" yaml:"flags"`
	// MaxStack 单个堆叠的数量上限，0 表示不限制
	MaxStack int `mapstructure:"max_stack" json:"max_stack" yaml:"max_stack" validate:"gte=0"`
}

// Meta 转换为物品元数据
func (d ItemDefinition) Meta() (*inventory.ItemMeta, error) {
	return inventory.NewItemMeta(d.Handle, inventory.ItemKind(d.Kind), d.DisplayName, d.Weight, d.Flags)
}

// ItemTable 物品表
type ItemTable struct {
	Items []ItemDefinition `mapstructure:"items" json:"items" yaml:"items" validate:"dive"`
}

// Metas 按表中顺序转换全部元数据
func (t *ItemTable) Metas() ([]*inventory.ItemMeta, error) {
	metas := make([]*inventory.ItemMeta, 0, len(t.Items))
	for idx, def := range t.Items {
		meta, err := def.Meta()
		if err != nil {
			return nil, errors.Wrapf(err, "item #%d", idx)
		}
		metas = append(metas, meta)
	}
	return metas, nil
}

// MaxStackLimits handle -> 堆叠上限，只包含设置了上限的物品
func (t *ItemTable) MaxStackLimits() map[string]int {
	limits := make(map[string]int)
	for _, def := range t.Items {
		if def.MaxStack > 0 {
			limits[def.Handle] = def.MaxStack
		}
	}
	return limits
}

var flagNames = map[string]inventory.ItemFlags{
	"not_stackable":     inventory.FlagNotStackable,
	"weight_changeable": inventory.FlagWeightChangeable,
}

// ParseFlags 解析 "not_stackable|weight_changeable" 形式的 flag 字符串
func ParseFlags(s string) (inventory.ItemFlags, error) {
	var flags inventory.ItemFlags
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' }) {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" || name == "none" {
			continue
		}
		flag, ok := flagNames[name]
		if !ok {
			return 0, errors.Wrapf(ErrUnknownFlag, "%q", name)
		}
		flags |= flag
	}
	return flags, nil
}

// FlagsHookFunc 允许物品表用字符串或字符串列表描述 flags
func FlagsHookFunc() mapstructure.DecodeHookFuncType {
	target := reflect.TypeOf(inventory.ItemFlags(0))
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != target {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return ParseFlags(v)
		case []any:
			parts := make([]string, 0, len(v))
			for _, p := range v {
				s, ok := p.(string)
				if !ok {
					return nil, errors.Wrapf(ErrUnknownFlag, "%v", p)
				}
				parts = append(parts, s)
			}
			return ParseFlags(strings.Join(parts, "|"))
		case []string:
			return ParseFlags(strings.Join(v, "|"))
		default:
			return data, nil
		}
	}
}
