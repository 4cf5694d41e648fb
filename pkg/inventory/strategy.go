package inventory

import (
	"context"
	"iter"
	"reflect"
	"sync"

	"github.com/cockroachdb/errors"
)

// StrategyHandler 有序的策略集合，按注册顺序执行
// 只支持追加，不支持插入、重排或去重
type StrategyHandler[T any] struct {
	mu         sync.RWMutex
	strategies []T
}

// Add 追加策略，nil 返回 ErrInvalidArgument
func (h *StrategyHandler[T]) Add(strategy T) error {
	if isNilStrategy(strategy) {
		return errors.Wrap(ErrInvalidArgument, "strategy is nil")
	}
	h.mu.Lock()
	h.strategies = append(h.strategies, strategy)
	h.mu.Unlock()
	return nil
}

func (h *StrategyHandler[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.strategies)
}

// All 按注册顺序遍历策略快照，遍历期间新增的策略不会出现
func (h *StrategyHandler[T]) All() iter.Seq2[int, T] {
	h.mu.RLock()
	snapshot := append([]T(nil), h.strategies...)
	h.mu.RUnlock()

	return func(yield func(int, T) bool) {
		for idx, s := range snapshot {
			if !yield(idx, s) {
				return
			}
		}
	}
}

func isNilStrategy(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Func, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// ===== 合并策略 =====

// MergeStrategy 合并策略
type MergeStrategy interface {
	// CanBeMerged 判断 source 能否合并进 target
	CanBeMerged(target, source *Item) bool
	// MergeItemWith 执行合并，能看到之前的策略留下的状态
	MergeItemWith(ctx context.Context, target, source *Item) error
}

// MergeStrategyHandler 合并策略链
type MergeStrategyHandler struct {
	StrategyHandler[MergeStrategy]
}

// NewMergeStrategyHandler 创建合并策略链
func NewMergeStrategyHandler(strategies ...MergeStrategy) (*MergeStrategyHandler, error) {
	h := &MergeStrategyHandler{}
	for _, s := range strategies {
		if err := h.Add(s); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// CanBeMerged 所有策略都同意才可合并，遇到第一个 false 立即返回，后续策略不会被调用
// 没有注册任何策略时返回 false
func (h *MergeStrategyHandler) CanBeMerged(target, source *Item) (bool, error) {
	if target == nil || source == nil {
		return false, errors.Wrap(ErrInvalidArgument, "merge target and source are required")
	}
	if h.Len() == 0 {
		return false, nil
	}
	for _, s := range h.All() {
		if !s.CanBeMerged(target, source) {
			return false, nil
		}
	}
	return true, nil
}

// MergeItemWith 依次执行所有策略的合并逻辑，遇到错误立即返回
func (h *MergeStrategyHandler) MergeItemWith(ctx context.Context, target, source *Item) error {
	if target == nil || source == nil {
		return errors.Wrap(ErrInvalidArgument, "merge target and source are required")
	}
	for idx, s := range h.All() {
		if err := s.MergeItemWith(ctx, target, source); err != nil {
			return errors.Wrapf(err, "merge strategy #%d", idx)
		}
	}
	return nil
}

// DefaultMergeStrategy 内置合并策略，语义与 Item.CanMergeWith / Item.MergeItem 一致
type DefaultMergeStrategy struct{}

func (DefaultMergeStrategy) CanBeMerged(target, source *Item) bool {
	ok, err := target.CanMergeWith(source)
	return err == nil && ok
}

func (DefaultMergeStrategy) MergeItemWith(ctx context.Context, target, source *Item) error {
	return target.MergeItem(ctx, source)
}

// MergeStrategyFunc 由两个函数组成的合并策略，Merge 为 nil 时不做转移
type MergeStrategyFunc struct {
	Can   func(target, source *Item) bool
	Merge func(ctx context.Context, target, source *Item) error
}

func (f MergeStrategyFunc) CanBeMerged(target, source *Item) bool {
	if f.Can == nil {
		return true
	}
	return f.Can(target, source)
}

func (f MergeStrategyFunc) MergeItemWith(ctx context.Context, target, source *Item) error {
	if f.Merge == nil {
		return nil
	}
	return f.Merge(ctx, target, source)
}

// MergeCondition 只做判断不做转移的合并策略，常用于追加否决条件
type MergeCondition func(target, source *Item) bool

func (f MergeCondition) CanBeMerged(target, source *Item) bool { return f(target, source) }

func (f MergeCondition) MergeItemWith(context.Context, *Item, *Item) error { return nil }

// MaxStackStrategy 合并后数量超过单格上限时拒绝合并
// Limit 返回 <= 0 表示无上限
type MaxStackStrategy struct {
	Limit func(handle string) int
}

// NewMaxStackStrategy 用固定的 handle -> 上限表构造
func NewMaxStackStrategy(limits map[string]int) *MaxStackStrategy {
	table := make(map[string]int, len(limits))
	for k, v := range limits {
		table[k] = v
	}
	return &MaxStackStrategy{Limit: func(handle string) int { return table[handle] }}
}

func (s *MaxStackStrategy) CanBeMerged(target, source *Item) bool {
	limit := s.Limit(target.Handle())
	if limit <= 0 {
		return true
	}
	return target.Amount()+source.Amount() <= limit
}

func (s *MaxStackStrategy) MergeItemWith(context.Context, *Item, *Item) error { return nil }

// ===== 拆分策略 =====

// SplitStrategy 拆分策略，在拆分完成后收到通知
type SplitStrategy interface {
	SplitItem(ctx context.Context, oldItem, newItem *Item) error
}

// SplitStrategyFunc 函数式拆分策略
type SplitStrategyFunc func(ctx context.Context, oldItem, newItem *Item) error

func (f SplitStrategyFunc) SplitItem(ctx context.Context, oldItem, newItem *Item) error {
	return f(ctx, oldItem, newItem)
}

// SplitStrategyHandler 拆分策略链
type SplitStrategyHandler struct {
	StrategyHandler[SplitStrategy]
}

// NewSplitStrategyHandler 创建拆分策略链
func NewSplitStrategyHandler(strategies ...SplitStrategy) (*SplitStrategyHandler, error) {
	h := &SplitStrategyHandler{}
	for _, s := range strategies {
		if err := h.Add(s); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// SplitItem 无条件调用所有策略，错误会被合并后返回
func (h *SplitStrategyHandler) SplitItem(ctx context.Context, oldItem, newItem *Item) error {
	if oldItem == nil || newItem == nil {
		return errors.Wrap(ErrInvalidArgument, "split items are required")
	}
	var combined error
	for idx, s := range h.All() {
		if err := s.SplitItem(ctx, oldItem, newItem); err != nil {
			combined = errors.CombineErrors(combined, errors.Wrapf(err, "split strategy #%d", idx))
		}
	}
	return combined
}
