package inventory

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStrategy struct {
	answer bool
	checks int
	merges int
}

func (s *countingStrategy) CanBeMerged(*Item, *Item) bool {
	s.checks++
	return s.answer
}

func (s *countingStrategy) MergeItemWith(context.Context, *Item, *Item) error {
	s.merges++
	return nil
}

func TestMergeStrategyHandler_ShortCircuit(t *testing.T) {
	first := &countingStrategy{answer: true}
	second := &countingStrategy{answer: false}
	third := &countingStrategy{answer: true}

	h, err := NewMergeStrategyHandler(first, second, third)
	require.NoError(t, err)

	ok, err := h.CanBeMerged(mustItem(t, waterMeta, 1), mustItem(t, waterMeta, 1))
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 1, first.checks)
	assert.Equal(t, 1, second.checks)
	assert.Equal(t, 0, third.checks)
}

func TestMergeStrategyHandler_Empty(t *testing.T) {
	h, err := NewMergeStrategyHandler()
	require.NoError(t, err)
	assert.Equal(t, 0, h.Len())

	ok, err := h.CanBeMerged(mustItem(t, waterMeta, 1), mustItem(t, waterMeta, 1))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMergeStrategyHandler_InvalidArguments(t *testing.T) {
	h, err := NewMergeStrategyHandler(DefaultMergeStrategy{})
	require.NoError(t, err)
	item := mustItem(t, waterMeta, 1)

	_, err = h.CanBeMerged(nil, item)
	assert.True(t, IsInvalidArgument(err))
	assert.True(t, IsInvalidArgument(h.MergeItemWith(context.Background(), item, nil)))

	assert.True(t, IsInvalidArgument(h.Add(nil)))
	var nilStack *MaxStackStrategy
	assert.True(t, IsInvalidArgument(h.Add(nilStack)))

	_, err = NewMergeStrategyHandler(nil)
	assert.True(t, IsInvalidArgument(err))
}

func TestMergeStrategyHandler_MergeOrder(t *testing.T) {
	var order []string
	record := func(name string, fail bool) MergeStrategy {
		return MergeStrategyFunc{Merge: func(context.Context, *Item, *Item) error {
			order = append(order, name)
			if fail {
				return errors.New(name + " failed")
			}
			return nil
		}}
	}

	h, err := NewMergeStrategyHandler(record("a", false), record("b", true), record("c", false))
	require.NoError(t, err)

	err = h.MergeItemWith(context.Background(), mustItem(t, waterMeta, 1), mustItem(t, waterMeta, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "merge strategy #1")
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestMergeStrategyHandler_AllSnapshot(t *testing.T) {
	h, err := NewMergeStrategyHandler(DefaultMergeStrategy{})
	require.NoError(t, err)

	visited := 0
	for range h.All() {
		visited++
		require.NoError(t, h.Add(DefaultMergeStrategy{}))
	}
	assert.Equal(t, 1, visited)
	assert.Equal(t, 2, h.Len())
}

func TestMaxStackStrategy(t *testing.T) {
	ctx := context.Background()
	inv := mustInventory(t, 1000, WithMergeStrategies(NewMaxStackStrategy(map[string]int{"water": 5})))

	a := mustItem(t, waterMeta, 4)
	b := mustItem(t, waterMeta, 1)
	c := mustItem(t, waterMeta, 1)
	for _, item := range []*Item{a, b, c} {
		ok, err := inv.InsertItem(ctx, item, false)
		require.NoError(t, err)
		require.True(t, ok)
	}

	assert.Equal(t, 5, a.Amount())
	assert.Equal(t, 0, b.Amount())
	assert.Equal(t, 2, inv.Count())
	assert.Same(t, c, inv.Items()[1])

	stones := NewMaxStackStrategy(nil)
	assert.True(t, stones.CanBeMerged(mustItem(t, stoneMeta, 99), mustItem(t, stoneMeta, 99)))
}

func TestSplitStrategyHandler_FanOut(t *testing.T) {
	calls := 0
	failing := SplitStrategyFunc(func(context.Context, *Item, *Item) error {
		calls++
		return errors.New("boom")
	})

	h, err := NewSplitStrategyHandler(failing, failing, failing)
	require.NoError(t, err)

	err = h.SplitItem(context.Background(), mustItem(t, waterMeta, 2), mustItem(t, waterMeta, 1))
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "split strategy #0")

	assert.True(t, IsInvalidArgument(h.SplitItem(context.Background(), nil, nil)))
}
