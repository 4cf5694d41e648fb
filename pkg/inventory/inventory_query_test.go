package inventory

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloorDiv(t *testing.T) {
	tests := []struct {
		available int
		weight    int
		want      int
	}{
		{available: 3, weight: 2, want: 1},
		{available: 4, weight: 2, want: 2},
		{available: 0, weight: 5, want: 0},
		{available: 2, weight: 3, want: 0},
		{available: -1, weight: 2, want: -1},
		{available: -4, weight: 2, want: -2},
		{available: -5, weight: 2, want: -3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, floorDiv(tt.available, tt.weight), "%d/%d", tt.available, tt.weight)
	}
}

func TestInventory_FitAmount(t *testing.T) {
	ctx := context.Background()
	inv := mustInventory(t, 3, WithRegistry(testRegistry(t)))
	rope := mustItem(t, ropeMeta, 1)

	n, err := inv.GetItemFitAmount(rope)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = inv.GetMetaFitAmount(stoneMeta)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = inv.GetHandleFitAmount("water")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = inv.InsertItem(ctx, mustItem(t, swordMeta, 1), true)
	require.NoError(t, err)
	n, err = inv.GetItemFitAmount(rope)
	require.NoError(t, err)
	assert.Equal(t, -1, n)

	_, err = inv.GetItemFitAmount(nil)
	assert.True(t, IsInvalidArgument(err))
	_, err = inv.GetMetaFitAmount(nil)
	assert.True(t, IsInvalidArgument(err))
	_, err = inv.GetHandleFitAmount("ghost")
	assert.True(t, IsItemMetaNotFound(err))
}

func TestInventory_DoesFit(t *testing.T) {
	inv := mustInventory(t, 10, WithRegistry(testRegistry(t)))

	ok, err := inv.DoesItemFit(mustItem(t, stoneMeta, 3))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = inv.DoesItemFit(mustItem(t, stoneMeta, 4))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = inv.DoesMetaFit(swordMeta, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = inv.DoesHandleFit("sword", 3)
	require.NoError(t, err)
	assert.False(t, ok)

	tests := []struct {
		name  string
		call  func() error
		check func(error) bool
	}{
		{name: "nil item", call: func() error { _, err := inv.DoesItemFit(nil); return err }, check: IsInvalidArgument},
		{name: "nil meta", call: func() error { _, err := inv.DoesMetaFit(nil, 1); return err }, check: IsInvalidArgument},
		{name: "zero meta amount", call: func() error { _, err := inv.DoesMetaFit(waterMeta, 0); return err }, check: IsOutOfRange},
		{name: "blank handle", call: func() error { _, err := inv.DoesHandleFit(" ", 1); return err }, check: IsInvalidArgument},
		{name: "negative handle amount", call: func() error { _, err := inv.DoesHandleFit("water", -1); return err }, check: IsOutOfRange},
		{name: "unknown handle", call: func() error { _, err := inv.DoesHandleFit("ghost", 1); return err }, check: IsItemMetaNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.call()))
		})
	}

	bare := mustInventory(t, 10)
	_, err = bare.DoesHandleFit("water", 1)
	assert.True(t, IsItemMetaNotFound(err))

	broken, err := NewRegistry(func() ([]*ItemMeta, error) { return nil, errors.New("offline") })
	require.NoError(t, err)
	_, err = mustInventory(t, 10, WithRegistry(broken)).GetHandleFitAmount("water")
	require.Error(t, err)
	assert.False(t, IsItemMetaNotFound(err))
}

func TestInventory_CanBeInserted(t *testing.T) {
	inv := mustInventory(t, 10, WithItemFilter(func(item *Item) bool { return item.Handle() != "water" }))

	stone := mustItem(t, stoneMeta, 1)
	assert.True(t, inv.CanBeInserted(stone))
	assert.False(t, inv.CanBeInserted(nil))
	assert.False(t, inv.CanBeInserted(mustItem(t, waterMeta, 1)))
	assert.False(t, inv.CanBeInserted(mustItem(t, stoneMeta, 4)))

	stone.SetMovingLocked(true)
	assert.False(t, inv.CanBeInserted(stone))
	assert.False(t, inv.IsItemAllowed(nil))
	assert.Equal(t, 0, inv.Count())
}

func TestInventory_GetInsertableItems(t *testing.T) {
	ctx := context.Background()
	source := mustInventory(t, 100)
	target := mustInventory(t, 6, WithItemFilter(func(item *Item) bool { return item.Kind() != "weapon" }))

	stone := mustItem(t, stoneMeta, 1)
	heavy := mustItem(t, stoneMeta, 3)
	sword := mustItem(t, swordMeta, 1)
	locked := mustItem(t, ropeMeta, 1)
	require.NoError(t, locked.SetSingleWeight(9))

	// 关闭合并，让两堆石头分开存放
	require.NoError(t, source.MergeStrategies().Add(MergeCondition(func(*Item, *Item) bool { return false })))
	for _, item := range []*Item{stone, heavy, sword, locked} {
		_, err := source.InsertItem(ctx, item, false)
		require.NoError(t, err)
	}
	locked.SetLocked(true)

	tests := []struct {
		name                         string
		capacity, allowance, movable bool
		want                         []*Item
	}{
		{name: "no checks", want: []*Item{stone, heavy, sword, locked}},
		{name: "capacity", capacity: true, want: []*Item{stone, sword}},
		{name: "allowance", allowance: true, want: []*Item{stone, heavy, locked}},
		{name: "movable", movable: true, want: []*Item{stone, heavy, sword}},
		{name: "all", capacity: true, allowance: true, movable: true, want: []*Item{stone}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := source.GetInsertableItems(target, tt.capacity, tt.allowance, tt.movable)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := source.GetInsertableItems(nil, true, true, true)
	assert.True(t, IsInvalidArgument(err))
	assert.Equal(t, 4, source.Count())
}
