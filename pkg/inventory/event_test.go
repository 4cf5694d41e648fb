package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventRecorder struct {
	events []Event
}

func (r *eventRecorder) observe(e Event) { r.events = append(r.events, e) }

func (r *eventRecorder) actions() []Action {
	actions := make([]Action, len(r.events))
	for idx, e := range r.events {
		actions[idx] = e.Action
	}
	return actions
}

func TestInventory_Events(t *testing.T) {
	ctx := context.Background()
	inv := mustInventory(t, 100)
	rec := &eventRecorder{}
	unsubscribe := inv.Subscribe(rec.observe)

	a := mustItem(t, waterMeta, 3)
	b := mustItem(t, waterMeta, 2)

	_, err := inv.InsertItem(ctx, a, false)
	require.NoError(t, err)
	_, err = inv.InsertItem(ctx, b, false)
	require.NoError(t, err)
	_, err = inv.SetCapacity(50)
	require.NoError(t, err)
	_, err = inv.SetCapacity(50)
	require.NoError(t, err)
	_, err = inv.RemoveItem(ctx, a)
	require.NoError(t, err)

	assert.Equal(t, []Action{
		ActionItemAdded,
		ActionItemChanged,
		ActionItemMerged,
		ActionCapacityChanged,
		ActionItemRemoved,
	}, rec.actions())

	added := rec.events[0]
	assert.Same(t, inv, added.Inventory)
	assert.Same(t, a, added.Item)
	assert.True(t, added.HasChanged(PropertyItems))
	assert.True(t, added.HasChanged(PropertyUsedCapacity))
	assert.False(t, added.HasChanged(PropertyCapacity))

	assert.Same(t, b, rec.events[2].Item)
	assert.Nil(t, rec.events[3].Item)
	assert.True(t, rec.events[3].HasChanged(PropertyCapacity))

	unsubscribe()
	unsubscribe()
	_, err = inv.InsertItem(ctx, a, false)
	require.NoError(t, err)
	assert.Len(t, rec.events, 5)
}

func TestInventory_EventsAfterMutation(t *testing.T) {
	ctx := context.Background()
	inv := mustInventory(t, 100)
	item := mustItem(t, stoneMeta, 2)

	var used []int
	inv.Subscribe(func(e Event) {
		used = append(used, e.Inventory.UsedCapacity())
		switch e.Action {
		case ActionItemAdded, ActionItemChanged:
			assert.True(t, e.Inventory.Contains(item))
		case ActionItemRemoved:
			assert.False(t, e.Inventory.Contains(item))
		}
	})

	_, err := inv.InsertItem(ctx, item, false)
	require.NoError(t, err)
	require.NoError(t, item.SetAmount(4))
	_, err = inv.RemoveItem(ctx, item)
	require.NoError(t, err)

	assert.Equal(t, []int{6, 12, 0}, used)
}

func TestInventory_UnsubscribeDuringEmit(t *testing.T) {
	inv := mustInventory(t, 10)
	calls := 0
	var unsubscribe func()
	unsubscribe = inv.Subscribe(func(Event) {
		calls++
		unsubscribe()
	})
	second := 0
	inv.Subscribe(func(Event) { second++ })

	_, err := inv.SetCapacity(20)
	require.NoError(t, err)
	_, err = inv.SetCapacity(30)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, second)
}

func TestInventory_SubscribeNil(t *testing.T) {
	ctx := context.Background()
	inv := mustInventory(t, 10)
	rec := &eventRecorder{}

	unsubscribe := inv.Subscribe(nil)
	require.NotNil(t, unsubscribe)
	inv.Subscribe(rec.observe)

	assert.NotPanics(t, func() {
		_, err := inv.SetCapacity(20)
		require.NoError(t, err)
		_, err = inv.InsertItem(ctx, mustItem(t, stoneMeta, 1), false)
		require.NoError(t, err)
	})
	assert.Equal(t, []Action{ActionCapacityChanged, ActionItemAdded}, rec.actions())
	assert.NotPanics(t, unsubscribe)
}

func TestActionAndPropertyString(t *testing.T) {
	assert.Equal(t, "item_merged", ActionItemMerged.String())
	assert.Equal(t, "unknown", Action(0).String())
	assert.Equal(t, "available_capacity", PropertyAvailableCapacity.String())
	assert.Equal(t, "unknown", Property(99).String())
}
