package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-inventory/pkg/inventory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stone = inventory.MustItemMeta("stone", inventory.KindDefault, "Stone", 2, 0)

func newItem(t *testing.T, amount int) *inventory.Item {
	t.Helper()
	f, err := inventory.NewItemFactory(nil)
	require.NoError(t, err)
	item, err := f.CreateItem(stone, amount)
	require.NoError(t, err)
	return item
}

func TestNew(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, "game", m.config.Namespace)
	assert.Equal(t, "inventory", m.config.Subsystem)

	m, err = New(&Config{Namespace: "test"})
	require.NoError(t, err)
	assert.Equal(t, "test", m.config.Namespace)
	assert.Equal(t, "inventory", m.config.Subsystem)

	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))
	assert.Error(t, m.Register(reg))
}

func TestInventoryMetrics_Observe(t *testing.T) {
	ctx := context.Background()
	m, err := New(&Config{Namespace: "test"})
	require.NoError(t, err)

	inv, err := inventory.New(20)
	require.NoError(t, err)

	stop := m.Observe(inv)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Inventories))
	assert.Equal(t, float64(20), testutil.ToFloat64(m.Capacity))

	item := newItem(t, 3)
	_, err = inv.InsertItem(ctx, item, false)
	require.NoError(t, err)
	assert.Equal(t, float64(6), testutil.ToFloat64(m.Used))

	_, err = inv.InsertItem(ctx, newItem(t, 2), false)
	require.NoError(t, err)
	assert.Equal(t, float64(10), testutil.ToFloat64(m.Used))

	_, err = inv.SetCapacity(40)
	require.NoError(t, err)
	assert.Equal(t, float64(40), testutil.ToFloat64(m.Capacity))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Events.WithLabelValues("item_added")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Events.WithLabelValues("item_merged")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Events.WithLabelValues("capacity_changed")))

	// 重复观察同一个背包不会重复计数
	m.Observe(inv)()
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Inventories))

	stop()
	stop()
	assert.Equal(t, float64(0), testutil.ToFloat64(m.Inventories))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.Capacity))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.Used))

	_, err = inv.RemoveItem(ctx, item)
	require.NoError(t, err)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.Events.WithLabelValues("item_removed")))
}

func TestInsertResult(t *testing.T) {
	tests := []struct {
		name     string
		inserted bool
		err      error
		want     string
	}{
		{name: "inserted", inserted: true, want: ResultSuccess},
		{name: "already present", want: ResultNoop},
		{name: "capacity", err: errors.Wrap(inventory.ErrInventoryCapacity, "full"), want: ResultCapacity},
		{name: "filter", err: inventory.ErrItemNotAllowed, want: ResultFilter},
		{name: "locked", err: inventory.ErrItemNotMovable, want: ResultLocked},
		{name: "other", err: inventory.ErrInvalidArgument, want: ResultError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InsertResult(tt.inserted, tt.err))
		})
	}
}

func TestHandler(t *testing.T) {
	m, err := New(&Config{Namespace: "test"})
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))

	m.RecordInsert(true, nil)
	m.RecordInsert(false, inventory.ErrInventoryCapacity)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `test_inventory_inserts_total{result="success"} 1`))
	assert.True(t, strings.Contains(body, `test_inventory_inserts_total{result="capacity"} 1`))
}
