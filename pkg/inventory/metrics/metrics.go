package metrics

import (
	"net/http"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/lk2023060901/xdooria-inventory/pkg/config"
	"github.com/lk2023060901/xdooria-inventory/pkg/inventory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config 指标配置
type Config struct {
	// Namespace 指标命名空间
	Namespace string `mapstructure:"namespace" json:"namespace" yaml:"namespace" validate:"required"`
	// Subsystem 指标子系统
	Subsystem string `mapstructure:"subsystem" json:"subsystem" yaml:"subsystem"`
	// Enabled 是否启用
	Enabled bool `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Namespace: "game",
		Subsystem: "inventory",
		Enabled:   true,
	}
}

// 插入结果标签
const (
	ResultSuccess  = "success"
	ResultNoop     = "noop"
	ResultCapacity = "capacity"
	ResultFilter   = "filter"
	ResultLocked   = "locked"
	ResultError    = "error"
)

type snapshot struct {
	capacity int
	used     int
}

// InventoryMetrics 背包指标
type InventoryMetrics struct {
	config *Config

	Events      *prometheus.CounterVec // 背包事件数（按 action）
	Inserts     *prometheus.CounterVec // 插入结果（按 result）
	Inventories prometheus.Gauge       // 被观察的背包数
	Capacity    prometheus.Gauge       // 被观察背包的容量之和
	Used        prometheus.Gauge       // 被观察背包的已用容量之和

	mu        sync.Mutex
	snapshots map[uuid.UUID]snapshot
}

// New 创建背包指标
func New(cfg *Config) (*InventoryMetrics, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to merge metrics config")
	}
	if err := config.NewValidator().Validate(newCfg); err != nil {
		return nil, err
	}

	m := &InventoryMetrics{
		config:    newCfg,
		snapshots: make(map[uuid.UUID]snapshot),

		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: newCfg.Namespace,
				Subsystem: newCfg.Subsystem,
				Name:      "events_total",
				Help:      "背包事件总数",
			},
			[]string{"action"},
		),
		Inserts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: newCfg.Namespace,
				Subsystem: newCfg.Subsystem,
				Name:      "inserts_total",
				Help:      "物品插入总数（按结果）",
			},
			[]string{"result"},
		),
		Inventories: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: newCfg.Namespace,
				Subsystem: newCfg.Subsystem,
				Name:      "observed",
				Help:      "当前被观察的背包数",
			},
		),
		Capacity: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: newCfg.Namespace,
				Subsystem: newCfg.Subsystem,
				Name:      "capacity",
				Help:      "被观察背包的总容量",
			},
		),
		Used: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: newCfg.Namespace,
				Subsystem: newCfg.Subsystem,
				Name:      "used_capacity",
				Help:      "被观察背包的已用容量",
			},
		),
	}
	return m, nil
}

// Register 注册指标到 Prometheus Registry
func (m *InventoryMetrics) Register(registerer prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.Events,
		m.Inserts,
		m.Inventories,
		m.Capacity,
		m.Used,
	}
	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Observe 订阅背包事件并维护容量指标，返回的函数用于停止观察
func (m *InventoryMetrics) Observe(inv *inventory.Inventory) func() {
	m.mu.Lock()
	if _, exists := m.snapshots[inv.ID()]; exists {
		m.mu.Unlock()
		return func() {}
	}
	s := snapshot{capacity: inv.Capacity(), used: inv.UsedCapacity()}
	m.snapshots[inv.ID()] = s
	m.mu.Unlock()

	m.Inventories.Inc()
	m.Capacity.Add(float64(s.capacity))
	m.Used.Add(float64(s.used))

	unsubscribe := inv.Subscribe(func(e inventory.Event) {
		m.Events.WithLabelValues(e.Action.String()).Inc()
		if e.HasChanged(inventory.PropertyCapacity) || e.HasChanged(inventory.PropertyUsedCapacity) {
			m.update(e.Inventory)
		}
	})

	var once sync.Once
	return func() {
		once.Do(func() {
			unsubscribe()

			m.mu.Lock()
			last, ok := m.snapshots[inv.ID()]
			delete(m.snapshots, inv.ID())
			m.mu.Unlock()

			if ok {
				m.Inventories.Dec()
				m.Capacity.Sub(float64(last.capacity))
				m.Used.Sub(float64(last.used))
			}
		})
	}
}

func (m *InventoryMetrics) update(inv *inventory.Inventory) {
	next := snapshot{capacity: inv.Capacity(), used: inv.UsedCapacity()}

	m.mu.Lock()
	prev, ok := m.snapshots[inv.ID()]
	if ok {
		m.snapshots[inv.ID()] = next
	}
	m.mu.Unlock()

	if !ok {
		return
	}
	m.Capacity.Add(float64(next.capacity - prev.capacity))
	m.Used.Add(float64(next.used - prev.used))
}

// RecordInsert 记录一次插入结果
func (m *InventoryMetrics) RecordInsert(inserted bool, err error) {
	m.Inserts.WithLabelValues(InsertResult(inserted, err)).Inc()
}

// InsertResult 把插入结果归类为指标标签
func InsertResult(inserted bool, err error) string {
	switch {
	case err == nil && inserted:
		return ResultSuccess
	case err == nil:
		return ResultNoop
	case inventory.IsInventoryCapacity(err):
		return ResultCapacity
	case inventory.IsItemNotAllowed(err):
		return ResultFilter
	case inventory.IsItemNotMovable(err):
		return ResultLocked
	default:
		return ResultError
	}
}

// Handler 暴露 gatherer 中的指标
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
