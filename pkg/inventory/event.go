package inventory

import "sync"

// Property 背包上可被观察的派生属性
type Property int

const (
	PropertyItems Property = iota + 1
	PropertyCapacity
	PropertyUsedCapacity
	PropertyAvailableCapacity
)

func (p Property) String() string {
	switch p {
	case PropertyItems:
		return "items"
	case PropertyCapacity:
		return "capacity"
	case PropertyUsedCapacity:
		return "used_capacity"
	case PropertyAvailableCapacity:
		return "available_capacity"
	default:
		return "unknown"
	}
}

// Action 触发事件的操作
type Action int

const (
	ActionItemAdded Action = iota + 1
	ActionItemRemoved
	// ActionItemMerged 插入的物品被已有堆叠吸收，Item 为被吸收的物品
	ActionItemMerged
	// ActionItemChanged 背包内物品的数量或重量变化
	ActionItemChanged
	ActionCapacityChanged
)

func (a Action) String() string {
	switch a {
	case ActionItemAdded:
		return "item_added"
	case ActionItemRemoved:
		return "item_removed"
	case ActionItemMerged:
		return "item_merged"
	case ActionItemChanged:
		return "item_changed"
	case ActionCapacityChanged:
		return "capacity_changed"
	default:
		return "unknown"
	}
}

// Event 背包变更事件，在变更完成后、操作返回前同步投递
type Event struct {
	Action    Action
	Inventory *Inventory
	// Item 相关物品，容量变更时为 nil
	Item *Item
	// Changed 发生变化的属性
	Changed []Property
}

// HasChanged 判断事件是否包含某个属性的变化
func (e Event) HasChanged(p Property) bool {
	for _, c := range e.Changed {
		if c == p {
			return true
		}
	}
	return false
}

// Observer 背包事件观察者，在触发变更的 goroutine 上执行
type Observer func(Event)

type subscription struct {
	id       uint64
	observer Observer
}

type observerList struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
}

func (l *observerList) add(o Observer) func() {
	if o == nil {
		return func() {}
	}
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.subs = append(l.subs, subscription{id: id, observer: o})
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			for idx, s := range l.subs {
				if s.id == id {
					l.subs = append(l.subs[:idx:idx], l.subs[idx+1:]...)
					return
				}
			}
		})
	}
}

// emit 按订阅顺序投递，观察者内可以安全地订阅或退订
func (l *observerList) emit(e Event) {
	l.mu.RLock()
	subs := append([]subscription(nil), l.subs...)
	l.mu.RUnlock()

	for _, s := range subs {
		s.observer(e)
	}
}
