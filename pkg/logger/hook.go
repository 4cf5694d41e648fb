package logger

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// Hook 日志钩子接口
type Hook interface {
	// OnWrite 日志写入前回调
	// 返回 false 则丢弃该条日志，后续钩子不再执行
	OnWrite(entry zapcore.Entry, fields []zapcore.Field) bool
}

// HookFunc 函数式 Hook
type HookFunc func(entry zapcore.Entry, fields []zapcore.Field) bool

func (f HookFunc) OnWrite(entry zapcore.Entry, fields []zapcore.Field) bool {
	return f(entry, fields)
}

// HookedCore 在写入前依次执行钩子的 Core
type HookedCore struct {
	zapcore.Core
	hooks []Hook
}

// NewHookedCore 包装 core，没有钩子时原样返回
func NewHookedCore(core zapcore.Core, hooks ...Hook) zapcore.Core {
	if len(hooks) == 0 {
		return core
	}
	return &HookedCore{
		Core:  core,
		hooks: hooks,
	}
}

// Check 等级判断交给内层 Core，写入时再执行钩子
func (h *HookedCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if h.Enabled(entry.Level) {
		return ce.AddCore(entry, h)
	}
	return ce
}

func (h *HookedCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	for _, hook := range h.hooks {
		if !hook.OnWrite(entry, fields) {
			return nil
		}
	}
	return h.Core.Write(entry, fields)
}

// With 子 Core 共享同一组钩子
func (h *HookedCore) With(fields []zapcore.Field) zapcore.Core {
	return &HookedCore{
		Core:  h.Core.With(fields),
		hooks: h.hooks,
	}
}

// --- 内置 Hooks ---

// DropNamedHook 丢弃指定名称 logger 下低于 minLevel 的日志
// 名称按 zap 的层级匹配，"inventory" 同时匹配 "service.inventory"
func DropNamedHook(name string, minLevel zapcore.Level) Hook {
	suffix := "." + name
	return HookFunc(func(entry zapcore.Entry, fields []zapcore.Field) bool {
		if entry.Level >= minLevel {
			return true
		}
		return entry.LoggerName != name && !strings.HasSuffix(entry.LoggerName, suffix)
	})
}

// namedLevelHooks 把 Config.NamedLevels 转成钩子
// 只能在全局等级之上收紧，不能放宽
func namedLevelHooks(levels map[string]Level) []Hook {
	hooks := make([]Hook, 0, len(levels))
	for name, level := range levels {
		if name == "" {
			continue
		}
		hooks = append(hooks, DropNamedHook(name, parseLevel(level)))
	}
	return hooks
}
