package logger

import (
	"context"

	"go.uber.org/zap"
)

// ContextFieldExtractor 从 context 提取字段的函数类型
type ContextFieldExtractor func(ctx context.Context) []zap.Field

// DefaultContextExtractor 默认不提取任何字段
func DefaultContextExtractor(ctx context.Context) []zap.Field {
	return nil
}

type fieldsKey struct{}

// ContextWithFields 把 key-value 字段挂到 context 上，配合 FieldsFromContext 使用
func ContextWithFields(ctx context.Context, keysAndValues ...interface{}) context.Context {
	prev, _ := ctx.Value(fieldsKey{}).([]interface{})
	merged := make([]interface{}, 0, len(prev)+len(keysAndValues))
	merged = append(merged, prev...)
	merged = append(merged, keysAndValues...)
	return context.WithValue(ctx, fieldsKey{}, merged)
}

// FieldsFromContext 提取 ContextWithFields 挂载的字段
func FieldsFromContext(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	kv, _ := ctx.Value(fieldsKey{}).([]interface{})
	return toZapFields(kv...)
}
