package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxFieldsKey struct{}

// ContextWithFields 把键值对附加到 context，*Context 日志方法会自动带上。
// 连接处理器用它记录 conn_id 与 user。
func ContextWithFields(ctx context.Context, keysAndValues ...interface{}) context.Context {
	fields := toZapFields(keysAndValues...)
	if len(fields) == 0 {
		return ctx
	}
	if prev, ok := ctx.Value(ctxFieldsKey{}).([]zap.Field); ok {
		fields = append(append(make([]zap.Field, 0, len(prev)+len(fields)), prev...), fields...)
	}
	return context.WithValue(ctx, ctxFieldsKey{}, fields)
}

func fieldsFromContext(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(ctxFieldsKey{}).([]zap.Field)
	return fields
}
