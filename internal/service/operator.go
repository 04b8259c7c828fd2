package service

import (
	"context"
	"strings"
)

// DefaultOperator 请求未携带操作员时审计中使用的名字
const DefaultOperator = "dashboard"

type operatorKey struct{}

// WithOperator 把操作员名写入 context（由 HTTP 层从 X-Operator 头取得）
func WithOperator(ctx context.Context, operator string) context.Context {
	operator = strings.TrimSpace(operator)
	if operator == "" {
		return ctx
	}
	return context.WithValue(ctx, operatorKey{}, operator)
}

// OperatorFrom 读取操作员名
func OperatorFrom(ctx context.Context) string {
	if v, ok := ctx.Value(operatorKey{}).(string); ok && v != "" {
		return v
	}
	return DefaultOperator
}
