package auth

import (
	"context"
)

// 定义 context key
type contextKey string

const (
	// UserIDKey 用户ID的context key（uid，字符串 UUID）
	UserIDKey contextKey = "user_id"
	// UserEmailKey 用户邮箱的context key
	UserEmailKey contextKey = "user_email"
	// WorkspaceIDKey 工作空间ID的context key（字符串 UUID）
	WorkspaceIDKey contextKey = "workspace_id"
)

// GetUIDFromContext 从context中获取用户ID（字符串 UUID）
func GetUIDFromContext(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(UserIDKey).(string)
	return uid, ok
}

// GetEmailFromContext 从context中获取用户邮箱
func GetEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(UserEmailKey).(string)
	return email, ok
}

// GetWorkspaceIDFromContext 从context中获取工作空间ID
func GetWorkspaceIDFromContext(ctx context.Context) (string, bool) {
	wid, ok := ctx.Value(WorkspaceIDKey).(string)
	return wid, ok
}

// WithIdentity 将网关注入的用户身份写入 context (测试时也用于构造请求上下文)
func WithIdentity(ctx context.Context, uid, email, workspaceID string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, uid)
	ctx = context.WithValue(ctx, UserEmailKey, email)
	return context.WithValue(ctx, WorkspaceIDKey, workspaceID)
}
