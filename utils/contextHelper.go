package utils

import (
	"context"

	"bitbucket.org/mmdatafocus/cafe_backend/appctx"
)

var (
	ContextKeyToken         = appctx.ContextKeyToken
	ContextKeyUserId        = appctx.ContextKeyUserId
	ContextKeyUserName      = appctx.ContextKeyUserName
	ContextKeyBaseRole      = appctx.ContextKeyBaseRole
	ContextKeyShiftRole     = appctx.ContextKeyShiftRole
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
)

func GetTokenFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyToken)
}

func GetUserIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyUserId)
}

func GetUserNameFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyUserName)
}

func GetBaseRoleFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyBaseRole)
}

func GetShiftRoleFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyShiftRole)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetTokenInContext(ctx context.Context, token string) context.Context {
	return appctx.Set(ctx, ContextKeyToken, token)
}

func SetUserIdInContext(ctx context.Context, userId string) context.Context {
	return appctx.Set(ctx, ContextKeyUserId, userId)
}

func SetUserNameInContext(ctx context.Context, userName string) context.Context {
	return appctx.Set(ctx, ContextKeyUserName, userName)
}

func SetBaseRoleInContext(ctx context.Context, role string) context.Context {
	return appctx.Set(ctx, ContextKeyBaseRole, role)
}

func SetShiftRoleInContext(ctx context.Context, role string) context.Context {
	return appctx.Set(ctx, ContextKeyShiftRole, role)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}
