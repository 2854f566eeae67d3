package service

import (
	"context"
	"time"

	"github.com/storefront-session/internal/constants"
	"github.com/storefront-session/internal/logger"
	"github.com/storefront-session/internal/models"
	"github.com/storefront-session/internal/storeapi"
)

// SyncResult 一次远端同步的结果
type SyncResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// SyncService 购物车远端同步网关
// 已登录时将整车推送到远端（全量替换），游客路径不产生任何网络请求，
// 延迟固定时长后直接报告成功，保证两条路径对调用方形状一致
type SyncService struct {
	api            *storeapi.Client
	session        *Session
	guestPushDelay time.Duration
}

// NewSyncService 创建同步网关
func NewSyncService(api *storeapi.Client, session *Session, guestPushDelay time.Duration) *SyncService {
	return &SyncService{
		api:            api,
		session:        session,
		guestPushDelay: guestPushDelay,
	}
}

// Push 推送当前购物车，错误被吸收为 failed 状态而不上抛
func (s *SyncService) Push(ctx context.Context, items []models.LineItem, message string) SyncResult {
	userID, authenticated := s.session.UserID()
	if !authenticated {
		select {
		case <-time.After(s.guestPushDelay):
		case <-ctx.Done():
		}
		return SyncResult{Status: constants.SyncStatusSuccess, Message: message}
	}

	lines := make([]models.RemoteCartLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, models.RemoteCartLine{ProductID: item.ID, Quantity: item.Quantity})
	}
	input := storeapi.ReplaceCartInput{
		UserID:   userID,
		Date:     time.Now().UTC().Format("2006-01-02"),
		Products: lines,
	}
	if err := s.api.ReplaceCart(ctx, userID, input); err != nil {
		logger.Warnw("cart_push_failed", "user_id", userID, "error", err)
		return SyncResult{Status: constants.SyncStatusFailed, Message: err.Error()}
	}
	return SyncResult{Status: constants.SyncStatusSuccess, Message: message}
}
