package service

import (
	"context"
	"errors"

	"github.com/storefront-session/internal/logger"
	"github.com/storefront-session/internal/storeapi"

	"github.com/golang-jwt/jwt/v5"
)

// defaultUserID 令牌中无法解析出用户 ID 时的兜底值
const defaultUserID uint = 1

// AuthService 会话认证编排：远端登录换取令牌、拉取用户档案、触发购物车合并
type AuthService struct {
	api     *storeapi.Client
	session *Session
	cart    *CartService
	catalog *CatalogService
	writer  *SnapshotWriter
}

// NewAuthService 创建认证服务
func NewAuthService(api *storeapi.Client, session *Session, cart *CartService, catalog *CatalogService, writer *SnapshotWriter) *AuthService {
	return &AuthService{api: api, session: session, cart: cart, catalog: catalog, writer: writer}
}

// Login 执行登录：换取令牌、解析用户 ID、拉取档案、建立会话、合并远端购物车
// 任一关键步骤失败时会话保持登录前的身份不变
func (s *AuthService) Login(ctx context.Context, username, password string) error {
	s.session.markAuthenticating()
	defer s.session.settle()

	token, err := s.api.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, storeapi.ErrLoginRejected) {
			return ErrLoginFailed
		}
		logger.Warnw("login_request_failed", "username", username, "error", err)
		return ErrLoginFailed
	}

	userID := userIDFromToken(token)
	user, err := s.api.GetUser(ctx, userID, token)
	if err != nil {
		logger.Warnw("login_profile_fetch_failed", "user_id", userID, "error", err)
		return ErrLoginFailed
	}

	s.session.Establish(user, token)
	logger.Infow("session_established", "user_id", user.ID, "username", user.Username)

	// 合并失败不回滚会话：用户已登录成功，本地购物车保持原样继续可用
	if err := s.cart.MergeRemote(ctx, user.ID); err != nil {
		logger.Warnw("cart_merge_skipped", "user_id", user.ID, "error", err)
	}

	// 登录后预热商品缓存，已加载时 Fetch 直接命中，失败不影响会话
	if _, err := s.catalog.Fetch(ctx); err != nil {
		logger.Warnw("catalog_prefetch_failed", "error", err)
	}

	if err := s.writer.Persist(ctx, "session established"); err != nil {
		logger.Warnw("login_snapshot_failed", "error", err)
	}
	return nil
}

// Logout 结束会话：清空身份、购物车与商品缓存并删除全部快照，幂等
func (s *AuthService) Logout(ctx context.Context) error {
	s.session.Clear()
	s.cart.Clear()
	s.catalog.Clear()
	if err := s.writer.Purge(ctx); err != nil {
		logger.Warnw("logout_snapshot_purge_failed", "error", err)
		return err
	}
	logger.Infow("session_cleared")
	return nil
}

// userIDFromToken 从令牌的 sub 声明提取用户 ID，不校验签名（签名属于远端）
// 解析失败回退到默认用户 ID
func userIDFromToken(tokenString string) uint {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		logger.Debugw("token_parse_failed", "error", err)
		return defaultUserID
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return defaultUserID
	}
	switch sub := claims["sub"].(type) {
	case float64:
		if sub > 0 {
			return uint(sub)
		}
	case string:
		// 部分网关把数字声明序列化成字符串
		var id uint
		for _, r := range sub {
			if r < '0' || r > '9' {
				return defaultUserID
			}
			id = id*10 + uint(r-'0')
		}
		if id > 0 {
			return id
		}
	}
	return defaultUserID
}
