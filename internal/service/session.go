package service

import (
	"sync"

	"github.com/storefront-session/internal/constants"
	"github.com/storefront-session/internal/models"
)

// Session 当前会话身份：user + token
// 登录成功时整体建立，登出时整体清除；二者为空即游客模式
type Session struct {
	mu    sync.RWMutex
	user  *models.User
	token string
	state string
}

// NewSession 创建匿名会话
func NewSession() *Session {
	return &Session{state: constants.SessionStateAnonymous}
}

// Establish 建立已认证会话
func (s *Session) Establish(user *models.User, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	s.token = token
	s.state = constants.SessionStateAuthenticated
}

// Clear 清除身份，回到匿名状态
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.token = ""
	s.state = constants.SessionStateAnonymous
}

// markAuthenticating 标记认证进行中（不触碰既有身份）
func (s *Session) markAuthenticating() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		s.state = constants.SessionStateAuthenticating
	}
}

// settle 认证流程结束后恢复稳定状态
func (s *Session) settle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != nil {
		s.state = constants.SessionStateAuthenticated
	} else {
		s.state = constants.SessionStateAnonymous
	}
}

// User 当前用户，游客模式返回 nil
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Token 当前凭证
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// State 会话状态
func (s *Session) State() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// UserID 当前用户 ID，第二个返回值指示是否已登录
func (s *Session) UserID() (uint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return 0, false
	}
	return s.user.ID, true
}
