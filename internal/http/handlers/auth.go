package handlers

import (
	"github.com/storefront-session/internal/http/response"
	"github.com/storefront-session/internal/service"

	"github.com/gin-gonic/gin"
)

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

var loginErrorRules = []mappedHandlerError{
	{target: service.ErrLoginFailed, code: response.CodeUnauthorized, msg: "invalid username or password"},
}

// Login 登录并合并远端购物车
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "username and password are required", err)
		return
	}

	if err := h.AuthService.Login(c.Request.Context(), req.Username, req.Password); err != nil {
		respondWithMappedError(c, err, loginErrorRules, response.CodeInternal, "login failed")
		return
	}

	response.Success(c, gin.H{
		"state": h.Session.State(),
		"user":  h.Session.User(),
		"token": h.Session.Token(),
	})
}

// Logout 登出并清除本地状态
func (h *Handler) Logout(c *gin.Context) {
	if err := h.AuthService.Logout(c.Request.Context()); err != nil {
		respondError(c, response.CodeInternal, "logout failed", err)
		return
	}
	response.Success(c, gin.H{"state": h.Session.State()})
}

// GetSession 查询当前会话
func (h *Handler) GetSession(c *gin.Context) {
	user := h.Session.User()
	response.Success(c, gin.H{
		"state":         h.Session.State(),
		"authenticated": user != nil,
		"user":          user,
	})
}
