package storeapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/storefront-session/internal/models"
)

// LoginRequest 登录请求体
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login 远端认证，成功返回 token
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/auth/login", LoginRequest{
		Username: username,
		Password: password,
	}, "", &resp)
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(resp.Token)
	if token == "" {
		return "", fmt.Errorf("%w: empty token", ErrLoginRejected)
	}
	return token, nil
}

// GetUser 以 bearer token 拉取用户记录
func (c *Client) GetUser(ctx context.Context, userID uint, token string) (*models.User, error) {
	var user models.User
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/users/%d", userID), nil, token, &user); err != nil {
		return nil, err
	}
	if user.ID == 0 {
		user.ID = userID
	}
	return &user, nil
}
