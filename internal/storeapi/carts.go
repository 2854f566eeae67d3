package storeapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/storefront-session/internal/models"
)

// ReplaceCartInput 整车覆盖请求体
type ReplaceCartInput struct {
	UserID   uint                    `json:"userId"`
	Date     string                  `json:"date"`
	Products []models.RemoteCartLine `json:"products"`
}

// ListUserCarts 拉取用户的全部远端购物车记录
func (c *Client) ListUserCarts(ctx context.Context, userID uint) ([]models.RemoteCart, error) {
	var carts []models.RemoteCart
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/carts/user/%d", userID), nil, "", &carts); err != nil {
		return nil, err
	}
	return carts, nil
}

// ReplaceCart 整车覆盖远端购物车（无增量更新）
func (c *Client) ReplaceCart(ctx context.Context, cartID uint, input ReplaceCartInput) error {
	return c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/carts/%d", cartID), input, "", nil)
}
