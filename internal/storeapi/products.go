package storeapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/storefront-session/internal/models"
)

// ListProducts 拉取全量商品目录
func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := c.doJSON(ctx, http.MethodGet, "/products", nil, "", &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct 拉取单个商品详情
func (c *Client) GetProduct(ctx context.Context, productID uint) (*models.Product, error) {
	var product models.Product
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/products/%d", productID), nil, "", &product); err != nil {
		return nil, err
	}
	if product.ID == 0 {
		return nil, fmt.Errorf("%w: product %d missing id", ErrResponseInvalid, productID)
	}
	return &product, nil
}

// CreateProduct 在远端目录创建商品
func (c *Client) CreateProduct(ctx context.Context, product models.Product) error {
	return c.doJSON(ctx, http.MethodPost, "/products", product, "", nil)
}

// UpdateProduct 整体更新远端商品
func (c *Client) UpdateProduct(ctx context.Context, product models.Product) error {
	return c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/products/%d", product.ID), product, "", nil)
}

// DeleteProduct 删除远端商品
func (c *Client) DeleteProduct(ctx context.Context, productID uint) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/products/%d", productID), nil, "", nil)
}
