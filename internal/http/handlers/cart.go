package handlers

import (
	"github.com/storefront-session/internal/http/response"
	"github.com/storefront-session/internal/service"

	"github.com/gin-gonic/gin"
)

// AddCartItemRequest 加入购物车请求
type AddCartItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

// SetQuantityRequest 设置数量请求
type SetQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	items := h.CartService.Items()
	response.Success(c, gin.H{
		"items": items,
		"count": len(items),
	})
}

// GetCartTotal 获取购物车合计金额
func (h *Handler) GetCartTotal(c *gin.Context) {
	response.Success(c, gin.H{"total_amount": h.CartService.TotalAmount()})
}

// AddCartItem 加入商品（已存在则数量 +1）
func (h *Handler) AddCartItem(c *gin.Context) {
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "product_id is required", err)
		return
	}

	product, err := h.CatalogService.GetProduct(c.Request.Context(), req.ProductID)
	if err != nil {
		respondError(c, response.CodeNotFound, "product not found", err)
		return
	}
	if err := h.CartService.AddItem(*product); err != nil {
		respondError(c, response.CodeBadRequest, "product is invalid", err)
		return
	}

	response.Success(c, gin.H{"items": h.CartService.Items()})
}

// SetCartItemQuantity 设置行项数量
func (h *Handler) SetCartItemQuantity(c *gin.Context) {
	productID, ok := parseUintParam(c, "product_id")
	if !ok {
		return
	}
	var req SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "quantity is required", err)
		return
	}

	if err := h.CartService.SetQuantity(productID, req.Quantity); err != nil {
		respondWithMappedError(c, err, []mappedHandlerError{
			{target: service.ErrQuantityInvalid, code: response.CodeBadRequest, msg: "quantity must be a positive integer"},
		}, response.CodeInternal, "cart update failed")
		return
	}

	response.Success(c, gin.H{"items": h.CartService.Items()})
}

// IncrementCartItem 行项数量 +1
func (h *Handler) IncrementCartItem(c *gin.Context) {
	productID, ok := parseUintParam(c, "product_id")
	if !ok {
		return
	}
	h.CartService.Increment(productID)
	response.Success(c, gin.H{"items": h.CartService.Items()})
}

// DecrementCartItem 行项数量 -1（下限 1）
func (h *Handler) DecrementCartItem(c *gin.Context) {
	productID, ok := parseUintParam(c, "product_id")
	if !ok {
		return
	}
	h.CartService.Decrement(productID)
	response.Success(c, gin.H{"items": h.CartService.Items()})
}

// RemoveCartItem 删除行项
func (h *Handler) RemoveCartItem(c *gin.Context) {
	productID, ok := parseUintParam(c, "product_id")
	if !ok {
		return
	}
	h.CartService.RemoveItem(productID)
	response.Success(c, gin.H{"items": h.CartService.Items()})
}
