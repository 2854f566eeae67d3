package handlers

import (
	"github.com/storefront-session/internal/http/response"
	"github.com/storefront-session/internal/models"
	"github.com/storefront-session/internal/service"

	"github.com/gin-gonic/gin"
)

// ProductRequest 商品创建/更新请求
type ProductRequest struct {
	Title       string       `json:"title" binding:"required"`
	Price       models.Money `json:"price"`
	Description string       `json:"description"`
	Category    string       `json:"category"`
	Image       string       `json:"image"`
}

// GetProducts 获取商品列表（首次访问回源远端，此后命中缓存）
func (h *Handler) GetProducts(c *gin.Context) {
	products, err := h.CatalogService.Fetch(c.Request.Context())
	if err != nil {
		respondError(c, response.CodeInternal, "catalog fetch failed", err)
		return
	}
	response.Success(c, gin.H{"products": products})
}

// GetProduct 获取单个商品
func (h *Handler) GetProduct(c *gin.Context) {
	productID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	product, err := h.CatalogService.GetProduct(c.Request.Context(), productID)
	if err != nil {
		respondError(c, response.CodeNotFound, "product not found", err)
		return
	}
	response.Success(c, product)
}

// CreateProduct 创建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "title is required", err)
		return
	}

	created, err := h.CatalogService.AddProduct(c.Request.Context(), models.Product{
		Title:       req.Title,
		Price:       req.Price,
		Description: req.Description,
		Category:    req.Category,
		Image:       req.Image,
	})
	if err != nil {
		respondWithMappedError(c, err, []mappedHandlerError{
			{target: service.ErrProductInvalid, code: response.CodeBadRequest, msg: "product is invalid"},
		}, response.CodeInternal, "product create failed")
		return
	}

	response.Success(c, created)
}

// UpdateProduct 更新商品
func (h *Handler) UpdateProduct(c *gin.Context) {
	productID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "title is required", err)
		return
	}

	updated, err := h.CatalogService.UpdateProduct(c.Request.Context(), models.Product{
		ID:          productID,
		Title:       req.Title,
		Price:       req.Price,
		Description: req.Description,
		Category:    req.Category,
		Image:       req.Image,
	})
	if err != nil {
		respondWithMappedError(c, err, []mappedHandlerError{
			{target: service.ErrProductInvalid, code: response.CodeBadRequest, msg: "product is invalid"},
		}, response.CodeInternal, "product update failed")
		return
	}

	response.Success(c, updated)
}

// DeleteProduct 删除商品
func (h *Handler) DeleteProduct(c *gin.Context) {
	productID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.CatalogService.DeleteProduct(c.Request.Context(), productID); err != nil {
		respondError(c, response.CodeInternal, "product delete failed", err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
