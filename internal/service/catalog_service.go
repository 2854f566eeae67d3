package service

import (
	"context"
	"crypto/rand"
	"math/big"
	"sync"

	"github.com/storefront-session/internal/logger"
	"github.com/storefront-session/internal/models"
	"github.com/storefront-session/internal/storeapi"
)

// CatalogService 商品目录缓存：首次访问拉取全量列表后常驻内存，
// 本地写操作（增删改）同时转发远端并更新缓存
type CatalogService struct {
	mu       sync.Mutex
	products []models.Product
	loaded   bool
	api      *storeapi.Client
	writer   *SnapshotWriter
}

// NewCatalogService 创建商品目录缓存
func NewCatalogService(api *storeapi.Client, writer *SnapshotWriter) *CatalogService {
	return &CatalogService{api: api, writer: writer}
}

// Products 当前缓存的商品列表副本
func (s *CatalogService) Products() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	products := make([]models.Product, len(s.products))
	copy(products, s.products)
	return products
}

// Restore 从快照恢复商品缓存（非空时视为已加载，避免启动后重复拉取）
func (s *CatalogService) Restore(products []models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append([]models.Product(nil), products...)
	if len(products) > 0 {
		s.loaded = true
	}
}

// Clear 清空商品缓存并复位加载标记，下次 Fetch 重新访问远端
func (s *CatalogService) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = nil
	s.loaded = false
}

// Fetch 返回商品列表，仅在缓存为空时访问远端，一次会话至多拉取一次
func (s *CatalogService) Fetch(ctx context.Context) ([]models.Product, error) {
	s.mu.Lock()
	if s.loaded {
		products := make([]models.Product, len(s.products))
		copy(products, s.products)
		s.mu.Unlock()
		return products, nil
	}
	s.mu.Unlock()

	products, err := s.api.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.products = products
	s.loaded = true
	result := make([]models.Product, len(products))
	copy(result, products)
	s.mu.Unlock()

	s.persist(ctx, "catalog fetched")
	return result, nil
}

// GetProduct 按 ID 查询，优先命中缓存，未命中回源远端（不回填列表）
func (s *CatalogService) GetProduct(ctx context.Context, productID uint) (*models.Product, error) {
	s.mu.Lock()
	for i := range s.products {
		if s.products[i].ID == productID {
			product := s.products[i]
			s.mu.Unlock()
			return &product, nil
		}
	}
	s.mu.Unlock()
	return s.api.GetProduct(ctx, productID)
}

// AddProduct 新建商品：分配缓存内唯一的随机 ID，转发远端后插入缓存
// 远端分配的 ID 不可信（演示 API 总是返回同一个值），以本地分配为准
func (s *CatalogService) AddProduct(ctx context.Context, product models.Product) (*models.Product, error) {
	if product.Title == "" {
		return nil, ErrProductInvalid
	}

	s.mu.Lock()
	product.ID = s.nextRandomID()
	s.mu.Unlock()

	if err := s.api.CreateProduct(ctx, product); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.products = append(s.products, product)
	s.mu.Unlock()

	s.persist(ctx, "product added")
	return &product, nil
}

// UpdateProduct 更新商品：转发远端后按 ID 覆盖缓存行
func (s *CatalogService) UpdateProduct(ctx context.Context, product models.Product) (*models.Product, error) {
	if product.ID == 0 {
		return nil, ErrProductInvalid
	}
	if err := s.api.UpdateProduct(ctx, product); err != nil {
		return nil, err
	}

	s.mu.Lock()
	for i := range s.products {
		if s.products[i].ID == product.ID {
			s.products[i] = product
			break
		}
	}
	s.mu.Unlock()

	s.persist(ctx, "product updated")
	return &product, nil
}

// DeleteProduct 删除商品：转发远端后从缓存移除，缓存中不存在时幂等
func (s *CatalogService) DeleteProduct(ctx context.Context, productID uint) error {
	if err := s.api.DeleteProduct(ctx, productID); err != nil {
		return err
	}

	s.mu.Lock()
	for i := range s.products {
		if s.products[i].ID == productID {
			s.products = append(s.products[:i], s.products[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.persist(ctx, "product deleted")
	return nil
}

// nextRandomID 生成缓存内未占用的随机商品 ID，调用方需持有锁
func (s *CatalogService) nextRandomID() uint {
	taken := make(map[uint]bool, len(s.products))
	for i := range s.products {
		taken[s.products[i].ID] = true
	}
	for {
		n, err := rand.Int(rand.Reader, big.NewInt(100000))
		if err != nil {
			logger.Warnw("product_id_rand_failed", "error", err)
			n = big.NewInt(int64(len(s.products)))
		}
		id := uint(n.Int64()) + 1
		if !taken[id] {
			return id
		}
	}
}

func (s *CatalogService) persist(ctx context.Context, reason string) {
	if err := s.writer.Persist(ctx, reason); err != nil {
		logger.Warnw("catalog_snapshot_failed", "reason", reason, "error", err)
	}
}
