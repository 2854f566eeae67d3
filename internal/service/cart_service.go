package service

import (
	"context"
	"sync"

	"github.com/storefront-session/internal/logger"
	"github.com/storefront-session/internal/models"
	"github.com/storefront-session/internal/queue"
	"github.com/storefront-session/internal/storeapi"

	"github.com/shopspring/decimal"
)

// CartService 本地权威购物车（台账）
// 所有行项变更在内存中同步完成；远端同步与快照落盘是异步尽力而为的副作用，
// 调用方不能假定返回时副作用已经完成
type CartService struct {
	mu          sync.Mutex
	items       []models.LineItem
	api         *storeapi.Client
	syncService *SyncService
	snapshots   *SnapshotWriter
	queueClient *queue.Client
}

// NewCartService 创建购物车服务
func NewCartService(api *storeapi.Client, syncService *SyncService, snapshots *SnapshotWriter, queueClient *queue.Client) *CartService {
	return &CartService{
		api:         api,
		syncService: syncService,
		snapshots:   snapshots,
		queueClient: queueClient,
	}
}

// Items 返回当前行项副本
func (s *CartService) Items() []models.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]models.LineItem, len(s.items))
	copy(items, s.items)
	return items
}

// Count 行项数量
func (s *CartService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Restore 从快照恢复购物车（进程启动时调用，不触发副作用）
func (s *CartService) Restore(items []models.LineItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]models.LineItem(nil), items...)
}

// AddItem 加入商品：已存在则数量 +1，否则以数量 1 插入
// 每个商品 ID 至多一行
func (s *CartService) AddItem(product models.Product) error {
	if product.ID == 0 {
		return ErrProductInvalid
	}
	s.mu.Lock()
	if idx := s.indexOf(product.ID); idx >= 0 {
		s.items[idx].Quantity++
		s.items[idx].Recalculate()
	} else {
		s.items = append(s.items, models.NewLineItem(product, 1))
	}
	s.mu.Unlock()

	s.scheduleSideEffects("item added to cart")
	return nil
}

// SetQuantity 直接设置数量（必须为正整数，不做钳制）；商品不在购物车时为空操作
func (s *CartService) SetQuantity(productID uint, quantity int) error {
	if quantity < 1 {
		return ErrQuantityInvalid
	}
	s.mu.Lock()
	if idx := s.indexOf(productID); idx >= 0 {
		s.items[idx].Quantity = quantity
		s.items[idx].Recalculate()
	}
	s.mu.Unlock()

	s.scheduleSnapshot("quantity updated")
	return nil
}

// Increment 数量 +1
func (s *CartService) Increment(productID uint) {
	s.mu.Lock()
	if idx := s.indexOf(productID); idx >= 0 {
		s.items[idx].Quantity++
		s.items[idx].Recalculate()
	}
	s.mu.Unlock()

	s.scheduleSideEffects("quantity incremented")
}

// Decrement 数量 -1，数量为 1 时不变（移除是独立的显式操作）
func (s *CartService) Decrement(productID uint) {
	s.mu.Lock()
	if idx := s.indexOf(productID); idx >= 0 && s.items[idx].Quantity > 1 {
		s.items[idx].Quantity--
		s.items[idx].Recalculate()
	}
	s.mu.Unlock()

	s.scheduleSideEffects("quantity decremented")
}

// RemoveItem 删除行项，幂等
func (s *CartService) RemoveItem(productID uint) {
	s.mu.Lock()
	if idx := s.indexOf(productID); idx >= 0 {
		s.items = append(s.items[:idx], s.items[idx+1:]...)
	}
	s.mu.Unlock()

	s.scheduleSideEffects("item removed from cart")
}

// Clear 清空购物车（登出路径，不触发远端同步）
func (s *CartService) Clear() {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
}

// TotalAmount 所有行项小计之和，固定 2 位小数字符串
func (s *CartService) TotalAmount() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.TotalPrice.Decimal)
	}
	return total.Round(2).StringFixed(2)
}

// MergeRemote 登录后的一次性合并：拉取用户的全部远端购物车记录，
// 按商品合并数量后与本地购物车相加，本地独有的行项原样保留，
// 结果原子替换本地购物车并写入快照
// 同一会话内不可重复调用，否则数量会被重复累加
func (s *CartService) MergeRemote(ctx context.Context, userID uint) error {
	carts, err := s.api.ListUserCarts(ctx, userID)
	if err != nil {
		logger.Warnw("cart_merge_fetch_failed", "user_id", userID, "error", err)
		return ErrMergeAborted
	}

	flattened := flattenRemoteCarts(carts)
	remote := make([]models.LineItem, 0, len(flattened))
	for _, line := range flattened {
		if line.ProductID == 0 || line.Quantity <= 0 {
			continue
		}
		product, err := s.api.GetProduct(ctx, line.ProductID)
		if err != nil {
			// 单个商品详情拉取失败只跳过该行，不影响其余行与本地购物车
			logger.Warnw("cart_merge_item_fetch_failed", "product_id", line.ProductID, "error", err)
			continue
		}
		remote = append(remote, models.NewLineItem(*product, line.Quantity))
	}

	combined := combineByProduct(remote)

	s.mu.Lock()
	s.items = mergeAdditive(s.items, combined)
	s.mu.Unlock()

	if err := s.snapshots.Persist(ctx, "cart merged"); err != nil {
		logger.Warnw("cart_merge_snapshot_failed", "error", err)
	}
	return nil
}

// ProcessCartSync 执行一次远端同步（worker 或直接调度路径调用）
func (s *CartService) ProcessCartSync(ctx context.Context, message string) SyncResult {
	result := s.syncService.Push(ctx, s.Items(), message)
	logger.Debugw("cart_sync_processed", "status", result.Status, "message", result.Message)
	return result
}

// indexOf 按商品 ID 查找行项下标，调用方需持有锁
func (s *CartService) indexOf(productID uint) int {
	for i := range s.items {
		if s.items[i].ID == productID {
			return i
		}
	}
	return -1
}

func (s *CartService) scheduleSideEffects(message string) {
	if s.queueClient.Enabled() {
		if err := s.queueClient.EnqueueCartSync(queue.CartSyncPayload{Message: message}); err != nil {
			logger.Warnw("cart_sync_enqueue_failed", "error", err)
		}
		if err := s.queueClient.EnqueueStateSnapshot(queue.StateSnapshotPayload{Reason: message}); err != nil {
			logger.Warnw("state_snapshot_enqueue_failed", "error", err)
		}
		return
	}
	go func() {
		ctx := context.Background()
		s.ProcessCartSync(ctx, message)
		if err := s.snapshots.Persist(ctx, message); err != nil {
			logger.Warnw("state_snapshot_failed", "reason", message, "error", err)
		}
	}()
}

func (s *CartService) scheduleSnapshot(reason string) {
	if s.queueClient.Enabled() {
		if err := s.queueClient.EnqueueStateSnapshot(queue.StateSnapshotPayload{Reason: reason}); err != nil {
			logger.Warnw("state_snapshot_enqueue_failed", "error", err)
		}
		return
	}
	go func() {
		if err := s.snapshots.Persist(context.Background(), reason); err != nil {
			logger.Warnw("state_snapshot_failed", "reason", reason, "error", err)
		}
	}()
}

// flattenRemoteCarts 将用户的多条远端购物车记录摊平为一个行列表
func flattenRemoteCarts(carts []models.RemoteCart) []models.RemoteCartLine {
	var lines []models.RemoteCartLine
	for _, cart := range carts {
		lines = append(lines, cart.Products...)
	}
	return lines
}

// combineByProduct 合并重复商品：数量相加后按单价重算小计，
// 绝不直接累加小计，避免舍入误差叠加
func combineByProduct(items []models.LineItem) []models.LineItem {
	combined := make([]models.LineItem, 0, len(items))
	index := make(map[uint]int, len(items))
	for _, item := range items {
		if at, ok := index[item.ID]; ok {
			combined[at].Quantity += item.Quantity
			combined[at].Recalculate()
			continue
		}
		index[item.ID] = len(combined)
		combined = append(combined, item)
	}
	return combined
}

// mergeAdditive 本地与远端相加合并（游客车 + 账号车语义）：
// 远端行吸收同商品的本地数量，本地独有的行原样保留在尾部
func mergeAdditive(local, remote []models.LineItem) []models.LineItem {
	merged := make([]models.LineItem, 0, len(local)+len(remote))
	localIndex := make(map[uint]int, len(local))
	for i := range local {
		localIndex[local[i].ID] = i
	}
	remoteSeen := make(map[uint]bool, len(remote))
	for _, item := range remote {
		if at, ok := localIndex[item.ID]; ok {
			item.Quantity += local[at].Quantity
			item.Recalculate()
		}
		remoteSeen[item.ID] = true
		merged = append(merged, item)
	}
	for _, item := range local {
		if !remoteSeen[item.ID] {
			merged = append(merged, item)
		}
	}
	return merged
}
