package service

import (
	"context"

	"github.com/storefront-session/internal/logger"
	"github.com/storefront-session/internal/snapshot"
)

// SnapshotWriter 聚合会话、购物车、商品缓存的当前状态并写入持久化存储
type SnapshotWriter struct {
	store   snapshot.Store
	session *Session
	cart    *CartService
	catalog *CatalogService
}

// NewSnapshotWriter 创建快照写入器，各状态持有方稍后通过 Bind 注入
func NewSnapshotWriter(store snapshot.Store) *SnapshotWriter {
	return &SnapshotWriter{store: store}
}

// Bind 绑定状态持有方（构造顺序限制：cart 依赖 writer，writer 又要读 cart）
func (w *SnapshotWriter) Bind(session *Session, cart *CartService, catalog *CatalogService) {
	w.session = session
	w.cart = cart
	w.catalog = catalog
}

// Persist 写入一次完整快照
func (w *SnapshotWriter) Persist(ctx context.Context, reason string) error {
	state := snapshot.State{
		User:     w.session.User(),
		Token:    w.session.Token(),
		Cart:     w.cart.Items(),
		Products: w.catalog.Products(),
	}
	if err := w.store.Save(ctx, state); err != nil {
		return err
	}
	logger.Debugw("snapshot_persisted", "reason", reason, "cart_items", len(state.Cart), "products", len(state.Products))
	return nil
}

// Purge 清除全部快照（登出路径）
func (w *SnapshotWriter) Purge(ctx context.Context) error {
	return w.store.Clear(ctx)
}

// Restore 读取快照（进程启动时由装配层调用，再分发给各状态持有方）
func (w *SnapshotWriter) Restore(ctx context.Context) (snapshot.State, error) {
	return w.store.Load(ctx)
}
