package provider

import (
	"context"
	"time"

	"github.com/storefront-session/internal/cache"
	"github.com/storefront-session/internal/config"
	"github.com/storefront-session/internal/logger"
	"github.com/storefront-session/internal/queue"
	"github.com/storefront-session/internal/service"
	"github.com/storefront-session/internal/snapshot"
	"github.com/storefront-session/internal/storeapi"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	StoreAPI      *storeapi.Client
	SnapshotStore snapshot.Store

	Session        *service.Session
	SnapshotWriter *service.SnapshotWriter
	SyncService    *service.SyncService
	CartService    *service.CartService
	CatalogService *service.CatalogService
	AuthService    *service.AuthService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}
	if queueClient == nil {
		queueClient, _ = queue.NewClient(nil)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initServices()
	c.restoreState()

	return c
}

func (c *Container) initServices() {
	store, err := snapshot.New(c.Config.Snapshot)
	if err != nil {
		logger.Errorw("provider_init_snapshot_store_failed", "driver", c.Config.Snapshot.Driver, "error", err)
		panic(err)
	}
	c.SnapshotStore = store

	c.StoreAPI = storeapi.NewClient(storeapi.Config{
		BaseURL: c.Config.StoreAPI.BaseURL,
		Timeout: time.Duration(c.Config.StoreAPI.TimeoutSeconds) * time.Second,
	})

	c.Session = service.NewSession()
	c.SnapshotWriter = service.NewSnapshotWriter(store)
	c.SyncService = service.NewSyncService(c.StoreAPI, c.Session,
		time.Duration(c.Config.StoreAPI.GuestPushDelayMS)*time.Millisecond)
	c.CartService = service.NewCartService(c.StoreAPI, c.SyncService, c.SnapshotWriter, c.QueueClient)
	c.CatalogService = service.NewCatalogService(c.StoreAPI, c.SnapshotWriter)
	c.SnapshotWriter.Bind(c.Session, c.CartService, c.CatalogService)
	c.AuthService = service.NewAuthService(c.StoreAPI, c.Session, c.CartService, c.CatalogService, c.SnapshotWriter)
}

// restoreState 从快照恢复上次会话（恢复路径不触发任何远端副作用）
func (c *Container) restoreState() {
	state, err := c.SnapshotWriter.Restore(context.Background())
	if err != nil {
		logger.Warnw("provider_restore_snapshot_failed", "error", err)
		return
	}
	if state.User != nil && state.Token != "" {
		c.Session.Establish(state.User, state.Token)
	}
	c.CartService.Restore(state.Cart)
	c.CatalogService.Restore(state.Products)
	logger.Infow("session_state_restored",
		"authenticated", state.User != nil,
		"cart_items", len(state.Cart),
		"products", len(state.Products))
}
