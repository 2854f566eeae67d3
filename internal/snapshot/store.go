package snapshot

import (
	"context"
	"fmt"
	"strings"

	"github.com/storefront-session/internal/config"
	"github.com/storefront-session/internal/models"
)

// State 会话全量快照，按固定键持久化：user / cart / products / token
// 整体写入、整体清除，后写覆盖先写；恢复时缺失的键取零值
type State struct {
	User     *models.User      `json:"user"`
	Cart     []models.LineItem `json:"cart"`
	Products []models.Product  `json:"products"`
	Token    string            `json:"token"`
}

// Store 持久化快照存储
type Store interface {
	Save(ctx context.Context, state State) error
	Load(ctx context.Context) (State, error)
	Clear(ctx context.Context) error
}

// New 按配置创建快照存储
func New(cfg config.SnapshotConfig) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "sqlite", "postgres", "postgresql":
		return NewGormStore(driver, cfg.DSN, cfg.Pool)
	case "redis":
		return NewRedisStore(cfg.TTLSeconds), nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported snapshot driver: %s", cfg.Driver)
	}
}
