package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/storefront-session/internal/config"
	"github.com/storefront-session/internal/constants"
	"github.com/storefront-session/internal/models"

	"github.com/glebarez/sqlite" // 纯 Go SQLite 驱动（基于 modernc.org/sqlite）
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Entry 快照键值表
type Entry struct {
	Key       string    `gorm:"primarykey;type:varchar(64)" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Entry) TableName() string {
	return "snapshot_entries"
}

// GormStore 嵌入式数据库快照存储
type GormStore struct {
	db *gorm.DB
}

// NewGormStore 打开快照数据库并迁移键值表
func NewGormStore(driver, dsn string, pool config.SnapshotPoolConfig) (*GormStore, error) {
	normalized := strings.ToLower(strings.TrimSpace(driver))
	var dialector gorm.Dialector
	switch normalized {
	case "", "sqlite":
		// glebarez/sqlite 是基于 modernc.org/sqlite 的纯 Go 驱动
		dialector = sqlite.Open(dsn)
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported snapshot driver: %s", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	applyPool(sqlDB, pool)

	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func applyPool(sqlDB *sql.DB, pool config.SnapshotPoolConfig) {
	if sqlDB == nil {
		return
	}
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns >= 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetimeSeconds > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(pool.ConnMaxLifetimeSeconds) * time.Second)
	}
	if pool.ConnMaxIdleTimeSeconds > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(pool.ConnMaxIdleTimeSeconds) * time.Second)
	}
}

// Save 整体写入快照（每个键单独一行，后写覆盖）
func (s *GormStore) Save(ctx context.Context, state State) error {
	encoded, err := encodeState(state)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for key, value := range encoded {
			entry := Entry{Key: key, Value: value, UpdatedAt: time.Now()}
			var existing Entry
			err := tx.Where("key = ?", key).First(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if err := tx.Create(&entry).Error; err != nil {
					return err
				}
				continue
			}
			if err != nil {
				return err
			}
			if err := tx.Model(&existing).Updates(map[string]interface{}{
				"value":      entry.Value,
				"updated_at": entry.UpdatedAt,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Load 读取快照，缺失的键恢复为零值
func (s *GormStore) Load(ctx context.Context) (State, error) {
	var entries []Entry
	if err := s.db.WithContext(ctx).Find(&entries).Error; err != nil {
		return State{}, err
	}
	values := make(map[string]string, len(entries))
	for _, entry := range entries {
		values[entry.Key] = entry.Value
	}
	return decodeState(values)
}

// Clear 清空快照
func (s *GormStore) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Where("key IN ?", snapshotKeys()).Delete(&Entry{}).Error
}

func snapshotKeys() []string {
	return []string{
		constants.SnapshotKeyUser,
		constants.SnapshotKeyCart,
		constants.SnapshotKeyProducts,
		constants.SnapshotKeyToken,
	}
}

func encodeState(state State) (map[string]string, error) {
	encoded := make(map[string]string, 4)
	userJSON, err := json.Marshal(state.User)
	if err != nil {
		return nil, err
	}
	cart := state.Cart
	if cart == nil {
		cart = []models.LineItem{}
	}
	cartJSON, err := json.Marshal(cart)
	if err != nil {
		return nil, err
	}
	products := state.Products
	if products == nil {
		products = []models.Product{}
	}
	productsJSON, err := json.Marshal(products)
	if err != nil {
		return nil, err
	}
	encoded[constants.SnapshotKeyUser] = string(userJSON)
	encoded[constants.SnapshotKeyCart] = string(cartJSON)
	encoded[constants.SnapshotKeyProducts] = string(productsJSON)
	encoded[constants.SnapshotKeyToken] = state.Token
	return encoded, nil
}

func decodeState(values map[string]string) (State, error) {
	state := State{Token: values[constants.SnapshotKeyToken]}
	if raw, ok := values[constants.SnapshotKeyUser]; ok && raw != "" && raw != "null" {
		var user models.User
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			return State{}, err
		}
		if user.ID != 0 {
			state.User = &user
		}
	}
	if raw, ok := values[constants.SnapshotKeyCart]; ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &state.Cart); err != nil {
			return State{}, err
		}
	}
	if raw, ok := values[constants.SnapshotKeyProducts]; ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &state.Products); err != nil {
			return State{}, err
		}
	}
	return state, nil
}
