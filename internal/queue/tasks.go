package queue

import (
	"encoding/json"

	"github.com/storefront-session/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskCartSync 购物车远端同步任务
	TaskCartSync = constants.TaskCartSync
	// TaskStateSnapshot 会话快照落盘任务
	TaskStateSnapshot = constants.TaskStateSnapshot
)

// CartSyncPayload 购物车同步任务载荷
type CartSyncPayload struct {
	Message string `json:"message"`
}

// StateSnapshotPayload 快照任务载荷
type StateSnapshotPayload struct {
	Reason string `json:"reason"`
}

// NewCartSyncTask 创建购物车同步任务
func NewCartSyncTask(payload CartSyncPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCartSync, body), nil
}

// NewStateSnapshotTask 创建快照任务
func NewStateSnapshotTask(payload StateSnapshotPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStateSnapshot, body), nil
}
