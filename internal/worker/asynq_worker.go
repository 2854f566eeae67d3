package worker

import (
	"context"
	"encoding/json"

	"github.com/storefront-session/internal/constants"
	"github.com/storefront-session/internal/logger"
	"github.com/storefront-session/internal/provider"
	"github.com/storefront-session/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskCartSync, c.handleCartSync)
	mux.HandleFunc(queue.TaskStateSnapshot, c.handleStateSnapshot)
}

func (c *Consumer) handleCartSync(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_cart_sync_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.CartSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_cart_sync_unmarshal_failed", "error", err)
		return err
	}
	result := c.CartService.ProcessCartSync(ctx, payload.Message)
	if result.Status == constants.SyncStatusFailed {
		// 推送是尽力而为，失败只记日志不重试
		logger.Warnw("worker_cart_sync_failed", "message", result.Message)
		return asynq.SkipRetry
	}
	return nil
}

func (c *Consumer) handleStateSnapshot(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_state_snapshot_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.StateSnapshotPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_state_snapshot_unmarshal_failed", "error", err)
		return err
	}
	if err := c.SnapshotWriter.Persist(ctx, payload.Reason); err != nil {
		logger.Warnw("worker_state_snapshot_persist_failed", "reason", payload.Reason, "error", err)
		return err
	}
	return nil
}
