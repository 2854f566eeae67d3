package constants

// 会话状态常量
const (
	SessionStateAnonymous      = "anonymous"
	SessionStateAuthenticating = "authenticating"
	SessionStateAuthenticated  = "authenticated"
)

// 快照键常量（与浏览器端 sessionStorage 的键保持一致）
const (
	SnapshotKeyCart     = "cart"
	SnapshotKeyUser     = "user"
	SnapshotKeyProducts = "products"
	SnapshotKeyToken    = "token"
)

// 异步任务类型常量
const (
	TaskCartSync      = "cart:sync"
	TaskStateSnapshot = "state:snapshot"
)

// 队列名称常量
const (
	QueueDefault = "default"
)

// 同步结果状态常量
const (
	SyncStatusSuccess = "success"
	SyncStatusFailed  = "failed"
)
