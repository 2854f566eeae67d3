package snapshot

import (
	"context"
	"sync"
)

// MemoryStore 进程内快照存储（测试与 memory 驱动）
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStore 创建内存快照存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Save 整体写入快照
func (s *MemoryStore) Save(ctx context.Context, state State) error {
	encoded, err := encodeState(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, value := range encoded {
		s.values[key] = value
	}
	return nil
}

// Load 读取快照
func (s *MemoryStore) Load(ctx context.Context) (State, error) {
	s.mu.Lock()
	values := make(map[string]string, len(s.values))
	for key, value := range s.values {
		values[key] = value
	}
	s.mu.Unlock()
	return decodeState(values)
}

// Clear 清空快照
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]string)
	return nil
}

// Empty 判断存储是否为空（测试用）
func (s *MemoryStore) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values) == 0
}
