package session

import (
	"sync"

	"github.com/techphorix/w-store-sub004/internal/client/localstore"
)

// Store 会话状态持久化
type Store interface {
	Load() (State, bool, error)
	Save(state State) error
	Clear() error
}

// FileStore JSON 文件存储（0600）
type FileStore struct {
	Path string
}

// NewFileStore 创建文件存储
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load 读取会话状态
func (s *FileStore) Load() (State, bool, error) {
	var state State
	found, err := localstore.ReadJSON(s.Path, &state)
	if err != nil || !found {
		return State{}, false, err
	}
	return state, true, nil
}

// Save 保存会话状态
func (s *FileStore) Save(state State) error {
	return localstore.WriteJSON(s.Path, state)
}

// Clear 删除会话文件
func (s *FileStore) Clear() error {
	return localstore.Remove(s.Path)
}

// MemoryStore 内存存储
type MemoryStore struct {
	mu    sync.Mutex
	state *State
}

// Load 读取会话状态
func (s *MemoryStore) Load() (State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return State{}, false, nil
	}
	return *s.state, true, nil
}

// Save 保存会话状态
func (s *MemoryStore) Save(state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = &state
	return nil
}

// Clear 清空
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = nil
	return nil
}
