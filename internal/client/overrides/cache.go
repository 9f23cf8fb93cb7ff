package overrides

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/techphorix/w-store-sub004/internal/client/localstore"
	"github.com/techphorix/w-store-sub004/internal/constants"

	"github.com/shopspring/decimal"
)

// EditState 待确认编辑的状态
type EditState string

const (
	// StatePending 已写入本地，等待服务端确认
	StatePending EditState = "pending"
	// StateFailed 最近一次提交失败
	StateFailed EditState = "failed"
)

// PendingEdit 未被服务端确认的覆盖值编辑，确认或丢弃前一直保留
type PendingEdit struct {
	SellerID      uint             `json:"seller_id"`
	MetricName    string           `json:"metric_name"`
	Value         decimal.Decimal  `json:"value"`
	EditedBy      uint             `json:"edited_by"`
	PreviousValue *decimal.Decimal `json:"previous_value,omitempty"` // 编辑前服务端展示值，未知时为空
	State         EditState        `json:"state"`
	LastError     string           `json:"last_error,omitempty"`
	EditedAt      time.Time        `json:"edited_at"`
	Attempts      int              `json:"attempts"`
}

type cacheFile struct {
	Entries []PendingEdit `json:"entries"`
}

// Cache 待确认编辑缓存，path 非空时每次变更落盘
type Cache struct {
	path string

	mu      sync.Mutex
	entries map[string]PendingEdit
}

// NewCache 创建缓存，path 为空时仅保存在内存
func NewCache(path string) *Cache {
	return &Cache{path: path, entries: make(map[string]PendingEdit)}
}

func cacheKey(sellerID uint, metric string) string {
	return fmt.Sprintf("%d:%s", sellerID, metric)
}

// Load 从文件恢复
func (c *Cache) Load() error {
	if c.path == "" {
		return nil
	}
	var file cacheFile
	found, err := localstore.ReadJSON(c.path, &file)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]PendingEdit, len(file.Entries))
	if !found {
		return nil
	}
	for _, entry := range file.Entries {
		if entry.SellerID == 0 || !constants.IsMetricName(entry.MetricName) {
			continue
		}
		if entry.State == "" {
			entry.State = StatePending
		}
		c.entries[cacheKey(entry.SellerID, entry.MetricName)] = entry
	}
	return nil
}

// Put 写入或替换编辑
func (c *Cache) Put(edit PendingEdit) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(edit.SellerID, edit.MetricName)] = edit
	return c.saveLocked()
}

// Get 读取编辑
func (c *Cache) Get(sellerID uint, metric string) (PendingEdit, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	edit, ok := c.entries[cacheKey(sellerID, metric)]
	return edit, ok
}

// Delete 删除编辑
func (c *Cache) Delete(sellerID uint, metric string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cacheKey(sellerID, metric)
	if _, ok := c.entries[key]; !ok {
		return nil
	}
	delete(c.entries, key)
	return c.saveLocked()
}

// DeleteIf 仅当缓存中的编辑仍与 match 相同时删除
func (c *Cache) DeleteIf(match PendingEdit) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cacheKey(match.SellerID, match.MetricName)
	current, ok := c.entries[key]
	if !ok || !current.EditedAt.Equal(match.EditedAt) || !current.Value.Equal(match.Value) {
		return false, nil
	}
	delete(c.entries, key)
	return true, c.saveLocked()
}

// List 卖家的全部编辑，按指标顺序
func (c *Cache) List(sellerID uint) []PendingEdit {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]PendingEdit, 0)
	for _, entry := range c.entries {
		if entry.SellerID == sellerID {
			result = append(result, entry)
		}
	}
	sortEdits(result)
	return result
}

// All 全部编辑
func (c *Cache) All() []PendingEdit {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]PendingEdit, 0, len(c.entries))
	for _, entry := range c.entries {
		result = append(result, entry)
	}
	sortEdits(result)
	return result
}

func (c *Cache) saveLocked() error {
	if c.path == "" {
		return nil
	}
	file := cacheFile{Entries: make([]PendingEdit, 0, len(c.entries))}
	for _, entry := range c.entries {
		file.Entries = append(file.Entries, entry)
	}
	sortEdits(file.Entries)
	return localstore.WriteJSON(c.path, file)
}

func metricOrder(name string) int {
	for i, metric := range constants.MetricNames() {
		if metric == name {
			return i
		}
	}
	return len(constants.MetricNames())
}

func sortEdits(edits []PendingEdit) {
	sort.Slice(edits, func(i, j int) bool {
		if edits[i].SellerID != edits[j].SellerID {
			return edits[i].SellerID < edits[j].SellerID
		}
		return metricOrder(edits[i].MetricName) < metricOrder(edits[j].MetricName)
	})
}
