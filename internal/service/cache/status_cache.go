package cache

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/Techmetria-Diego/IoT-Monitor/internal/model"
)

// StorageKey 缓存快照在键值表中的键
const StorageKey = "iotmonitor:status_cache:v1"

const (
	DefaultTTL        = 6 * time.Hour
	DefaultMaxEntries = 1000
	evictFraction     = 0.2
)

// Backend 缓存快照的持久化后端
type Backend interface {
	GetValue(key string) (string, error)
	SetValue(key, value string) error
}

// Options 缓存参数
type Options struct {
	TTL        time.Duration
	MaxEntries int
	Now        func() time.Time
}

type entry struct {
	Status       model.StatusTier `json:"status"`
	Count        int              `json:"highConsumptionUnitsCount"`
	CreatedAt    int64            `json:"timestamp"`
	ModifiedTime string           `json:"modifiedTime,omitempty"`
}

// StatusCache 报告分类结果缓存
type StatusCache struct {
	mu      sync.Mutex
	backend Backend
	ttl     time.Duration
	max     int
	now     func() time.Time
	entries map[string]entry
}

// Open 从后端加载缓存快照，快照损坏时丢弃并重建
func Open(backend Backend, opts Options) *StatusCache {
	c := &StatusCache{
		backend: backend,
		ttl:     opts.TTL,
		max:     opts.MaxEntries,
		now:     opts.Now,
		entries: make(map[string]entry),
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.max <= 0 {
		c.max = DefaultMaxEntries
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.load()
	return c
}

func (c *StatusCache) load() {
	if c.backend == nil {
		return
	}
	raw, err := c.backend.GetValue(StorageKey)
	if err != nil || raw == "" {
		return
	}
	var entries map[string]entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		log.Printf("[cache] discarding corrupted snapshot: %v", err)
		c.saveLocked()
		return
	}
	for id, e := range entries {
		if e.Status == "" {
			continue
		}
		c.entries[id] = e
	}
	log.Printf("[cache] loaded %d entries", len(c.entries))
}

// Get 读取缓存，过期或修改时间不一致视为未命中并删除该条目
func (c *StatusCache) Get(fileID, modifiedTime string) (model.ReportClassification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[fileID]
	if !ok {
		return model.ReportClassification{}, false
	}
	if c.now().Sub(time.UnixMilli(e.CreatedAt)) > c.ttl {
		delete(c.entries, fileID)
		c.saveLocked()
		return model.ReportClassification{}, false
	}
	if modifiedTime != "" && e.ModifiedTime != "" && modifiedTime != e.ModifiedTime {
		delete(c.entries, fileID)
		c.saveLocked()
		return model.ReportClassification{}, false
	}
	return model.ReportClassification{Status: e.Status, HighConsumptionUnitsCount: e.Count}, true
}

// Put 写入缓存，达到容量时先淘汰最旧的 20%
func (c *StatusCache) Put(fileID string, cls model.ReportClassification, modifiedTime string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[fileID]; !exists && len(c.entries) >= c.max {
		c.evictOldestLocked(int(float64(len(c.entries)) * evictFraction))
	}
	c.entries[fileID] = entry{
		Status:       cls.Status,
		Count:        cls.HighConsumptionUnitsCount,
		CreatedAt:    c.now().UnixMilli(),
		ModifiedTime: modifiedTime,
	}
	c.saveLocked()
}

// Invalidate 删除单个条目
func (c *StatusCache) Invalidate(fileID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[fileID]; !ok {
		return
	}
	delete(c.entries, fileID)
	c.saveLocked()
}

// InvalidateAll 清空缓存
func (c *StatusCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry)
	c.saveLocked()
	log.Printf("[cache] invalidated all entries")
}

// Len 当前条目数
func (c *StatusCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close 写出最终快照
func (c *StatusCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.persistLocked()
}

func (c *StatusCache) evictOldestLocked(n int) {
	if n <= 0 {
		return
	}
	type aged struct {
		id string
		ts int64
	}
	list := make([]aged, 0, len(c.entries))
	for id, e := range c.entries {
		list = append(list, aged{id: id, ts: e.CreatedAt})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].ts == list[j].ts {
			return list[i].id < list[j].id
		}
		return list[i].ts < list[j].ts
	})
	if n > len(list) {
		n = len(list)
	}
	for _, a := range list[:n] {
		delete(c.entries, a.id)
	}
	log.Printf("[cache] evicted %d oldest entries", n)
}

func (c *StatusCache) saveLocked() {
	if err := c.persistLocked(); err != nil {
		log.Printf("[cache] persist snapshot failed: %v", err)
	}
}

func (c *StatusCache) persistLocked() error {
	if c.backend == nil {
		return nil
	}
	payload, err := json.Marshal(c.entries)
	if err != nil {
		return err
	}
	if err := c.backend.SetValue(StorageKey, string(payload)); err != nil {
		return fmt.Errorf("write status cache snapshot: %w", err)
	}
	return nil
}
