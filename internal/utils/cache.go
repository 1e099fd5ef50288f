package utils

import (
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/patrickmn/go-cache"
)

// Store 基于 go-cache 的类型化缓存，整数键
type Store[T any] struct {
	c *cache.Cache
}

// NewStore 创建缓存，ttl 为默认过期时间，每 2 个 ttl 清理一次
func NewStore[T any](ttl time.Duration) *Store[T] {
	return &Store[T]{c: cache.New(ttl, 2*ttl)}
}

// Get 获取缓存值
func (s *Store[T]) Get(key int) (T, bool) {
	var zero T
	v, ok := s.c.Get(strconv.Itoa(key))
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// Set 使用默认过期时间写入
func (s *Store[T]) Set(key int, value T) {
	s.c.SetDefault(strconv.Itoa(key), value)
}

// Delete 删除缓存
func (s *Store[T]) Delete(key int) {
	s.c.Delete(strconv.Itoa(key))
}

// CacheItem 包装实际的数据，增加过期时间
type CacheItem[T any] struct {
	Value     T
	ExpiredAt time.Time
}

// LRU 带过期时间的 LRU 缓存，线程安全
type LRU[K comparable, T any] struct {
	storage *lru.Cache[K, CacheItem[T]]
	ttl     time.Duration
}

// NewLRU size 是最大缓存条数，ttl 是数据有效期
func NewLRU[K comparable, T any](size int, ttl time.Duration) *LRU[K, T] {
	c, _ := lru.New[K, CacheItem[T]](size)
	return &LRU[K, T]{storage: c, ttl: ttl}
}

// Set 写入或覆盖
func (c *LRU[K, T]) Set(key K, value T) {
	c.storage.Add(key, CacheItem[T]{
		Value:     value,
		ExpiredAt: time.Now().Add(c.ttl),
	})
}

// Get 读取，过期的条目会被删除
func (c *LRU[K, T]) Get(key K) (T, bool) {
	var zero T
	item, ok := c.storage.Get(key)
	if !ok {
		return zero, false
	}
	if time.Now().After(item.ExpiredAt) {
		c.storage.Remove(key)
		return zero, false
	}
	return item.Value, true
}

// Delete 删除
func (c *LRU[K, T]) Delete(key K) {
	c.storage.Remove(key)
}

// Len 当前条数
func (c *LRU[K, T]) Len() int {
	return c.storage.Len()
}
