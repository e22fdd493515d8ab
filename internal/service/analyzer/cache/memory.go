package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Memory 프로세스 메모리에 값을 보관하는 만료형 LRU 캐시입니다.
type Memory[V any] struct {
	lru *expirable.LRU[string, V]
}

var _ Cache[int] = (*Memory[int])(nil)

// NewMemory 최대 size 개의 항목을 ttl 동안 보관하는 메모리 캐시를 생성합니다.
func NewMemory[V any](size int, ttl time.Duration) *Memory[V] {
	if size <= 0 {
		size = DefaultSize
	}

	return &Memory[V]{lru: expirable.NewLRU[string, V](size, nil, normalizeTTL(ttl))}
}

func (m *Memory[V]) Get(_ context.Context, key string) (V, bool) {
	return m.lru.Get(key)
}

func (m *Memory[V]) Set(_ context.Context, key string, value V) {
	m.lru.Add(key, value)
}

func (m *Memory[V]) Delete(_ context.Context, key string) {
	m.lru.Remove(key)
}

// Purge 만료되었지만 아직 정리되지 않은 항목을 제거합니다.
func (m *Memory[V]) Purge(_ context.Context) int {
	purged := 0
	// Keys 는 만료 항목을 포함하고 Peek 는 만료 항목에 대해 false 를 반환합니다.
	for _, key := range m.lru.Keys() {
		if _, ok := m.lru.Peek(key); ok {
			continue
		}
		if m.lru.Remove(key) {
			purged++
		}
	}

	return purged
}

// Len 현재 보관 중인 항목 수입니다(만료되었지만 아직 정리되지 않은 항목 포함).
func (m *Memory[V]) Len() int {
	return m.lru.Len()
}

func (m *Memory[V]) Close() error {
	m.lru.Purge()
	return nil
}
