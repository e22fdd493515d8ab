// Package cache 분석 결과를 상품 키 단위로 일정 시간 보관합니다.
//
// 캐시는 응답 속도를 위한 보조 수단이므로 저장소 오류는 호출자에게 전파하지 않고
// 로그만 남긴 뒤 캐시 미스로 처리합니다.
package cache

import (
	"context"
	"time"
)

// component 캐시 로깅용 컴포넌트 이름
const component = "analyzer.cache"

// DefaultTTL 설정이 없을 때 사용하는 캐시 유지 시간입니다.
const DefaultTTL = 6 * time.Hour

// DefaultSize 메모리 캐시가 보관하는 최대 항목 수입니다.
const DefaultSize = 4096

// Cache 상품 키로 값을 저장하고 조회하는 캐시입니다.
type Cache[V any] interface {
	// Get 만료되지 않은 값이 있으면 (값, true)를 반환합니다.
	Get(ctx context.Context, key string) (V, bool)

	// Set 값을 TTL 동안 저장합니다. 같은 키에 대해서는 마지막 쓰기가 이깁니다.
	Set(ctx context.Context, key string, value V)

	// Delete 키에 해당하는 항목을 즉시 무효화합니다.
	Delete(ctx context.Context, key string)

	// Purge 만료된 항목을 정리하고 정리된 개수를 반환합니다.
	Purge(ctx context.Context) int

	Close() error
}

// Backend 캐시 저장소 종류입니다.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendSQLite Backend = "sqlite"
)

func normalizeTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	return ttl
}
