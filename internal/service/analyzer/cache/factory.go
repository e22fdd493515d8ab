package cache

import (
	"context"
	"database/sql"
	"strings"
	"time"

	apperrors "github.com/darkkaiser/bikonomi/internal/pkg/errors"
)

// Options 캐시 생성 옵션입니다.
type Options struct {
	Backend Backend
	TTL     time.Duration

	// Size 메모리 캐시의 최대 항목 수
	Size int

	// DB 가 주어지면 SQLite 캐시가 이 연결을 공유하고, 없으면 Path 의 데이터베이스를 직접 엽니다.
	DB   *sql.DB
	Path string
}

// New 옵션의 Backend 에 맞는 캐시를 생성합니다. Backend 가 비어 있으면 메모리 캐시를 사용합니다.
func New[V any](ctx context.Context, opts Options) (Cache[V], error) {
	switch Backend(strings.ToLower(string(opts.Backend))) {
	case "", BackendMemory:
		return NewMemory[V](opts.Size, opts.TTL), nil

	case BackendSQLite:
		if opts.DB != nil {
			return NewSQLite[V](ctx, opts.DB, opts.TTL)
		}
		return OpenSQLite[V](ctx, opts.Path, opts.TTL)

	default:
		return nil, apperrors.Newf(apperrors.InvalidInput, "지원하지 않는 캐시 저장소입니다: %s", opts.Backend)
	}
}
