package history

import (
	"context"
	"database/sql"
	"strings"

	apperrors "github.com/darkkaiser/bikonomi/internal/pkg/errors"
)

// Options 이력 저장소 생성 옵션입니다.
type Options struct {
	Backend Backend

	// DB 가 주어지면 SQLite 저장소가 이 연결을 공유하고, 없으면 Path 의 데이터베이스를 직접 엽니다.
	DB   *sql.DB
	Path string

	// Dir 파일 저장소의 디렉토리
	Dir string
}

// New 옵션의 Backend 에 맞는 저장소를 생성합니다. Backend 가 비어 있으면 메모리 저장소를 사용합니다.
func New(ctx context.Context, opts Options) (Store, error) {
	switch Backend(strings.ToLower(string(opts.Backend))) {
	case "", BackendMemory:
		return NewMemory(), nil

	case BackendSQLite:
		if opts.DB != nil {
			return NewSQLite(ctx, opts.DB)
		}
		return OpenSQLite(ctx, opts.Path)

	case BackendFile:
		return NewFile(opts.Dir)

	default:
		return nil, apperrors.Newf(apperrors.InvalidInput, "지원하지 않는 이력 저장소입니다: %s", opts.Backend)
	}
}
