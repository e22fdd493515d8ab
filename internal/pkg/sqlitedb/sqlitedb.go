// Package sqlitedb 캐시와 가격 이력 저장소가 함께 쓰는 SQLite 연결을 엽니다.
package sqlitedb

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/darkkaiser/bikonomi/internal/pkg/errors"
	_ "modernc.org/sqlite"
)

// driverName modernc.org/sqlite 가 등록하는 드라이버 이름입니다.
const driverName = "sqlite"

// MemoryPath 테스트용 인메모리 데이터베이스 경로입니다.
const MemoryPath = ":memory:"

// Open 주어진 경로의 SQLite 데이터베이스를 열고 연결을 확인합니다.
//
// WAL 저널과 busy_timeout 을 켜서 읽기와 쓰기가 서로 오래 막히지 않게 합니다.
// SQLite 는 쓰기 연결이 하나뿐이므로 커넥션 풀도 1개로 제한합니다.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, apperrors.New(apperrors.InvalidInput, "SQLite 데이터베이스 경로가 비어 있습니다")
	}

	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, apperrors.Wrapf(err, apperrors.System, "SQLite 데이터베이스 디렉토리를 생성할 수 없습니다 (%s)", path)
		}
	}

	db, err := sql.Open(driverName, dsn(path))
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.System, "SQLite 데이터베이스를 열 수 없습니다 (%s)", path)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, apperrors.Wrapf(err, apperrors.System, "SQLite 데이터베이스 연결 확인에 실패했습니다 (%s)", path)
	}

	return db, nil
}

func dsn(path string) string {
	pragmas := "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	if path == MemoryPath {
		return "file::memory:?" + pragmas
	}

	return "file:" + filepath.ToSlash(path) + "?" + pragmas + "&_pragma=journal_mode(WAL)"
}

// Migrate 주어진 DDL 문을 하나의 트랜잭션에서 차례로 실행합니다.
func Migrate(ctx context.Context, db *sql.DB, statements ...string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(err, apperrors.System, "스키마 초기화 트랜잭션을 시작할 수 없습니다")
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return apperrors.Wrap(err, apperrors.System, "스키마 초기화 중 오류가 발생했습니다")
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(err, apperrors.System, "스키마 초기화 트랜잭션을 커밋할 수 없습니다")
	}

	return nil
}
