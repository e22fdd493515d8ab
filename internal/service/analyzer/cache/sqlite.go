package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/darkkaiser/bikonomi/internal/pkg/sqlitedb"
	applog "github.com/darkkaiser/bikonomi/pkg/log"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS analysis_cache (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at INTEGER NOT NULL
)`

const sqliteExpiresIndex = `CREATE INDEX IF NOT EXISTS idx_analysis_cache_expires_at ON analysis_cache (expires_at)`

// SQLite 값을 JSON 으로 직렬화하여 SQLite 테이블에 보관하는 캐시입니다.
// 프로세스 재시작 후에도 캐시가 유지됩니다.
type SQLite[V any] struct {
	db  *sql.DB
	ttl time.Duration

	// ownsDB true 이면 Close 시 db 도 함께 닫습니다.
	ownsDB bool

	now func() time.Time
}

var _ Cache[int] = (*SQLite[int])(nil)

// NewSQLite 이미 열린 db 위에 캐시 테이블을 준비합니다. db 의 수명은 호출자가 관리합니다.
func NewSQLite[V any](ctx context.Context, db *sql.DB, ttl time.Duration) (*SQLite[V], error) {
	if err := sqlitedb.Migrate(ctx, db, sqliteSchema, sqliteExpiresIndex); err != nil {
		return nil, err
	}

	return &SQLite[V]{
		db:  db,
		ttl: normalizeTTL(ttl),
		now: time.Now,
	}, nil
}

// OpenSQLite path 의 데이터베이스를 열어 캐시를 생성합니다. Close 시 데이터베이스도 닫힙니다.
func OpenSQLite[V any](ctx context.Context, path string, ttl time.Duration) (*SQLite[V], error) {
	db, err := sqlitedb.Open(ctx, path)
	if err != nil {
		return nil, err
	}

	c, err := NewSQLite[V](ctx, db, ttl)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	c.ownsDB = true

	return c, nil
}

func (c *SQLite[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V

	var data []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT value FROM analysis_cache WHERE key = ? AND expires_at > ?`,
		key, c.now().UnixMilli(),
	).Scan(&data)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			c.logError(ctx, key, err, "캐시 조회 실패: 캐시 미스로 처리합니다")
		}
		return zero, false
	}

	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		c.logError(ctx, key, err, "캐시 값 역직렬화 실패: 캐시 미스로 처리합니다")
		return zero, false
	}

	return v, true
}

func (c *SQLite[V]) Set(ctx context.Context, key string, value V) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logError(ctx, key, err, "캐시 값 직렬화 실패: 저장을 건너뜁니다")
		return
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO analysis_cache (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, data, c.now().Add(c.ttl).UnixMilli(),
	)
	if err != nil {
		c.logError(ctx, key, err, "캐시 저장 실패")
	}
}

func (c *SQLite[V]) Delete(ctx context.Context, key string) {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM analysis_cache WHERE key = ?`, key); err != nil {
		c.logError(ctx, key, err, "캐시 삭제 실패")
	}
}

func (c *SQLite[V]) Purge(ctx context.Context) int {
	res, err := c.db.ExecContext(ctx, `DELETE FROM analysis_cache WHERE expires_at <= ?`, c.now().UnixMilli())
	if err != nil {
		c.logError(ctx, "", err, "만료 캐시 정리 실패")
		return 0
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}

	return int(n)
}

func (c *SQLite[V]) Close() error {
	if !c.ownsDB {
		return nil
	}
	return c.db.Close()
}

func (c *SQLite[V]) logError(ctx context.Context, key string, err error, msg string) {
	applog.WithComponent(component).WithContext(ctx).WithFields(applog.Fields{
		"backend": BackendSQLite,
		"key":     key,
		"error":   err,
	}).Warn(msg)
}
