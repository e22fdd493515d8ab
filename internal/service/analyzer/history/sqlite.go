package history

import (
	"context"
	"database/sql"
	"time"

	apperrors "github.com/darkkaiser/bikonomi/internal/pkg/errors"
	"github.com/darkkaiser/bikonomi/internal/pkg/sqlitedb"
	"github.com/google/uuid"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS price_points (
	id          TEXT PRIMARY KEY,
	product_key TEXT NOT NULL,
	kind        TEXT NOT NULL CHECK (kind IN ('auto', 'contrib')),
	total       REAL NOT NULL CHECK (total > 0),
	created_at  INTEGER NOT NULL
)`

const sqliteKeyIndex = `CREATE INDEX IF NOT EXISTS idx_price_points_key_created ON price_points (product_key, created_at)`

const sqliteCreatedIndex = `CREATE INDEX IF NOT EXISTS idx_price_points_created ON price_points (created_at)`

// SQLite 관측치를 SQLite 테이블에 보관하는 저장소입니다.
type SQLite struct {
	db     *sql.DB
	ownsDB bool

	now func() time.Time
}

var _ Store = (*SQLite)(nil)

// NewSQLite 이미 열린 db 위에 관측치 테이블을 준비합니다. db 의 수명은 호출자가 관리합니다.
func NewSQLite(ctx context.Context, db *sql.DB) (*SQLite, error) {
	if err := sqlitedb.Migrate(ctx, db, sqliteSchema, sqliteKeyIndex, sqliteCreatedIndex); err != nil {
		return nil, err
	}

	return &SQLite{db: db, now: time.Now}, nil
}

// OpenSQLite path 의 데이터베이스를 열어 저장소를 생성합니다. Close 시 데이터베이스도 닫힙니다.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sqlitedb.Open(ctx, path)
	if err != nil {
		return nil, err
	}

	s, err := NewSQLite(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.ownsDB = true

	return s, nil
}

func (s *SQLite) AppendPoint(ctx context.Context, key string, total float64, kind Kind) (Point, error) {
	key, p, err := newPoint(key, total, kind, s.now())
	if err != nil {
		return Point{}, err
	}
	p.ID = uuid.NewString()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO price_points (id, product_key, kind, total, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, key, string(p.Kind), p.Total, p.Time.UnixMilli(),
	)
	if err != nil {
		return Point{}, newErrStoreFailed(err, "가격 관측치 저장")
	}

	return p, nil
}

func (s *SQLite) RecentPoints(ctx context.Context, key string, window time.Duration) ([]Point, error) {
	since := s.now().Add(-normalizeWindow(window))

	return s.query(ctx,
		`SELECT id, kind, total, created_at FROM price_points
		 WHERE product_key = ? AND created_at >= ?
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`,
		key, since.UnixMilli(), MaxRecentPoints,
	)
}

func (s *SQLite) Range(ctx context.Context, key string, since time.Time) ([]Point, error) {
	return s.query(ctx,
		`SELECT id, kind, total, created_at FROM price_points
		 WHERE product_key = ? AND created_at >= ?
		 ORDER BY created_at ASC, rowid ASC`,
		key, since.UnixMilli(),
	)
}

func (s *SQLite) Prune(ctx context.Context, olderThan time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM price_points WHERE created_at < ?`, olderThan.UnixMilli())
	if err != nil {
		return 0, newErrStoreFailed(err, "오래된 관측치 정리")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, newErrStoreFailed(err, "오래된 관측치 정리")
	}

	return int(n), nil
}

func (s *SQLite) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) query(ctx context.Context, q string, args ...any) ([]Point, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, newErrStoreFailed(err, "가격 관측치 조회")
	}
	defer rows.Close()

	points := make([]Point, 0)
	for rows.Next() {
		var (
			p         Point
			kind      string
			createdAt int64
		)
		if err := rows.Scan(&p.ID, &kind, &p.Total, &createdAt); err != nil {
			return nil, newErrStoreFailed(err, "가격 관측치 조회")
		}
		p.Kind = Kind(kind)
		p.Time = time.UnixMilli(createdAt)

		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, newErrStoreFailed(err, "가격 관측치 조회")
	}

	return points, nil
}

func newErrStoreFailed(err error, op string) error {
	return apperrors.Wrapf(err, apperrors.System, "가격 이력 저장소 오류: %s 중 오류가 발생했습니다", op)
}
