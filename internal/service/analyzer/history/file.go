package history

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/darkkaiser/bikonomi/pkg/concurrency"
	applog "github.com/darkkaiser/bikonomi/pkg/log"
	"github.com/google/uuid"
)

// defaultDataDirectory 이력 파일을 저장할 기본 디렉토리 이름입니다.
const defaultDataDirectory = "data/history"

// fileMaxPoints 파일 하나에 보관하는 최대 관측치 수입니다. 초과분은 오래된 것부터 버립니다.
const fileMaxPoints = 5000

const (
	historyFilePattern = "history-*.json"
	tempFilePattern    = "history-*.tmp"
)

// historyFile 상품 키 하나의 이력 파일 내용입니다.
type historyFile struct {
	ProductKey string  `json:"productKey"`
	Points     []Point `json:"points"`
}

// File 상품 키마다 JSON 파일 하나에 관측치를 보관하는 저장소입니다.
//
// [파일 구조]
//   - history-{키}-{hash}.json: 상품 키별 관측치 (오래된 순)
//   - history-*.tmp: 원자적 쓰기 중 생성되는 임시 파일
type File struct {
	baseDir string

	// locks 같은 파일에 대한 읽기/쓰기를 직렬화하는 파일별 뮤텍스
	locks *concurrency.KeyedMutex[string]

	now func() time.Time
}

var _ Store = (*File)(nil)

// NewFile dir 아래에 이력 파일을 저장하는 저장소를 생성합니다. dir 이 비어 있으면 "data/history"를 사용합니다.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		dir = defaultDataDirectory
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, newErrPathResolutionFailed(err)
	}
	if err := os.MkdirAll(absDir, 0755); err != nil {
		return nil, newErrDirectoryAccessFailed(err, absDir)
	}

	s := &File{
		baseDir: absDir,
		locks:   concurrency.NewKeyedMutex[string](),
		now:     time.Now,
	}
	s.cleanupStaleTempFiles()

	return s, nil
}

// cleanupStaleTempFiles 비정상 종료로 남은 1시간 이상 된 임시 파일을 지웁니다.
func (s *File) cleanupStaleTempFiles() {
	matches, err := filepath.Glob(filepath.Join(s.baseDir, tempFilePattern))
	if err != nil {
		return
	}

	threshold := time.Now().Add(-1 * time.Hour)
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.ModTime().After(threshold) {
			continue
		}

		if err := os.Remove(path); err == nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"file": path,
			}).Info("임시 파일 삭제 완료: 이전 실행 잔존 파일 정리")
		}
	}
}

func (s *File) AppendPoint(_ context.Context, key string, total float64, kind Kind) (Point, error) {
	key, p, err := newPoint(key, total, kind, s.now())
	if err != nil {
		return Point{}, err
	}
	p.ID = uuid.NewString()

	path, err := s.resolveSafePath(key)
	if err != nil {
		return Point{}, err
	}

	err = s.locks.WithLock(strings.ToLower(path), func() error {
		hf, err := s.read(path)
		if err != nil {
			return err
		}

		hf.ProductKey = key
		hf.Points = append(hf.Points, p)
		if len(hf.Points) > fileMaxPoints {
			hf.Points = hf.Points[len(hf.Points)-fileMaxPoints:]
		}

		return s.write(path, hf)
	})
	if err != nil {
		return Point{}, err
	}

	return p, nil
}

func (s *File) RecentPoints(ctx context.Context, key string, window time.Duration) ([]Point, error) {
	pts, err := s.Range(ctx, key, s.now().Add(-normalizeWindow(window)))
	if err != nil {
		return nil, err
	}

	slices.Reverse(pts)
	if len(pts) > MaxRecentPoints {
		pts = pts[:MaxRecentPoints]
	}

	return pts, nil
}

func (s *File) Range(_ context.Context, key string, since time.Time) ([]Point, error) {
	path, err := s.resolveSafePath(strings.TrimSpace(key))
	if err != nil {
		return nil, err
	}

	var hf historyFile
	err = s.locks.WithLock(strings.ToLower(path), func() error {
		var readErr error
		hf, readErr = s.read(path)
		return readErr
	})
	if err != nil {
		return nil, err
	}

	result := make([]Point, 0, len(hf.Points))
	for _, p := range hf.Points {
		if !p.Time.Before(since) {
			result = append(result, p)
		}
	}

	return result, nil
}

func (s *File) Prune(ctx context.Context, olderThan time.Time) (int, error) {
	matches, err := filepath.Glob(filepath.Join(s.baseDir, historyFilePattern))
	if err != nil {
		return 0, newErrHistoryReadFailed(err)
	}

	pruned := 0
	for _, path := range matches {
		if err := ctx.Err(); err != nil {
			return pruned, err
		}

		err := s.locks.WithLock(strings.ToLower(path), func() error {
			hf, err := s.read(path)
			if err != nil {
				return err
			}

			before := len(hf.Points)
			hf.Points = slices.DeleteFunc(hf.Points, func(p Point) bool {
				return p.Time.Before(olderThan)
			})
			if len(hf.Points) == before {
				return nil
			}
			pruned += before - len(hf.Points)

			if len(hf.Points) == 0 {
				return os.Remove(path)
			}
			return s.write(path, hf)
		})
		if err != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"file":  path,
				"error": err,
			}).Warn("이력 파일 정리 실패: 다음 파일로 넘어갑니다")
		}
	}

	return pruned, nil
}

func (s *File) Close() error {
	return nil
}

// resolveSafePath 상품 키의 이력 파일 경로를 만들고, 그 경로가 baseDir 아래에 있는지 확인합니다.
func (s *File) resolveSafePath(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidPoint
	}

	cleanPath := filepath.Clean(filepath.Join(s.baseDir, generateFilename(key)))

	rel, err := filepath.Rel(s.baseDir, cleanPath)
	if err != nil {
		return "", newErrPathResolutionFailed(err)
	}
	if strings.HasPrefix(rel, "..") {
		applog.WithComponentAndFields(component, applog.Fields{
			"key":      key,
			"base_dir": s.baseDir,
			"path":     cleanPath,
		}).Error("파일 경로 생성 차단: 경로 이탈 시도 감지")

		return "", ErrPathTraversalDetected
	}

	return cleanPath, nil
}

// read 이력 파일을 읽습니다. 파일이 없으면 빈 이력을 반환합니다. 호출자가 락을 보유해야 합니다.
func (s *File) read(path string) (historyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return historyFile{}, nil
		}
		return historyFile{}, newErrHistoryReadFailed(err)
	}

	var hf historyFile
	if err := json.Unmarshal(data, &hf); err != nil {
		return historyFile{}, newErrJSONUnmarshalFailed(err)
	}

	return hf, nil
}

// write 임시 파일 쓰기, fsync, rename 순서로 이력 파일을 원자적으로 교체합니다. 호출자가 락을 보유해야 합니다.
func (s *File) write(path string, hf historyFile) error {
	data, err := json.Marshal(hf)
	if err != nil {
		return newErrJSONMarshalFailed(err)
	}

	dir := filepath.Dir(path)

	tmpFile, err := os.CreateTemp(dir, tempFilePattern)
	if err != nil {
		return newErrFileWriteFailed(err, "임시 파일 생성")
	}
	tmpPath := tmpFile.Name()

	// Windows 에서는 열린 파일을 지울 수 없으므로 Close 가 Remove 보다 먼저 실행되어야 합니다.
	defer os.Remove(tmpPath)
	defer tmpFile.Close()

	if _, err := tmpFile.Write(data); err != nil {
		return newErrFileWriteFailed(err, "파일 쓰기")
	}
	if err := tmpFile.Sync(); err != nil {
		return newErrFileWriteFailed(err, "디스크 동기화")
	}
	if err := tmpFile.Close(); err != nil {
		return newErrFileWriteFailed(err, "파일 닫기")
	}
	if err := renameWithRetry(tmpPath, path); err != nil {
		return newErrFileWriteFailed(err, "파일 이름 변경")
	}

	if dirFile, err := os.Open(dir); err == nil {
		_ = dirFile.Sync()
		dirFile.Close()
	}

	return nil
}

// renameWithRetry 백신이나 인덱서가 파일을 잠깐 잡고 있는 경우를 위해 rename 을 몇 번 재시도합니다.
func renameWithRetry(oldPath, newPath string) error {
	const maxRetries = 5
	const retryDelay = 10 * time.Millisecond

	var lastErr error
	for range maxRetries {
		err := os.Rename(oldPath, newPath)
		if err == nil {
			return nil
		}

		lastErr = err
		time.Sleep(retryDelay)
	}

	return lastErr
}
