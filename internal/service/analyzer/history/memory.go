package history

import (
	"context"
	"slices"
	"sync"
	"time"
)

// memoryMaxPoints 메모리 저장소가 키별로 보관하는 최대 관측치 수입니다.
const memoryMaxPoints = 200

// Memory 프로세스 메모리에 키별 최근 관측치만 보관하는 저장소입니다.
type Memory struct {
	mu     sync.RWMutex
	points map[string][]Point

	now func() time.Time
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		points: make(map[string][]Point),
		now:    time.Now,
	}
}

func (m *Memory) AppendPoint(_ context.Context, key string, total float64, kind Kind) (Point, error) {
	key, p, err := newPoint(key, total, kind, m.now())
	if err != nil {
		return Point{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	pts := append(m.points[key], p)
	if len(pts) > memoryMaxPoints {
		pts = slices.Clone(pts[len(pts)-memoryMaxPoints:])
	}
	m.points[key] = pts

	return p, nil
}

func (m *Memory) RecentPoints(_ context.Context, key string, window time.Duration) ([]Point, error) {
	since := m.now().Add(-normalizeWindow(window))

	m.mu.RLock()
	defer m.mu.RUnlock()

	pts := m.points[key]
	result := make([]Point, 0, min(len(pts), MaxRecentPoints))
	for i := len(pts) - 1; i >= 0 && len(result) < MaxRecentPoints; i-- {
		if pts[i].Time.Before(since) {
			break
		}
		result = append(result, pts[i])
	}

	return result, nil
}

func (m *Memory) Range(_ context.Context, key string, since time.Time) ([]Point, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pts := m.points[key]
	idx, _ := slices.BinarySearchFunc(pts, since, func(p Point, t time.Time) int {
		return p.Time.Compare(t)
	})

	return slices.Clone(pts[idx:]), nil
}

func (m *Memory) Prune(_ context.Context, olderThan time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pruned := 0
	for key, pts := range m.points {
		kept := slices.DeleteFunc(pts, func(p Point) bool {
			return p.Time.Before(olderThan)
		})
		pruned += len(pts) - len(kept)

		if len(kept) == 0 {
			delete(m.points, key)
			continue
		}
		m.points[key] = kept
	}

	return pruned, nil
}

func (m *Memory) Close() error {
	return nil
}
