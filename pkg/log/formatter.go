package log

import "github.com/sirupsen/logrus"

// silentFormatter 전역 출력(io.Discard)에 대한 불필요한 포맷팅을 생략합니다.
// 실제 포맷팅은 hook에서 한 번만 수행합니다.
type silentFormatter struct{}

func (silentFormatter) Format(*logrus.Entry) ([]byte, error) {
	return nil, nil
}
