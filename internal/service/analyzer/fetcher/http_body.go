package fetcher

import (
	"io"
	"sync"
)

const (
	// maxDrainBytes 커넥션 재사용을 위해 응답 객체의 Body를 비울 때 읽을 최대 바이트 수 (64KB)
	maxDrainBytes = 64 * 1024

	// maxBodySnippetBytes 에러에 담을 응답 본문의 최대 크기 (4KB)
	maxBodySnippetBytes = 4 * 1024
)

var drainBufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 32*1024)
		return &b
	},
}

// drainAndCloseBody HTTP Keep-Alive 커넥션 재사용을 위해 응답 객체의 Body를 일정량 읽어서 버린 후 닫습니다.
//
// 64KB를 초과하는 응답은 끝까지 읽히지 않으므로 해당 커넥션은 재사용되지 않습니다.
func drainAndCloseBody(body io.ReadCloser) {
	if body == nil {
		return
	}
	defer body.Close()

	bufPtr := drainBufPool.Get().(*[]byte)
	defer drainBufPool.Put(bufPtr)

	_, _ = io.CopyBuffer(io.Discard, io.LimitReader(body, maxDrainBytes), *bufPtr)
}

// readBodySnippet 응답 본문의 앞부분을 최대 4KB까지 읽어서 반환합니다.
func readBodySnippet(body io.Reader) string {
	if body == nil {
		return ""
	}

	b, _ := io.ReadAll(io.LimitReader(body, maxBodySnippetBytes))
	return string(b)
}
