// Package testutil 여러 패키지의 테스트가 함께 쓰는 네트워크 보조 함수입니다.
package testutil

import (
	"fmt"
	"net"
	"testing"
	"time"
)

// FreeAddr 지금 비어 있는 127.0.0.1 의 TCP 주소를 반환합니다.
func FreeAddr(t testing.TB) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("빈 포트를 찾지 못했습니다: %v", err)
	}
	defer l.Close()

	return l.Addr().String()
}

// WaitForServer addr 에서 연결을 받을 때까지 기다립니다.
func WaitForServer(addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return fmt.Errorf("서버가 %v 안에 %s 에서 시작되지 않았습니다", timeout, addr)
}
