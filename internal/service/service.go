package service

import (
	"context"
	"sync"
)

// Service main 에서 함께 시작하고 serviceStopCtx 취소로 함께 종료되는 백그라운드 서비스입니다.
//
// Start 는 어떤 경로로 반환하든 serviceStopWG.Done() 이 정확히 한 번 호출되도록 보장해야 합니다.
type Service interface {
	Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error
}
