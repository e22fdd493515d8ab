// Package alert 점수가 높은 분석 결과(딜)를 텔레그램으로 알립니다.
package alert

import (
	"context"

	"github.com/darkkaiser/bikonomi/internal/service/analyzer"
)

// component 딜 알림 로깅용 컴포넌트 이름
const component = "alert"

// Noop 알림이 비활성화되었을 때 사용하는 아무 일도 하지 않는 Notifier 입니다.
type Noop struct{}

var _ analyzer.DealNotifier = Noop{}

func (Noop) NotifyDeal(context.Context, analyzer.Response) {}
