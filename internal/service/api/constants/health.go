package constants

// 헬스체크 상태값입니다.
const (
	HealthStatusHealthy   = "healthy"
	HealthStatusUnhealthy = "unhealthy"
)

// 헬스체크 대상 의존성 이름입니다.
const (
	DependencyHistoryStore = "history_store"
)

const (
	MsgDepStatusHealthy        = "정상 작동 중"
	MsgDepStatusNotInitialized = "초기화되지 않음"
)
