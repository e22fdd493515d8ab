package constants

// 클라이언트에게 반환되는 에러 메시지입니다.
const (
	ErrMsgBadRequest         = "잘못된 요청입니다"
	ErrMsgInvalidBody        = "요청 본문을 파싱할 수 없습니다. JSON 형식을 확인해주세요"
	ErrMsgNotFound           = "요청한 리소스를 찾을 수 없습니다"
	ErrMsgTooManyRequests    = "요청이 너무 많습니다. 잠시 후 다시 시도해주세요"
	ErrMsgInternalServer     = "내부 서버 오류가 발생했습니다"
	ErrMsgServiceUnavailable = "가격 이력 저장소를 일시적으로 사용할 수 없습니다. 잠시 후 다시 시도해주세요"
	ErrMsgExportFailed       = "가격 이력 파일을 만들지 못했습니다"

	// ErrMsgInvalidURL 분석할 링크가 잘못되었을 때의 메시지 (사용자에게 그대로 노출됩니다)
	ErrMsgInvalidURL = "Geçersiz URL"
)

// 로그 메시지입니다.
const (
	LogMsgServiceStarting                = "API 서비스 시작 진행 중..."
	LogMsgServiceStarted                 = "API 서비스 시작 완료"
	LogMsgServiceAlreadyStarted          = "API 서비스가 이미 시작됨!!!"
	LogMsgServiceStopping                = "API 서비스 중지 진행 중..."
	LogMsgServiceStopped                 = "API 서비스 중지 완료"
	LogMsgServiceUnexpectedExit          = "HTTP 서버가 예기치 않게 종료되었습니다"
	LogMsgServiceHTTPServerStarting      = "HTTP 서버 시작"
	LogMsgServiceHTTPServerStopped       = "HTTP 서버 종료 완료"
	LogMsgServiceHTTPServerFatalError    = "HTTP 서버를 구성하는 중에 치명적인 오류가 발생하였습니다"
	LogMsgServiceHTTPServerShutdownError = "HTTP 서버를 종료하는 중에 오류가 발생하였습니다"

	LogMsgHTTP4xxClientError = "HTTP 4xx: 클라이언트 요청 오류"
	LogMsgHTTP5xxServerError = "HTTP 5xx: 서버 내부 오류"
)

// 패닉 메시지입니다.
const (
	PanicMsgAppConfigRequired = "AppConfig는 필수입니다"
	PanicMsgAnalyzerRequired  = "Analyzer는 필수입니다"
)
