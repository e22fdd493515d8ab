package log

const callerPathPrefix = "github.com/darkkaiser"

// NewProductionConfig 운영 환경용 설정을 반환합니다.
func NewProductionConfig(appName string) Options {
	return Options{
		Name:              appName,
		MaxAge:            30,
		EnableCriticalLog: true,
		EnableVerboseLog:  true,
		ReportCaller:      true,
		CallerPathPrefix:  callerPathPrefix,
	}
}

// NewDevelopmentConfig 개발 환경용 설정을 반환합니다. 콘솔 출력이 켜집니다.
func NewDevelopmentConfig(appName string) Options {
	return Options{
		Name:             appName,
		Level:            DebugLevel,
		MaxAge:           1,
		EnableConsoleLog: true,
		ReportCaller:     true,
		CallerPathPrefix: callerPathPrefix,
	}
}

// NewCLIConfig 단발성 명령(analyze, mcp)용 설정입니다.
// mcp 명령은 표준 출력을 프로토콜 채널로 사용하므로 콘솔 출력을 끕니다.
func NewCLIConfig(appName string) Options {
	return Options{
		Name:       appName + "-cli",
		Level:      WarnLevel,
		MaxAge:     7,
		MaxBackups: 3,
	}
}
