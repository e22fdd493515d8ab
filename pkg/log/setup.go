// Package log logrus 기반의 전역 로깅 시스템을 구성합니다.
//
// Setup은 프로세스당 한 번만 실행되며, lumberjack으로 로테이션되는 파일과 콘솔에
// 레벨별로 로그를 나누어 기록합니다.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	fileExt = "log"

	defaultDir        = "logs"
	defaultMaxSizeMB  = 100
	defaultMaxBackups = 20
)

var (
	setupOnce      sync.Once
	globalCloser   io.Closer
	globalSetupErr error
)

// Setup 전역 로깅 시스템을 초기화합니다.
// 두 번째 호출부터는 최초 호출의 결과를 그대로 반환합니다.
// 반환된 Closer는 프로세스 종료 전에 반드시 닫아야 합니다.
func Setup(opts Options) (io.Closer, error) {
	setupOnce.Do(func() {
		globalCloser, globalSetupErr = setup(opts)
	})
	return globalCloser, globalSetupErr
}

func setup(opts Options) (io.Closer, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("유효하지 않은 로그 설정: %w", err)
	}

	level := opts.Level
	if level == 0 {
		level = InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetReportCaller(opts.ReportCaller)
	logrus.SetFormatter(silentFormatter{})
	logrus.SetOutput(io.Discard)

	dir := opts.Dir
	if dir == "" {
		dir = defaultDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("로그 디렉토리 생성 실패: %w", err)
	}

	h := &hook{formatter: newTextFormatter(opts.CallerPathPrefix)}
	if opts.EnableConsoleLog {
		h.consoleWriter = os.Stdout
	}

	var closers []io.Closer
	newFile := func(suffix string) *lumberjack.Logger {
		l := newRotatingFile(dir, opts, suffix)
		closers = append(closers, l)
		return l
	}

	h.mainWriter = newFile("")
	if opts.EnableCriticalLog {
		h.criticalWriter = newFile("critical")
	}
	if opts.EnableVerboseLog {
		h.verboseWriter = newFile("verbose")
	}

	logrus.AddHook(h)

	c := &closer{closers: closers, hook: h}

	// Fatal 로그로 프로세스가 종료되기 직전에 버퍼를 비웁니다.
	logrus.RegisterExitHandler(func() { _ = c.Close() })

	return c, nil
}

func newRotatingFile(dir string, opts Options, suffix string) *lumberjack.Logger {
	name := opts.Name
	if suffix != "" {
		name += "." + suffix
	}

	maxSize := opts.MaxSizeMB
	if maxSize == 0 {
		maxSize = defaultMaxSizeMB
	}
	maxBackups := opts.MaxBackups
	if maxBackups == 0 {
		maxBackups = defaultMaxBackups
	}

	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, name+"."+fileExt),
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     opts.MaxAge,
		LocalTime:  true,
	}
}

func newTextFormatter(callerPrefix string) *logrus.TextFormatter {
	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		CallerPrettyfier: func(frame *runtime.Frame) (function string, file string) {
			function = frame.Function + "(line:" + strconv.Itoa(frame.Line) + ")"
			if callerPrefix != "" {
				if cut, ok := strings.CutPrefix(function, callerPrefix); ok {
					function = "..." + cut
				}
			}
			return function, ""
		},
	}
}
