// Package mcp 가격 분석 기능을 MCP(Model Context Protocol) 도구로 노출합니다.
//
// 표준 입출력으로 동작하므로 MCP 클라이언트가 서버 프로세스를 직접 실행합니다.
// 표준 출력은 프로토콜 전용이므로 로그는 반드시 표준 에러나 파일로 보내야 합니다.
package mcp

import (
	"context"
	"io"

	"github.com/darkkaiser/bikonomi/internal/pkg/version"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer"
	applog "github.com/darkkaiser/bikonomi/pkg/log"
	"github.com/mark3labs/mcp-go/server"
)

const (
	component = "mcp.server"

	serverName = "bikonomi"
)

// Analyzer MCP 도구가 사용하는 분석 기능입니다.
type Analyzer interface {
	Analyze(ctx context.Context, in analyzer.Input) (analyzer.Response, error)
	Contribute(ctx context.Context, c analyzer.Contribution) error
}

var _ Analyzer = (*analyzer.Analyzer)(nil)

// NewServer 도구가 등록된 MCP 서버를 생성합니다.
func NewServer(a Analyzer, buildInfo version.Info) *server.MCPServer {
	if a == nil {
		panic("mcp: Analyzer는 필수입니다")
	}

	v := buildInfo.Version
	if v == "" {
		v = "dev"
	}

	s := server.NewMCPServer(
		serverName,
		v,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	registerTools(s, &tools{analyzer: a})

	return s
}

// Serve ctx 가 취소되거나 입력이 끝날 때까지 stdin/stdout 으로 MCP 요청을 처리합니다.
func Serve(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer) error {
	applog.WithComponent(component).Info("MCP 서버 시작")

	err := server.NewStdioServer(s).Listen(ctx, in, out)

	applog.WithComponentAndFields(component, applog.Fields{
		"error": err,
	}).Info("MCP 서버 종료")

	return err
}
