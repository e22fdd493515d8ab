package main

import (
	"os"
)

// 빌드 정보 변수 (Dockerfile의 ldflags로 주입됨)
var (
	Version     = "dev"     // Git 커밋 해시
	BuildDate   = "unknown" // 빌드 날짜
	BuildNumber = "0"       // 빌드 번호
)

const (
	banner = `
  ____   _  _                                  _
 | __ ) (_)| | __  ___   _ __    ___   _ __ ___ (_)
 |  _ \ | || |/ / / _ \ | '_ \  / _ \ | '_ ' _ \| |
 | |_) || ||   < | (_) || | | || (_) || | | | | | |
 |____/ |_||_|\_\ \___/ |_| |_| \___/ |_| |_| |_|_|
                                                  %s
                                                        developed by DarkKaiser
--------------------------------------------------------------------------------
`
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
