// Package cronx 애플리케이션 표준 Cron 표현식 파서를 제공합니다.
package cronx

import "github.com/robfig/cron/v3"

// StandardParser 초 단위를 포함한 6필드 형식([초] [분] [시] [일] [월] [요일])과
// @hourly, @every 10m 같은 디스크립터를 지원하는 파서를 반환합니다.
func StandardParser() cron.Parser {
	return cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

// Validate spec이 StandardParser로 해석 가능한지 확인합니다.
func Validate(spec string) error {
	_, err := StandardParser().Parse(spec)
	return err
}
