// Package maputil 느슨한 타입의 맵(JSON 인자, 도구 호출 파라미터 등)을 구조체로 변환합니다.
package maputil

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

type decodingConfig struct {
	tagName     string
	errorUnused bool
	extraHooks  []mapstructure.DecodeHookFunc
}

// Option 디코딩 동작을 조정합니다.
type Option func(*decodingConfig)

// WithTagName 필드 매핑에 사용할 구조체 태그 이름을 지정합니다. (기본값: json)
func WithTagName(name string) Option {
	return func(c *decodingConfig) { c.tagName = name }
}

// WithErrorUnused 구조체에 없는 키가 입력에 있으면 에러를 반환합니다.
func WithErrorUnused(enabled bool) Option {
	return func(c *decodingConfig) { c.errorUnused = enabled }
}

// WithDecodeHook 기본 훅보다 먼저 실행될 훅을 추가합니다.
func WithDecodeHook(hook mapstructure.DecodeHookFunc) Option {
	return func(c *decodingConfig) { c.extraHooks = append(c.extraHooks, hook) }
}

// Decode input을 T로 변환합니다.
//
// 문자열 "1299.90"을 float64로, "true"를 bool로 바꾸는 등 느슨한 변환을 허용하며
// "8s" 형태의 문자열은 time.Duration으로, "a,b" 형태의 문자열은 슬라이스로 변환합니다.
func Decode[T any](input any, opts ...Option) (*T, error) {
	cfg := &decodingConfig{tagName: "json"}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	out := new(T)

	hooks := append([]mapstructure.DecodeHookFunc{}, cfg.extraHooks...)
	hooks = append(hooks, stringToDurationHookFunc(), stringToSliceHookFunc())

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          cfg.tagName,
		WeaklyTypedInput: true,
		ErrorUnused:      cfg.errorUnused,
		Squash:           true,
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(hooks...),
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(input); err != nil {
		return nil, fmt.Errorf("입력 데이터를 %T(으)로 디코딩하는 데 실패했습니다: %w", out, err)
	}
	return out, nil
}
