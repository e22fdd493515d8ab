// Package strutil 문자열 정규화 및 마스킹 유틸리티입니다.
package strutil

import (
	"strings"
	"unicode/utf8"
)

// NormalizeSpace 연속된 공백(개행, 탭 포함)을 하나의 공백으로 바꾸고 양끝을 정리합니다.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate s가 max 글자(rune)를 넘으면 max-1 글자까지 자르고 "…"를 붙입니다.
// 자른 끝의 공백은 제거합니다.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:max-1])) + "…"
}

// Prefix s의 앞에서부터 최대 n 글자(rune)를 반환합니다.
func Prefix(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// ContainsAnyFold s가 needles 중 하나라도 대소문자 구분 없이 포함하는지 확인합니다.
func ContainsAnyFold(s string, needles ...string) bool {
	if s == "" {
		return false
	}
	lower := strings.ToLower(s)
	for _, n := range needles {
		if n != "" && strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

// Mask 토큰이나 API 키를 로그에 남길 수 있도록 가립니다.
//
//	""              → ""
//	"abc"           → "***"
//	"abcdefgh"      → "abcd***"
//	"1234567890abcd" → "1234***abcd"
func Mask(s string) string {
	switch n := len(s); {
	case n == 0:
		return ""
	case n <= 3:
		return "***"
	case n <= 12:
		return s[:4] + "***"
	default:
		return s[:4] + "***" + s[n-4:]
	}
}
