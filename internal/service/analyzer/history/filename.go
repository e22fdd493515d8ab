package history

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode/utf8"

	"github.com/iancoleman/strcase"
)

// filenameReplacer 파일 시스템에서 문제를 일으킬 수 있는 문자를 하이픈으로 치환합니다.
// 상품 키에는 "source:host/path" 형태로 콜론과 슬래시가 항상 포함됩니다.
var filenameReplacer = strings.NewReplacer(
	"..", "--",
	"/", "-",
	"\\", "-",
	"|", "-",
	"<", "-",
	">", "-",
	":", "-",
	"\"", "-",
	"?", "-",
	"*", "-",
	"=", "-",
	"&", "-",
	"%", "-",
)

// generateFilename 상품 키로부터 사람이 읽을 수 있으면서 충돌하지 않는 파일명을 만듭니다.
//
// [생성 패턴]
// "history-{정제된키}-{16자리해시}.json"
//
// 정제 과정에서 서로 다른 키가 같은 이름이 될 수 있으므로 원본 키의 64비트 해시를 덧붙입니다.
func generateFilename(key string) string {
	name := truncateByBytes(sanitizeName(key), 80)

	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(key))

	return fmt.Sprintf("history-%s-%016x.json", name, hasher.Sum64())
}

// sanitizeName 파일명으로 안전하게 사용할 수 있도록 문자열을 정제합니다.
func sanitizeName(s string) string {
	kebab := strcase.ToKebab(filenameReplacer.Replace(s))

	// 제어 문자(0x00-0x1F) 및 DEL(0x7F)
	kebab = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7F {
			return '-'
		}
		return r
	}, kebab)

	return filenameReplacer.Replace(kebab)
}

// truncateByBytes 문자열을 UTF-8 문자가 깨지지 않도록 바이트 길이 기준으로 자릅니다.
func truncateByBytes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	var totalBytes int
	for i := 0; i < len(s); {
		_, size := utf8.DecodeRuneInString(s[i:])
		if totalBytes+size > limit {
			return s[:totalBytes]
		}

		totalBytes += size
		i += size
	}

	return s[:totalBytes]
}
