package history

import (
	"fmt"

	apperrors "github.com/darkkaiser/bikonomi/internal/pkg/errors"
)

var (
	// ErrPathTraversalDetected 이력 파일 경로가 저장 디렉토리를 벗어날 때 반환됩니다.
	ErrPathTraversalDetected = apperrors.New(apperrors.Internal, "보안 정책 위반: 허용되지 않은 경로 접근 시도로 인해 요청이 차단되었습니다")
)

func newErrPathResolutionFailed(err error) error {
	return apperrors.Wrap(err, apperrors.Internal, "보안 검증 실패: 파일 경로를 해석할 수 없습니다")
}

func newErrDirectoryAccessFailed(err error, dir string) error {
	return apperrors.Wrap(err, apperrors.System, fmt.Sprintf("이력 저장소 초기화 실패: 디렉토리 접근 불가 (%s)", dir))
}

func newErrHistoryReadFailed(err error) error {
	return apperrors.Wrap(err, apperrors.System, "가격 이력 조회 실패: 이력 파일 읽기 중 오류가 발생했습니다")
}

func newErrJSONMarshalFailed(err error) error {
	return apperrors.Wrap(err, apperrors.Internal, "데이터 처리 실패: 가격 이력 직렬화(JSON Marshal) 중 오류가 발생했습니다")
}

func newErrJSONUnmarshalFailed(err error) error {
	return apperrors.Wrap(err, apperrors.Internal, "데이터 처리 실패: 가격 이력 역직렬화(JSON Unmarshal) 중 오류가 발생했습니다")
}

func newErrFileWriteFailed(err error, step string) error {
	return apperrors.Wrap(err, apperrors.System, fmt.Sprintf("가격 이력 저장 실패: %s 중 오류가 발생했습니다", step))
}
