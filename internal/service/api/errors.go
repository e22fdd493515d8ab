package api

import (
	apperrors "github.com/darkkaiser/bikonomi/internal/pkg/errors"
)

// ErrAnalyzerNotInitialized 서비스 시작 시 분석 파이프라인이 주입되지 않았을 때 반환됩니다.
var ErrAnalyzerNotInitialized = apperrors.New(apperrors.Internal, "Analyzer 객체가 초기화되지 않았습니다")
