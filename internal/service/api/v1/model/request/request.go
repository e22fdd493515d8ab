// Package request v1 API 요청 본문 모델을 정의합니다.
package request

// AnalyzeRequest 상품 링크 분석 요청
type AnalyzeRequest struct {
	// 분석할 상품 페이지 링크
	URL string `json:"url" validate:"max=2048" korean:"링크" example:"https://www.trendyol.com/marka/urun-p-123"`
	// 사용자가 직접 입력한 가격 (선택)
	ManualPrice *float64 `json:"manualPrice,omitempty" korean:"수동 가격" example:"1299.9"`
	// 사용자가 직접 입력한 배송비 (선택, manualPrice 와 함께만 사용)
	ManualShipping *float64 `json:"manualShipping,omitempty" korean:"수동 배송비" example:"29.9"`
}

// ContributeRequest 가격 제보 요청
type ContributeRequest struct {
	ProductKey string   `json:"productKey" validate:"required,max=512" korean:"상품 키" example:"trendyol:trendyol.com/marka/urun-p-123"`
	Price      float64  `json:"price" validate:"gt=0" korean:"가격" example:"1249.9"`
	Shipping   *float64 `json:"shipping,omitempty" korean:"배송비" example:"0"`
}
