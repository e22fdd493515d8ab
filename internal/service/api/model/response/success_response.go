package response

// SuccessResponse 처리 결과만 알리는 API 성공 응답
type SuccessResponse struct {
	OK bool `json:"ok" example:"true"`
}
