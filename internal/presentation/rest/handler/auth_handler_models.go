package handler

// IssueTokenRequest プレイヤートークン発行リクエスト
// @Description プレイヤートークン発行リクエスト
type IssueTokenRequest struct {
	PlayerID string `json:"player_id" example:"alice"`
}

// IssueTokenResponse プレイヤートークン発行レスポンス
// @Description プレイヤートークン発行レスポンス
type IssueTokenResponse struct {
	Token     string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJwbGF5ZXJfaWQiOiJhbGljZSJ9.signature"`
	PlayerID  string `json:"player_id" example:"alice"`
	ExpiresIn int64  `json:"expires_in" example:"86400"`
	TokenType string `json:"token_type" example:"Bearer"`
}
