package auth

// IssueTokenRequest プレイヤートークン発行リクエスト
type IssueTokenRequest struct {
	PlayerID string
}

// IssueTokenResponse プレイヤートークン発行レスポンス
type IssueTokenResponse struct {
	Token     string
	PlayerID  string
	ExpiresIn int64  // 秒単位
	TokenType string // "Bearer"
}
