package shop

// GetOrCreateRequest ショップ取得・作成リクエスト
type GetOrCreateRequest struct {
	ShopID string
	Shared bool
}

// DeleteRequest ショップ削除リクエスト
type DeleteRequest struct {
	ShopID    string
	Requester string // 取引中でも削除できる呼び出し元
}

// ShopInfo ショップの概要
type ShopInfo struct {
	ShopID       string
	Shared       bool
	Created      bool // GetOrCreateで新規作成された場合true
	Balance      int64
	Modifiers    int
	ActiveLeases int
}

// ListResponse ショップ一覧レスポンス
type ListResponse struct {
	Shops []ShopInfo
}
