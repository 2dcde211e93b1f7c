package handler

import "time"

// SaveSlotResponse セーブ結果
// @Description セーブ結果
type SaveSlotResponse struct {
	Slot    string    `json:"slot" example:"slot_1"`
	Size    int       `json:"size" example:"2048"`
	Shops   int       `json:"shops" example:"2"`
	SavedAt time.Time `json:"saved_at"`
}

// ShopLoadError 読み込めなかったショップ
// @Description 読み込めなかったショップ。他のショップは読み込まれる
type ShopLoadError struct {
	ShopID string `json:"shop_id" example:"town"`
	Error  string `json:"error" example:"corrupt shop state"`
}

// LoadSlotResponse ロード結果
// @Description ロード結果
type LoadSlotResponse struct {
	Slot        string          `json:"slot" example:"slot_1"`
	Version     int             `json:"version" example:"1"`
	SavedAt     time.Time       `json:"saved_at"`
	Loaded      []string        `json:"loaded"`
	Failed      []ShopLoadError `json:"failed"`
	WalletCount int             `json:"wallet_count" example:"3"`
}

// SaveSlotInfo スロット情報
// @Description スロット情報
type SaveSlotInfo struct {
	Name    string    `json:"name" example:"slot_1"`
	Size    int       `json:"size" example:"2048"`
	SavedAt time.Time `json:"saved_at"`
}

// SaveSlotListResponse スロット一覧レスポンス
// @Description スロット一覧レスポンス
type SaveSlotListResponse struct {
	Slots []SaveSlotInfo `json:"slots"`
}
