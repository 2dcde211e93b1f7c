package handler

// MenuOptionView メニュー項目
// @Description メニュー項目
type MenuOptionView struct {
	Key         string `json:"key" example:"specials_creator"`
	Label       string `json:"label" example:"Specials Creator"`
	Description string `json:"description,omitempty"`
}

// DevMenuResponse 開発者メニュー
// @Description 開発者メニュー。項目は表示順
type DevMenuResponse struct {
	Title   string           `json:"title" example:"Developer Tools"`
	Options []MenuOptionView `json:"options"`
}

// InvokeMenuRequest メニュー項目実行リクエスト
// @Description メニュー項目実行リクエスト
type InvokeMenuRequest struct {
	Args map[string]string `json:"args"`
}

// InvokeMenuResponse メニュー項目実行レスポンス
// @Description noticeはツール未登録などの通知
type InvokeMenuResponse struct {
	Key     string                 `json:"key" example:"specials_creator"`
	Message string                 `json:"message,omitempty"`
	Notice  string                 `json:"notice,omitempty" example:"Specials Creator is not loaded."`
	Data    map[string]interface{} `json:"data,omitempty"`
}
