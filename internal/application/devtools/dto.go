package devtools

// MenuOption メニュー項目の表示用情報
type MenuOption struct {
	Key         string
	Label       string
	Description string
}

// MenuResponse メニュー取得レスポンス
type MenuResponse struct {
	Title   string
	Options []MenuOption
}

// InvokeRequest メニュー項目実行リクエスト
type InvokeRequest struct {
	Key  string
	Args map[string]string
}

// InvokeResponse メニュー項目実行レスポンス
type InvokeResponse struct {
	Key     string
	Message string
	Notice  string
	Data    map[string]interface{}
}
