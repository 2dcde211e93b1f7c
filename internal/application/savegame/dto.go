package savegame

import (
	"time"

	"shop-economy/internal/domain/audit"
	"shop-economy/internal/domain/currency"
	"shop-economy/internal/domain/modifier"
	domainsave "shop-economy/internal/domain/savegame"
)

// FormatVersion 保存データの形式バージョン
// 2からショップ単位のレコードを不透明なバイト列（base64）で保持する
const FormatVersion = 2

// envelope 保存データ全体
// Shopsの値はショップ単位にエンコードしたshopRecordで、復号はショップごとに行う
type envelope struct {
	Version  int                     `json:"version"`
	SavedAt  time.Time               `json:"saved_at"`
	Shops    map[string][]byte       `json:"shops"`
	Wallets  []currency.AccountState `json:"wallets"`
	Archived []audit.Entry           `json:"archived_audit,omitempty"`
}

// shopRecord ショップ1件分の保存データ
type shopRecord struct {
	ID        string                  `json:"id"`
	Shared    bool                    `json:"shared"`
	Modifiers []modifier.State        `json:"modifiers"`
	Takings   []currency.AccountState `json:"takings"`
	Audit     []audit.Entry           `json:"audit,omitempty"`
}

// LoadResult LoadAllの結果
type LoadResult struct {
	Version     int
	SavedAt     time.Time
	Loaded      []string
	ShopErrors  []*domainsave.CorruptShopStateError
	WalletCount int
}

// Failed 読み込めなかったショップIDを返す
func (r *LoadResult) Failed() []string {
	ids := make([]string, 0, len(r.ShopErrors))
	for _, e := range r.ShopErrors {
		ids = append(ids, e.ShopID)
	}
	return ids
}

// SaveResponse スロット保存のレスポンス
type SaveResponse struct {
	Slot    string
	Size    int
	Shops   int
	SavedAt time.Time
}

// LoadResponse スロット読み込みのレスポンス
type LoadResponse struct {
	Slot   string
	Result *LoadResult
}

// ListResponse スロット一覧のレスポンス
type ListResponse struct {
	Slots []domainsave.SlotInfo
}
