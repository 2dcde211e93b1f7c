package currency

import (
	"regexp"
)

const (
	// MaxAmount 最大金額 (10兆)
	MaxAmount = 10_000_000_000_000
	// MinBalance 最小残高 (-10兆: ショップ売上の一時的なマイナス許容のため)
	MinBalance = -10_000_000_000_000
)

var ownerIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-\.\@:]{1,255}$`)

// Account 通貨口座エンティティ
type Account struct {
	ownerID string
	kind    AccountKind
	balance int64 // 整数値（小数点なし）、ショップ売上はマイナス値を許可
	version int
}

// NewAccount 新しいAccountエンティティを作成
func NewAccount(ownerID string, kind AccountKind, balance int64, version int) (*Account, error) {
	if !ownerIDRegex.MatchString(ownerID) {
		return nil, ErrInvalidOwnerID
	}
	if !kind.Valid() {
		return nil, ErrInvalidOwnerID
	}
	if balance < MinBalance || balance > MaxAmount {
		return nil, ErrBalanceOutOfRange
	}
	return &Account{
		ownerID: ownerID,
		kind:    kind,
		balance: balance,
		version: version,
	}, nil
}

// OwnerID 所有者IDを返す
func (a *Account) OwnerID() string {
	return a.ownerID
}

// Kind 口座種別を返す
func (a *Account) Kind() AccountKind {
	return a.kind
}

// Balance 残高を返す
func (a *Account) Balance() int64 {
	return a.balance
}

// Version 更新回数を返す
func (a *Account) Version() int {
	return a.version
}

// Grant 通貨を付与する
func (a *Account) Grant(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if amount > MaxAmount {
		return ErrAmountTooLarge
	}
	// オーバーフローチェック
	if a.balance > MaxAmount-amount {
		return ErrBalanceOutOfRange
	}
	a.balance += amount
	a.version++
	return nil
}

// Consume 通貨を消費する（マイナス残高を許可しないバージョン）
func (a *Account) Consume(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if amount > MaxAmount {
		return ErrAmountTooLarge
	}
	if a.balance < amount {
		return ErrInsufficientBalance
	}
	a.balance -= amount
	a.version++
	return nil
}

// ConsumeAllowNegative 通貨を消費する（マイナス残高を許可するバージョン）
// ショップが売上を超える買い取りを行う場合に使用
func (a *Account) ConsumeAllowNegative(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if amount > MaxAmount {
		return ErrAmountTooLarge
	}
	// アンダーフローチェック (MinBalanceを下回らないか)
	if a.balance < MinBalance+amount {
		return ErrBalanceOutOfRange
	}
	a.balance -= amount
	a.version++
	return nil
}

// MustNewAccount テスト用ヘルパー: NewAccountを呼び出し、エラーが発生した場合はpanicする
func MustNewAccount(ownerID string, kind AccountKind, balance int64, version int) *Account {
	a, err := NewAccount(ownerID, kind, balance, version)
	if err != nil {
		panic(err)
	}
	return a
}
