package service

import (
	"context"
	"fmt"

	"shop-economy/internal/domain/currency"
	"shop-economy/internal/domain/shop"
	"shop-economy/internal/domain/transaction"
)

// SettlementService 取引イベントを通貨台帳に反映するドメインサービス
// transaction.Subscriber として Publisher に登録される
type SettlementService struct {
	shops   ShopFinder
	wallets *currency.Ledger
}

// NewSettlementService 新しいSettlementServiceを作成
func NewSettlementService(shops ShopFinder, wallets *currency.Ledger) *SettlementService {
	return &SettlementService{
		shops:   shops,
		wallets: wallets,
	}
}

// HasSufficientBalance プレイヤーの所持金が指定金額以上あるかチェック
func (s *SettlementService) HasSufficientBalance(ctx context.Context, playerID string, amount int64) bool {
	return s.wallets.Balance(playerID) >= amount
}

// Handle 取引イベントを台帳に反映する
// 購入: プレイヤー所持金を消費しショップ売上に付与
// 売却: ショップ売上から消費（マイナス許容）しプレイヤー所持金に付与
func (s *SettlementService) Handle(ctx context.Context, ev *transaction.Event) error {
	amount := ev.Total()
	if amount == 0 {
		return nil
	}

	inst, err := s.shops.Get(ev.ShopID())
	if err != nil {
		return err
	}

	switch ev.TransactionType() {
	case transaction.TransactionTypeBuy:
		return s.settleBuy(inst, ev.PlayerID(), amount)
	case transaction.TransactionTypeSell:
		return s.settleSell(inst, ev.PlayerID(), amount)
	default:
		return fmt.Errorf("invalid transaction type: %s", ev.TransactionType())
	}
}

func (s *SettlementService) settleBuy(inst *shop.Instance, playerID string, amount int64) error {
	if err := s.wallets.Consume(playerID, amount); err != nil {
		return fmt.Errorf("failed to consume player funds: %w", err)
	}
	if err := inst.Takings().Grant(inst.ID(), amount); err != nil {
		// 所持金を戻す
		if rbErr := s.wallets.Grant(playerID, amount); rbErr != nil {
			return fmt.Errorf("failed to grant shop takings: %w (refund failed: %v)", err, rbErr)
		}
		return fmt.Errorf("failed to grant shop takings: %w", err)
	}
	return nil
}

func (s *SettlementService) settleSell(inst *shop.Instance, playerID string, amount int64) error {
	if err := inst.Takings().ConsumeAllowNegative(inst.ID(), amount); err != nil {
		return fmt.Errorf("failed to consume shop takings: %w", err)
	}
	if err := s.wallets.Grant(playerID, amount); err != nil {
		if rbErr := inst.Takings().Grant(inst.ID(), amount); rbErr != nil {
			return fmt.Errorf("failed to grant player funds: %w (refund failed: %v)", err, rbErr)
		}
		return fmt.Errorf("failed to grant player funds: %w", err)
	}
	return nil
}
