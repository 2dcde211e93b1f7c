package handler

import (
	"context"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	checkoutapp "shop-economy/internal/application/checkout"
	pricingapp "shop-economy/internal/application/pricing"
	"shop-economy/internal/presentation/grpc/interceptor"
	"shop-economy/internal/presentation/grpc/pb"
)

var _ pb.PlayerServiceServer = (*PlayerHandler)(nil)

// PlayerHandler プレイヤー向けgRPCハンドラー
// プレイヤーIDはトークンから取り出す
type PlayerHandler struct {
	pricingService  *pricingapp.PricingApplicationService
	checkoutService *checkoutapp.CheckoutApplicationService
	clock           Clock
}

// NewPlayerHandler 新しいPlayerHandlerを作成
func NewPlayerHandler(pricingService *pricingapp.PricingApplicationService, checkoutService *checkoutapp.CheckoutApplicationService) *PlayerHandler {
	return &PlayerHandler{
		pricingService:  pricingService,
		checkoutService: checkoutService,
		clock:           time.Now,
	}
}

// GetEffectivePrice 実効価格取得
func (h *PlayerHandler) GetEffectivePrice(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req priceRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if err := required("item_id", req.ItemID); err != nil {
		return nil, err
	}
	now, err := resolveTime(req.At, h.clock)
	if err != nil {
		return nil, err
	}

	resp, err := h.pricingService.GetEffectivePrice(ctx, &pricingapp.GetPriceRequest{
		ShopID:          req.ShopID,
		ItemID:          req.ItemID,
		Category:        req.Category,
		TransactionType: sideOrBuy(req.TransactionType),
		Now:             now,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(map[string]interface{}{
		"quote":  toQuoteMessage(resp.Quote),
		"cached": resp.Cached,
	})
}

// GetPriceList 価格一覧取得
func (h *PlayerHandler) GetPriceList(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req priceRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	now, err := resolveTime(req.At, h.clock)
	if err != nil {
		return nil, err
	}

	resp, err := h.pricingService.GetPriceList(ctx, &pricingapp.PriceListRequest{
		ShopID:          req.ShopID,
		TransactionType: sideOrBuy(req.TransactionType),
		Now:             now,
	})
	if err != nil {
		return nil, toStatus(err)
	}

	entries := make([]priceListEntry, 0, len(resp.Entries))
	for _, e := range resp.Entries {
		entries = append(entries, priceListEntry{
			ItemID:   e.ItemID,
			Category: e.Category,
			Tradable: e.Tradable,
			Quote:    toQuoteMessage(e.Quote),
		})
	}
	return encode(map[string]interface{}{
		"shop_id": resp.ShopID,
		"entries": entries,
	})
}

// Purchase 購入
func (h *PlayerHandler) Purchase(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := h.tradeRequest(ctx, in)
	if err != nil {
		return nil, err
	}
	resp, err := h.checkoutService.Purchase(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(toTradeResponse(resp))
}

// Sell 売却
func (h *PlayerHandler) Sell(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := h.tradeRequest(ctx, in)
	if err != nil {
		return nil, err
	}
	resp, err := h.checkoutService.Sell(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(toTradeResponse(resp))
}

// GetFunds 自分の所持金取得
func (h *PlayerHandler) GetFunds(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	playerID, ok := interceptor.PlayerIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "player_id not found in token")
	}
	resp, err := h.checkoutService.GetFunds(ctx, playerID)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(fundsMessage{PlayerID: resp.PlayerID, Balance: resp.Balance})
}

func (h *PlayerHandler) tradeRequest(ctx context.Context, in *structpb.Struct) (*checkoutapp.TradeRequest, error) {
	playerID, ok := interceptor.PlayerIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "player_id not found in token")
	}

	var req tradeRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if err := required("item_id", req.ItemID); err != nil {
		return nil, err
	}
	now, err := resolveTime(req.At, h.clock)
	if err != nil {
		return nil, err
	}

	return &checkoutapp.TradeRequest{
		ShopID:   req.ShopID,
		PlayerID: playerID,
		ItemID:   req.ItemID,
		Category: req.Category,
		Quantity: req.Quantity,
		Now:      now,
	}, nil
}

func toTradeResponse(resp *checkoutapp.TradeResponse) tradeResponse {
	applied := resp.AppliedIDs
	if applied == nil {
		applied = []string{}
	}
	return tradeResponse{
		EventID:         resp.EventID,
		ShopID:          resp.ShopID,
		PlayerID:        resp.PlayerID,
		ItemID:          resp.ItemID,
		TransactionType: resp.TransactionType,
		Quantity:        resp.Quantity,
		UnitPrice:       resp.UnitPrice,
		Total:           resp.Total,
		PlayerBalance:   resp.PlayerBalance,
		ShopBalance:     resp.ShopBalance,
		Applied:         applied,
	}
}
