package handler

import (
	"context"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	authapp "shop-economy/internal/application/auth"
	checkoutapp "shop-economy/internal/application/checkout"
	"shop-economy/internal/application/devtools"
	"shop-economy/internal/application/economy"
	"shop-economy/internal/application/history"
	shopapp "shop-economy/internal/application/shop"
	"shop-economy/internal/application/specials"
	"shop-economy/internal/presentation/grpc/pb"
)

var _ pb.AdminServiceServer = (*AdminHandler)(nil)

// AdminHandler ホスト向けgRPCハンドラー
// ショップ管理・スペシャル編集・セーブ・開発者メニューを扱う
type AdminHandler struct {
	engine      *economy.Engine
	authService *authapp.AuthApplicationService
	clock       Clock
}

// NewAdminHandler 新しいAdminHandlerを作成
func NewAdminHandler(engine *economy.Engine, authService *authapp.AuthApplicationService) *AdminHandler {
	return &AdminHandler{
		engine:      engine,
		authService: authService,
		clock:       time.Now,
	}
}

// IssueToken プレイヤー用トークン発行
func (h *AdminHandler) IssueToken(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req struct {
		PlayerID string `json:"player_id"`
	}
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	resp, err := h.authService.IssueToken(ctx, &authapp.IssueTokenRequest{PlayerID: req.PlayerID})
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(map[string]interface{}{
		"token":      resp.Token,
		"player_id":  resp.PlayerID,
		"expires_in": resp.ExpiresIn,
		"token_type": resp.TokenType,
	})
}

// GrantFunds プレイヤー所持金付与
func (h *AdminHandler) GrantFunds(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req fundsMessage
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	resp, err := h.engine.Checkout.GrantFunds(ctx, &checkoutapp.GrantFundsRequest{
		PlayerID: req.PlayerID,
		Amount:   req.Amount,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(fundsMessage{PlayerID: resp.PlayerID, Balance: resp.Balance})
}

// GetOrCreateShop ショップ取得（なければ作成）
func (h *AdminHandler) GetOrCreateShop(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req shopRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	info, err := h.engine.Shops.GetOrCreate(ctx, &shopapp.GetOrCreateRequest{ShopID: req.ShopID, Shared: req.Shared})
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(toShopMessage(info))
}

// ListShops ショップ一覧
func (h *AdminHandler) ListShops(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	resp, err := h.engine.Shops.List(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	shops := make([]shopMessage, 0, len(resp.Shops))
	for i := range resp.Shops {
		shops = append(shops, toShopMessage(&resp.Shops[i]))
	}
	return encode(map[string]interface{}{"shops": shops})
}

// DeleteShop ショップ削除
func (h *AdminHandler) DeleteShop(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req shopRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if err := h.engine.Shops.Delete(ctx, &shopapp.DeleteRequest{ShopID: req.ShopID, Requester: req.Requester}); err != nil {
		return nil, toStatus(err)
	}
	return encode(map[string]interface{}{"shop_id": req.ShopID, "deleted": true})
}

// CreateSpecial スペシャル作成
func (h *AdminHandler) CreateSpecial(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req createSpecialRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	now, err := resolveTime(req.At, h.clock)
	if err != nil {
		return nil, err
	}
	resp, err := h.engine.Specials.Create(ctx, &specials.CreateRequest{
		ShopID:       req.ShopID,
		Actor:        req.Actor,
		Draft:        req.specialDraft.toDraft(),
		Disabled:     req.Disabled,
		AllowExpired: req.AllowExpired,
		Now:          now,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(toSpecialResponse(resp))
}

// EditSpecial スペシャル編集
func (h *AdminHandler) EditSpecial(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req editSpecialRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if err := required("modifier_id", req.ModifierID); err != nil {
		return nil, err
	}
	now, err := resolveTime(req.At, h.clock)
	if err != nil {
		return nil, err
	}
	resp, err := h.engine.Specials.Edit(ctx, &specials.EditRequest{
		ShopID:       req.ShopID,
		ModifierID:   req.ModifierID,
		Actor:        req.Actor,
		Changes:      req.toChanges(),
		AllowExpired: req.AllowExpired,
		Now:          now,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(toSpecialResponse(resp))
}

// EnableSpecial スペシャル有効化
func (h *AdminHandler) EnableSpecial(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return h.toggle(ctx, in, h.engine.Specials.Enable)
}

// DisableSpecial スペシャル無効化
func (h *AdminHandler) DisableSpecial(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return h.toggle(ctx, in, h.engine.Specials.Disable)
}

func (h *AdminHandler) toggle(
	ctx context.Context,
	in *structpb.Struct,
	apply func(context.Context, *specials.ToggleRequest) (*specials.MutationResponse, error),
) (*structpb.Struct, error) {
	req, now, err := h.target(in)
	if err != nil {
		return nil, err
	}
	resp, err := apply(ctx, &specials.ToggleRequest{
		ShopID:     req.ShopID,
		ModifierID: req.ModifierID,
		Actor:      req.Actor,
		Now:        now,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(toSpecialResponse(resp))
}

// RemoveSpecial スペシャル削除
func (h *AdminHandler) RemoveSpecial(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, now, err := h.target(in)
	if err != nil {
		return nil, err
	}
	resp, err := h.engine.Specials.Remove(ctx, &specials.RemoveRequest{
		ShopID:     req.ShopID,
		ModifierID: req.ModifierID,
		Actor:      req.Actor,
		Now:        now,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(map[string]interface{}{"modifier_id": req.ModifierID, "removed": resp.Removed})
}

// ListSpecials スペシャル一覧
func (h *AdminHandler) ListSpecials(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req specialTarget
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	now, err := resolveTime(req.At, h.clock)
	if err != nil {
		return nil, err
	}
	resp, err := h.engine.Specials.List(ctx, &specials.ListRequest{
		ShopID:     req.ShopID,
		ItemID:     req.ItemID,
		Category:   req.Category,
		Side:       req.Side,
		ActiveOnly: req.ActiveOnly,
		Now:        now,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	mods := make([]modifierMessage, 0, len(resp.Modifiers))
	for _, m := range resp.Modifiers {
		mods = append(mods, toModifierMessage(m))
	}
	return encode(map[string]interface{}{"shop_id": req.ShopID, "specials": mods})
}

// PreviewSpecial 既存スペシャルを適用した場合の価格
func (h *AdminHandler) PreviewSpecial(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, now, err := h.target(in)
	if err != nil {
		return nil, err
	}
	if err := required("item_id", req.ItemID); err != nil {
		return nil, err
	}
	resp, err := h.engine.Specials.Preview(ctx, &specials.PreviewRequest{
		ShopID:          req.ShopID,
		ModifierID:      req.ModifierID,
		ItemID:          req.ItemID,
		Category:        req.Category,
		TransactionType: sideOrBuy(req.Side),
		Now:             now,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(toPreviewResponse(resp))
}

// PreviewDraft 未保存スペシャルを適用した場合の価格
func (h *AdminHandler) PreviewDraft(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req previewDraftRequest
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
	resp, err := h.engine.Specials.PreviewDraft(ctx, &specials.PreviewDraftRequest{
		ShopID:          req.ShopID,
		Draft:           req.Draft.toDraft(),
		ItemID:          req.ItemID,
		Category:        req.Category,
		TransactionType: sideOrBuy(req.Side),
		Now:             now,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(toPreviewResponse(resp))
}

// GetShopHistory ショップの取引履歴
func (h *AdminHandler) GetShopHistory(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req historyRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	resp, err := h.engine.History.GetShopHistory(ctx, &history.GetShopHistoryRequest{
		ShopID:          req.ShopID,
		Limit:           req.Limit,
		Offset:          req.Offset,
		PlayerID:        req.PlayerID,
		ItemID:          req.ItemID,
		TransactionType: req.TransactionType,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	events := make([]eventMessage, 0, len(resp.Events))
	for _, ev := range resp.Events {
		events = append(events, toEventMessage(ev))
	}
	return encode(map[string]interface{}{
		"shop_id": req.ShopID,
		"events":  events,
		"total":   resp.Total,
		"limit":   resp.Limit,
		"offset":  resp.Offset,
	})
}

// SaveGame スロットへ保存
func (h *AdminHandler) SaveGame(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req slotRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	resp, err := h.engine.Saves.Save(ctx, req.Slot)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(slotMessage{Slot: resp.Slot, Size: resp.Size, Shops: resp.Shops, SavedAt: resp.SavedAt})
}

// LoadGame スロットから復元
// 壊れたショップは読み飛ばし、failedに載せる
func (h *AdminHandler) LoadGame(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req slotRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	resp, err := h.engine.Saves.Load(ctx, req.Slot)
	if err != nil {
		return nil, toStatus(err)
	}

	out := loadResponse{
		Slot:        resp.Slot,
		Version:     resp.Result.Version,
		SavedAt:     resp.Result.SavedAt,
		Loaded:      resp.Result.Loaded,
		Failed:      make([]shopLoadError, 0, len(resp.Result.ShopErrors)),
		WalletCount: resp.Result.WalletCount,
	}
	if out.Loaded == nil {
		out.Loaded = []string{}
	}
	for _, e := range resp.Result.ShopErrors {
		out.Failed = append(out.Failed, shopLoadError{ShopID: e.ShopID, Error: e.Error()})
	}
	return encode(out)
}

// ListSaves スロット一覧
func (h *AdminHandler) ListSaves(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	resp, err := h.engine.Saves.List(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	slots := make([]slotMessage, 0, len(resp.Slots))
	for _, s := range resp.Slots {
		slots = append(slots, slotMessage{Slot: s.Name, Size: s.Size, SavedAt: s.SavedAt})
	}
	return encode(map[string]interface{}{"slots": slots})
}

// DeleteSave スロット削除
func (h *AdminHandler) DeleteSave(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req slotRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if err := h.engine.Saves.Delete(ctx, req.Slot); err != nil {
		return nil, toStatus(err)
	}
	return encode(map[string]interface{}{"slot": req.Slot, "deleted": true})
}

// GetDevMenu 開発者メニュー
func (h *AdminHandler) GetDevMenu(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	resp, err := h.engine.DevTools.Menu(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	options := make([]menuOption, 0, len(resp.Options))
	for _, o := range resp.Options {
		options = append(options, menuOption{Key: o.Key, Label: o.Label, Description: o.Description})
	}
	return encode(map[string]interface{}{"title": resp.Title, "options": options})
}

// InvokeDevMenu 開発者メニューの項目を実行
func (h *AdminHandler) InvokeDevMenu(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req invokeRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if err := required("key", req.Key); err != nil {
		return nil, err
	}
	resp, err := h.engine.DevTools.Invoke(ctx, &devtools.InvokeRequest{Key: req.Key, Args: req.Args})
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(invokeResponse{Key: resp.Key, Message: resp.Message, Notice: resp.Notice, Data: resp.Data})
}

func (h *AdminHandler) target(in *structpb.Struct) (*specialTarget, time.Time, error) {
	var req specialTarget
	if err := decode(in, &req); err != nil {
		return nil, time.Time{}, err
	}
	if err := required("modifier_id", req.ModifierID); err != nil {
		return nil, time.Time{}, err
	}
	now, err := resolveTime(req.At, h.clock)
	if err != nil {
		return nil, time.Time{}, err
	}
	return &req, now, nil
}

func toShopMessage(info *shopapp.ShopInfo) shopMessage {
	return shopMessage{
		ShopID:       info.ShopID,
		Shared:       info.Shared,
		Created:      info.Created,
		Balance:      info.Balance,
		Modifiers:    info.Modifiers,
		ActiveLeases: info.ActiveLeases,
	}
}
