package specials

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"shop-economy/internal/domain/audit"
	"shop-economy/internal/domain/item"
	"shop-economy/internal/domain/modifier"
	"shop-economy/internal/domain/service"
	"shop-economy/internal/domain/shop"
	"shop-economy/internal/domain/transaction"
	otelinfra "shop-economy/internal/infrastructure/observability/otel"
)

// Previewer 仮の修飾子を適用した価格を計算する
type Previewer interface {
	Preview(ctx context.Context, shopID string, ref item.Ref, txType transaction.TransactionType, now time.Time, candidate *modifier.Modifier) (*service.Quote, error)
}

// Notifier 価格が変わった可能性を受け取る購読者
// 計算済み価格は送らず、受け取った側が次回読み取り時に再計算する
type Notifier interface {
	InvalidateShop(ctx context.Context, shopID string, scope modifier.Scope)
}

// NotifierFunc 関数をNotifierとして使うためのアダプタ
type NotifierFunc func(ctx context.Context, shopID string, scope modifier.Scope)

// InvalidateShop fを呼び出す
func (f NotifierFunc) InvalidateShop(ctx context.Context, shopID string, scope modifier.Scope) {
	f(ctx, shopID, scope)
}

// SpecialsEditorService スペシャル（価格修飾子）の編集サービス
type SpecialsEditorService struct {
	registry  *shop.Registry
	previewer Previewer
	auditLog  *audit.Log
	logger    *otelinfra.Logger
	metrics   *otelinfra.Metrics
	tracer    trace.Tracer
	newID     func() string

	mu        sync.RWMutex
	notifiers []Notifier
}

// NewSpecialsEditorService 新しいSpecialsEditorServiceを作成
func NewSpecialsEditorService(
	registry *shop.Registry,
	previewer Previewer,
	auditLog *audit.Log,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *SpecialsEditorService {
	return &SpecialsEditorService{
		registry:  registry,
		previewer: previewer,
		auditLog:  auditLog,
		logger:    logger,
		metrics:   metrics,
		tracer:    otel.Tracer("specials-service"),
		newID:     uuid.NewString,
	}
}

// Subscribe 価格無効化の通知先を登録する
func (s *SpecialsEditorService) Subscribe(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifiers = append(s.notifiers, n)
}

// Create 修飾子を作成
func (s *SpecialsEditorService) Create(ctx context.Context, req *CreateRequest) (*MutationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "SpecialsEditorService.Create")
	defer span.End()

	span.SetAttributes(
		attribute.String("shop_id", req.ShopID),
		attribute.String("actor", req.Actor),
		attribute.String("kind", req.Draft.Kind),
	)

	s.logger.Info(ctx, "Creating special", map[string]interface{}{
		"shop_id": req.ShopID,
		"actor":   req.Actor,
		"name":    req.Draft.Name,
		"kind":    req.Draft.Kind,
		"scope":   req.Draft.ScopeKind + ":" + req.Draft.ScopeTarget,
	})

	def, err := req.Draft.toDefinition(req.Now)
	if err == nil {
		err = validateDraft(def, req.Now, req.AllowExpired)
	}
	if err != nil {
		return nil, s.fail(ctx, span, "create", req.ShopID, "", err)
	}

	m, err := modifier.NewModifier(s.newID(), def, !req.Disabled, req.Now)
	if err != nil {
		return nil, s.fail(ctx, span, "create", req.ShopID, "", err)
	}
	span.SetAttributes(attribute.String("modifier_id", m.ID()))

	var resp MutationResponse
	err = s.registry.WithShop(req.ShopID, func(inst *shop.Instance) error {
		superseded, err := inst.Store().Add(m)
		if err != nil {
			return err
		}
		stored, err := inst.Store().Get(m.ID())
		if err != nil {
			return err
		}
		after := stored.State()
		s.appendAudit(req.ShopID, m.ID(), req.Actor, audit.ActionCreate, req.Now, nil, &after)
		s.auditSuperseded(inst, req.Actor, req.Now, superseded)

		resp = MutationResponse{Modifier: after, Superseded: superseded}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, span, "create", req.ShopID, m.ID(), err)
	}

	s.succeed(ctx, "create", req.ShopID, def.Scope, &resp)
	return &resp, nil
}

// Edit 修飾子の定義を変更
func (s *SpecialsEditorService) Edit(ctx context.Context, req *EditRequest) (*MutationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "SpecialsEditorService.Edit")
	defer span.End()

	span.SetAttributes(
		attribute.String("shop_id", req.ShopID),
		attribute.String("modifier_id", req.ModifierID),
		attribute.String("actor", req.Actor),
	)

	s.logger.Info(ctx, "Editing special", map[string]interface{}{
		"shop_id":     req.ShopID,
		"modifier_id": req.ModifierID,
		"actor":       req.Actor,
	})

	var resp MutationResponse
	var scopes []modifier.Scope
	err := s.registry.WithShop(req.ShopID, func(inst *shop.Instance) error {
		current, err := inst.Store().Get(req.ModifierID)
		if err != nil {
			return err
		}
		def, err := req.Changes.apply(current.Definition(), req.Now)
		if err != nil {
			return err
		}
		// 期限切れの確認は期間を変更する編集にだけ行う
		allowExpired := req.AllowExpired || def.Window.Equal(current.Window())
		if err := validateDraft(def, req.Now, allowExpired); err != nil {
			return err
		}

		updated, superseded, err := inst.Store().Update(req.ModifierID, def)
		if err != nil {
			return err
		}
		before, after := current.State(), updated.State()
		s.appendAudit(req.ShopID, req.ModifierID, req.Actor, audit.ActionEdit, req.Now, &before, &after)
		s.auditSuperseded(inst, req.Actor, req.Now, superseded)

		scopes = []modifier.Scope{current.Scope(), updated.Scope()}
		resp = MutationResponse{Modifier: after, Superseded: superseded}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, span, "edit", req.ShopID, req.ModifierID, err)
	}

	s.succeed(ctx, "edit", req.ShopID, broadest(scopes...), &resp)
	return &resp, nil
}

// Enable 修飾子を有効化
func (s *SpecialsEditorService) Enable(ctx context.Context, req *ToggleRequest) (*MutationResponse, error) {
	return s.toggle(ctx, req, true)
}

// Disable 修飾子を無効化
func (s *SpecialsEditorService) Disable(ctx context.Context, req *ToggleRequest) (*MutationResponse, error) {
	return s.toggle(ctx, req, false)
}

func (s *SpecialsEditorService) toggle(ctx context.Context, req *ToggleRequest, enable bool) (*MutationResponse, error) {
	op, action := "disable", audit.ActionDisable
	if enable {
		op, action = "enable", audit.ActionEnable
	}

	ctx, span := s.tracer.Start(ctx, "SpecialsEditorService.Toggle")
	defer span.End()

	span.SetAttributes(
		attribute.String("shop_id", req.ShopID),
		attribute.String("modifier_id", req.ModifierID),
		attribute.String("actor", req.Actor),
		attribute.String("operation", op),
	)

	var resp MutationResponse
	var scope modifier.Scope
	err := s.registry.WithShop(req.ShopID, func(inst *shop.Instance) error {
		current, err := inst.Store().Get(req.ModifierID)
		if err != nil {
			return err
		}

		var superseded []string
		if enable {
			superseded, err = inst.Store().Enable(req.ModifierID)
		} else {
			err = inst.Store().Disable(req.ModifierID)
		}
		if err != nil {
			return err
		}

		updated, err := inst.Store().Get(req.ModifierID)
		if err != nil {
			return err
		}
		before, after := current.State(), updated.State()
		s.appendAudit(req.ShopID, req.ModifierID, req.Actor, action, req.Now, &before, &after)
		s.auditSuperseded(inst, req.Actor, req.Now, superseded)

		scope = updated.Scope()
		resp = MutationResponse{Modifier: after, Superseded: superseded}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, span, op, req.ShopID, req.ModifierID, err)
	}

	s.succeed(ctx, op, req.ShopID, scope, &resp)
	return &resp, nil
}

// Remove 修飾子を削除。存在しないIDは何もしない
func (s *SpecialsEditorService) Remove(ctx context.Context, req *RemoveRequest) (*RemoveResponse, error) {
	ctx, span := s.tracer.Start(ctx, "SpecialsEditorService.Remove")
	defer span.End()

	span.SetAttributes(
		attribute.String("shop_id", req.ShopID),
		attribute.String("modifier_id", req.ModifierID),
		attribute.String("actor", req.Actor),
	)

	var removed bool
	var scope modifier.Scope
	err := s.registry.WithShop(req.ShopID, func(inst *shop.Instance) error {
		current, err := inst.Store().Get(req.ModifierID)
		if errors.Is(err, modifier.ErrModifierNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		removed = inst.Store().Remove(req.ModifierID)
		if removed {
			before := current.State()
			s.appendAudit(req.ShopID, req.ModifierID, req.Actor, audit.ActionRemove, req.Now, &before, nil)
			scope = current.Scope()
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, span, "remove", req.ShopID, req.ModifierID, err)
	}

	span.SetAttributes(attribute.Bool("removed", removed))
	if removed {
		s.metrics.RecordSpecialsMutation(ctx, "remove")
		s.notify(ctx, req.ShopID, scope)
		s.logger.Info(ctx, "Special removed", map[string]interface{}{
			"shop_id":     req.ShopID,
			"modifier_id": req.ModifierID,
		})
	}
	return &RemoveResponse{Removed: removed}, nil
}

// Preview 既存の修飾子を有効にした場合と無効にした場合の価格を比較する。状態は変更しない
func (s *SpecialsEditorService) Preview(ctx context.Context, req *PreviewRequest) (*PreviewResponse, error) {
	ctx, span := s.tracer.Start(ctx, "SpecialsEditorService.Preview")
	defer span.End()

	span.SetAttributes(
		attribute.String("shop_id", req.ShopID),
		attribute.String("modifier_id", req.ModifierID),
		attribute.String("item_id", req.ItemID),
	)

	inst, err := s.registry.Get(req.ShopID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	current, err := inst.Store().Get(req.ModifierID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	resp, err := s.compare(ctx, req.ShopID, current.ID(), current.Definition(), current.CreatedAt(),
		item.Ref{ID: req.ItemID, Category: req.Category}, req.TransactionType, req.Now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	return resp, nil
}

// PreviewDraft 未保存の定義を適用した場合の価格を計算する。状態は変更しない
func (s *SpecialsEditorService) PreviewDraft(ctx context.Context, req *PreviewDraftRequest) (*PreviewResponse, error) {
	ctx, span := s.tracer.Start(ctx, "SpecialsEditorService.PreviewDraft")
	defer span.End()

	span.SetAttributes(
		attribute.String("shop_id", req.ShopID),
		attribute.String("item_id", req.ItemID),
	)

	def, err := req.Draft.toDefinition(req.Now)
	if err == nil {
		// プレビューは過去の期間も許可する
		err = validateDraft(def, req.Now, true)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	resp, err := s.compare(ctx, req.ShopID, "preview:"+s.newID(), def, req.Now,
		item.Ref{ID: req.ItemID, Category: req.Category}, req.TransactionType, req.Now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	return resp, nil
}

func (s *SpecialsEditorService) compare(ctx context.Context, shopID, id string, def modifier.Definition, createdAt time.Time, ref item.Ref, side string, now time.Time) (*PreviewResponse, error) {
	txType, err := transaction.NewTransactionType(side)
	if err != nil {
		return nil, err
	}

	without, err := modifier.NewModifier(id, def, false, createdAt)
	if err != nil {
		return nil, err
	}
	with, err := modifier.NewModifier(id, def, true, createdAt)
	if err != nil {
		return nil, err
	}

	baseline, err := s.previewer.Preview(ctx, shopID, ref, txType, now, without)
	if err != nil {
		return nil, err
	}
	applied, err := s.previewer.Preview(ctx, shopID, ref, txType, now, with)
	if err != nil {
		return nil, err
	}
	return &PreviewResponse{Baseline: baseline, With: applied}, nil
}

// List 修飾子一覧を取得
func (s *SpecialsEditorService) List(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	ctx, span := s.tracer.Start(ctx, "SpecialsEditorService.List")
	defer span.End()

	span.SetAttributes(
		attribute.String("shop_id", req.ShopID),
		attribute.Bool("active_only", req.ActiveOnly),
	)

	inst, err := s.registry.Get(req.ShopID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	filter := modifier.Filter{ActiveOnly: req.ActiveOnly}
	if req.ItemID != "" {
		filter.Item = &item.Ref{ID: req.ItemID, Category: req.Category}
	}
	if req.Side != "" {
		txType, err := transaction.NewTransactionType(req.Side)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, err
		}
		filter.Side = txType
	}

	mods := inst.Store().Query(filter, req.Now)
	out := make([]modifier.State, 0, len(mods))
	for i := range mods {
		out = append(out, mods[i].State())
	}

	span.SetAttributes(attribute.Int("count", len(out)))
	return &ListResponse{Modifiers: out}, nil
}

// Audit ショップの監査ログを取得
func (s *SpecialsEditorService) Audit(ctx context.Context, req *AuditRequest) (*AuditResponse, error) {
	_, span := s.tracer.Start(ctx, "SpecialsEditorService.Audit")
	defer span.End()

	span.SetAttributes(attribute.String("shop_id", req.ShopID))

	entries := s.auditLog.ForShop(req.ShopID)
	if entries == nil {
		entries = []audit.Entry{}
	}
	return &AuditResponse{Entries: entries}, nil
}

func (s *SpecialsEditorService) appendAudit(shopID, modifierID, actor string, action audit.Action, at time.Time, before, after *modifier.State) {
	s.auditLog.Append(audit.Entry{
		ID:         s.newID(),
		ShopID:     shopID,
		ModifierID: modifierID,
		Actor:      actor,
		Action:     action,
		At:         at,
		Before:     before,
		After:      after,
	})
}

func (s *SpecialsEditorService) auditSuperseded(inst *shop.Instance, actor string, at time.Time, ids []string) {
	for _, id := range ids {
		m, err := inst.Store().Get(id)
		if err != nil {
			continue
		}
		after := m.State()
		before := after
		before.Enabled = true
		s.appendAudit(inst.ID(), id, actor, audit.ActionSupersede, at, &before, &after)
	}
}

func (s *SpecialsEditorService) notify(ctx context.Context, shopID string, scope modifier.Scope) {
	s.mu.RLock()
	notifiers := make([]Notifier, len(s.notifiers))
	copy(notifiers, s.notifiers)
	s.mu.RUnlock()

	for _, n := range notifiers {
		n.InvalidateShop(ctx, shopID, scope)
	}
}

func (s *SpecialsEditorService) succeed(ctx context.Context, op, shopID string, scope modifier.Scope, resp *MutationResponse) {
	s.metrics.RecordSpecialsMutation(ctx, op)
	s.notify(ctx, shopID, scope)
	s.logger.Info(ctx, "Special "+op+" succeeded", map[string]interface{}{
		"shop_id":     shopID,
		"modifier_id": resp.Modifier.ID,
		"enabled":     resp.Modifier.Enabled,
		"superseded":  resp.Superseded,
	})
}

// fail エラーをspanとログに記録して返す
// 定義の検証エラーは編集者が修正するものなのでWARNで記録する
func (s *SpecialsEditorService) fail(ctx context.Context, span trace.Span, op, shopID, modifierID string, err error) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())

	fields := map[string]interface{}{
		"shop_id":     shopID,
		"modifier_id": modifierID,
		"operation":   op,
	}
	if isValidationError(err) || errors.Is(err, shop.ErrUnknownShop) || errors.Is(err, modifier.ErrModifierNotFound) {
		fields["error"] = err.Error()
		s.logger.Warn(ctx, "Special "+op+" rejected", fields)
		return err
	}
	s.logger.Error(ctx, "Special "+op+" failed", err, fields)
	return fmt.Errorf("failed to %s special: %w", op, err)
}

func isValidationError(err error) bool {
	return errors.Is(err, modifier.ErrInvalidModifier) ||
		errors.Is(err, modifier.ErrNoopModifier) ||
		errors.Is(err, modifier.ErrAlreadyExpired)
}

// broadest 最も広いScopeを返す
func broadest(scopes ...modifier.Scope) modifier.Scope {
	var out modifier.Scope
	for i, sc := range scopes {
		if i == 0 || sc.Specificity() < out.Specificity() {
			out = sc
		}
	}
	return out
}
