package devtools

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"shop-economy/internal/domain/devmenu"
	otelinfra "shop-economy/internal/infrastructure/observability/otel"
)

// DevToolsApplicationService 開発者メニューアプリケーションサービス
type DevToolsApplicationService struct {
	host      devmenu.Builder
	extension *devmenu.ExtensionPoint
	services  *devmenu.ServiceRegistry
	logger    *otelinfra.Logger
	tracer    trace.Tracer
}

// NewDevToolsApplicationService 新しいDevToolsApplicationServiceを作成
// スペシャル作成ツールの項目は拡張ポイントに登録される。起動可否はservicesの登録で決まる
func NewDevToolsApplicationService(
	host devmenu.Builder,
	extension *devmenu.ExtensionPoint,
	services *devmenu.ServiceRegistry,
	logger *otelinfra.Logger,
) (*DevToolsApplicationService, error) {
	if err := extension.Register(devmenu.SpecialsCreatorContribution(services)); err != nil {
		return nil, fmt.Errorf("failed to register specials creator: %w", err)
	}
	return &DevToolsApplicationService{
		host:      host,
		extension: extension,
		services:  services,
		logger:    logger,
		tracer:    otel.Tracer("devtools-service"),
	}, nil
}

// Menu 拡張項目を差し込んだメニューを取得
func (s *DevToolsApplicationService) Menu(ctx context.Context) (*MenuResponse, error) {
	ctx, span := s.tracer.Start(ctx, "DevToolsApplicationService.Menu")
	defer span.End()

	menu, err := s.extension.Build(s.host)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to build developer menu", err, nil)
		return nil, fmt.Errorf("failed to build developer menu: %w", err)
	}

	resp := &MenuResponse{Title: menu.Title()}
	for _, o := range menu.Options() {
		resp.Options = append(resp.Options, MenuOption{
			Key:         o.Key,
			Label:       o.Label,
			Description: o.Description,
		})
	}
	span.SetAttributes(attribute.Int("options", len(resp.Options)))
	return resp, nil
}

// Invoke メニュー項目を実行
func (s *DevToolsApplicationService) Invoke(ctx context.Context, req *InvokeRequest) (*InvokeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "DevToolsApplicationService.Invoke")
	defer span.End()

	span.SetAttributes(attribute.String("menu_key", req.Key))

	menu, err := s.extension.Build(s.host)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to build developer menu", err, nil)
		return nil, fmt.Errorf("failed to build developer menu: %w", err)
	}

	res, err := menu.Exec(ctx, req.Key, req.Args)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		if errors.Is(err, devmenu.ErrOptionNotFound) {
			s.logger.Warn(ctx, "Unknown developer menu option", map[string]interface{}{
				"menu_key": req.Key,
			})
			return nil, err
		}
		s.logger.Warn(ctx, "Developer menu option failed", map[string]interface{}{
			"menu_key": req.Key,
			"error":    err.Error(),
		})
		return nil, err
	}

	if res.Notice != "" {
		s.logger.Info(ctx, "Developer menu notice", map[string]interface{}{
			"menu_key": req.Key,
			"notice":   res.Notice,
		})
	}
	return &InvokeResponse{
		Key:     req.Key,
		Message: res.Message,
		Notice:  res.Notice,
		Data:    res.Data,
	}, nil
}

// SpecialsEditorLoaded スペシャル編集ツールが登録されているか
func (s *DevToolsApplicationService) SpecialsEditorLoaded() bool {
	return s.services.Has(devmenu.SpecialsEditorName)
}
