package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"shop-economy/internal/infrastructure/config"
	otelinfra "shop-economy/internal/infrastructure/observability/otel"
)

// ClaimPlayerID トークン内のプレイヤーIDのクレーム名
const ClaimPlayerID = "player_id"

var (
	// ErrInvalidPlayerID プレイヤーIDの形式が不正
	ErrInvalidPlayerID = errors.New("invalid player id")
	// ErrInvalidToken トークンが検証できない
	ErrInvalidToken = errors.New("invalid token")
)

var playerIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-\.:]{1,128}$`)

// AuthApplicationService プレイヤー向けトークンを発行する
// ホスト（ゲームサーバー）が管理APIから呼び出し、得たトークンをクライアントに渡す
type AuthApplicationService struct {
	jwtConfig *config.JWTConfig
	logger    *otelinfra.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewAuthApplicationService 新しいAuthApplicationServiceを作成
func NewAuthApplicationService(jwtConfig *config.JWTConfig, logger *otelinfra.Logger) *AuthApplicationService {
	return &AuthApplicationService{
		jwtConfig: jwtConfig,
		logger:    logger,
		tracer:    otel.Tracer("auth-service"),
		now:       time.Now,
	}
}

// IssueToken プレイヤートークンを発行
func (s *AuthApplicationService) IssueToken(ctx context.Context, req *IssueTokenRequest) (*IssueTokenResponse, error) {
	ctx, span := s.tracer.Start(ctx, "AuthApplicationService.IssueToken")
	defer span.End()

	span.SetAttributes(attribute.String("player_id", req.PlayerID))

	if !playerIDRegex.MatchString(req.PlayerID) {
		err := fmt.Errorf("%w: %q", ErrInvalidPlayerID, req.PlayerID)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn(ctx, "Invalid player id", map[string]interface{}{
			"player_id": req.PlayerID,
		})
		return nil, err
	}

	now := s.now()
	expiresAt := now.Add(s.jwtConfig.Expiration)

	claims := jwt.MapClaims{
		ClaimPlayerID: req.PlayerID,
		"sub":       req.PlayerID,
		"iss":       s.jwtConfig.Issuer,
		"iat":       now.Unix(),
		"exp":       expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error(ctx, "Failed to sign player token", err, map[string]interface{}{
			"player_id": req.PlayerID,
		})
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	s.logger.Info(ctx, "Player token issued", map[string]interface{}{
		"player_id":  req.PlayerID,
		"expires_at": expiresAt.Unix(),
	})

	return &IssueTokenResponse{
		Token:     tokenString,
		PlayerID:  req.PlayerID,
		ExpiresIn: int64(s.jwtConfig.Expiration.Seconds()),
		TokenType: "Bearer",
	}, nil
}

// ParsePlayerToken トークンを検証してプレイヤーIDを取り出す
// HS256以外の署名と、設定があれば発行者の異なるトークンを拒否する
func ParsePlayerToken(cfg *config.JWTConfig, tokenString string) (string, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	playerID, ok := claims[ClaimPlayerID].(string)
	if !ok || playerID == "" {
		return "", fmt.Errorf("%w: missing %s claim", ErrInvalidToken, ClaimPlayerID)
	}
	return playerID, nil
}
