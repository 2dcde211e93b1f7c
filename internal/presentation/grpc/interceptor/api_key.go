package interceptor

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	authapp "shop-economy/internal/application/auth"
	"shop-economy/internal/infrastructure/config"
	otelinfra "shop-economy/internal/infrastructure/observability/otel"
)

// APIKeyInterceptor AdminServiceの認証
// 無効化と許可リスト外はPermissionDenied、キーの問題はUnauthenticated
func APIKeyInterceptor(cfg *config.AdminAPIConfig, logger *otelinfra.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		cred := authapp.AdminCredentials{
			APIKey:   first(md, "x-api-key"),
			ClientIP: authapp.ResolveClientIP(first(md, "x-forwarded-for"), first(md, "x-real-ip"), peerAddr(ctx)),
		}

		err := authapp.VerifyAdmin(cfg, cred)
		if err == nil {
			return handler(ctx, req)
		}

		logger.Warn(ctx, "Admin call rejected", map[string]interface{}{
			"reason": err.Error(),
			"ip":     cred.ClientIP,
			"method": info.FullMethod,
		})
		code := codes.Unauthenticated
		if errors.Is(err, authapp.ErrAdminDisabled) || errors.Is(err, authapp.ErrIPNotAllowed) {
			code = codes.PermissionDenied
		}
		return nil, status.Error(code, err.Error())
	}
}

// first メタデータの先頭値。なければ空文字
func first(md metadata.MD, key string) string {
	if values := md.Get(key); len(values) > 0 {
		return values[0]
	}
	return ""
}

func peerAddr(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return ""
}
