package auth

import (
	"crypto/subtle"
	"errors"
	"net"
	"strings"

	"shop-economy/internal/infrastructure/config"
)

var (
	// ErrAdminDisabled 管理APIが無効
	ErrAdminDisabled = errors.New("admin API is disabled")
	// ErrMissingAPIKey APIキーが送られていない
	ErrMissingAPIKey = errors.New("missing API key")
	// ErrInvalidAPIKey APIキーが一致しない
	ErrInvalidAPIKey = errors.New("invalid API key")
	// ErrIPNotAllowed 接続元が許可リストにない
	ErrIPNotAllowed = errors.New("IP address not allowed")
)

// AdminCredentials 管理操作の呼び出し元が提示した情報
type AdminCredentials struct {
	APIKey   string
	ClientIP string
}

// VerifyAdmin 管理APIの利用可否を判定する
// 判定順は 有効化, キーの有無, キーの一致, 接続元IP
func VerifyAdmin(cfg *config.AdminAPIConfig, cred AdminCredentials) error {
	if !cfg.Enabled {
		return ErrAdminDisabled
	}
	if cred.APIKey == "" {
		return ErrMissingAPIKey
	}
	if subtle.ConstantTimeCompare([]byte(cred.APIKey), []byte(cfg.APIKey)) != 1 {
		return ErrInvalidAPIKey
	}
	if len(cfg.AllowedIPs) > 0 && !cfg.AllowsIP(cred.ClientIP) {
		return ErrIPNotAllowed
	}
	return nil
}

// ResolveClientIP プロキシヘッダー、なければ接続元アドレスからIPを決める
// X-Forwarded-Forは先頭の値を使う
func ResolveClientIP(forwardedFor, realIP, remoteAddr string) string {
	if forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		return strings.TrimSpace(first)
	}
	if realIP != "" {
		return strings.TrimSpace(realIP)
	}
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
