// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"data-anonymization-service/internal/domain"
	"data-anonymization-service/internal/usecase"
	"data-anonymization-service/pkg/httputil"
	"data-anonymization-service/pkg/signature"
)

type contextKey string

const (
	// SystemIDKey は認証済みsystem_idのコンテキストキー。
	SystemIDKey contextKey = "system_id"
	// UserIDKey は認証済みuser_idのコンテキストキー。
	UserIDKey contextKey = "user_id"
)

// HMACAuth はHMAC-SHA256署名によるリクエスト認証ミドルウェア。
// サーバー側に状態を持たず、タイムスタンプ許容幅でリプレイ攻撃の窓を制限する。
type HMACAuth struct {
	resolver usecase.CredentialResolver
	maxSkew  time.Duration
	now      func() time.Time
}

// NewHMACAuth は新しいHMACAuthを生成する。
func NewHMACAuth(resolver usecase.CredentialResolver, maxSkew time.Duration) *HMACAuth {
	return &HMACAuth{
		resolver: resolver,
		maxSkew:  maxSkew,
		now:      time.Now,
	}
}

// WithClock は現在時刻の取得関数を差し替える（テスト用）。
func (m *HMACAuth) WithClock(now func() time.Time) *HMACAuth {
	m.now = now
	return m
}

// Middleware は認証を行うハンドラを返す。
// どの検査で失敗したかをクライアントに区別させないため、認証失敗の
// レスポンスは常に同一とし、失敗種別は内部ログにのみ残す。
func (m *HMACAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		fields, err := signature.DecodeHeader(r.Header.Get("Authorization"))
		if err != nil {
			m.reject(ctx, w, "", "", err)
			return
		}

		credential, err := m.resolver.Resolve(ctx, fields.SystemID)
		if err != nil {
			m.reject(ctx, w, fields.SystemID, fields.UserID, err)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "failed to read request body")
			return
		}
		// 後続ハンドラが再度読めるようにボディを戻す
		r.Body = io.NopCloser(bytes.NewReader(body))

		if err := signature.Verify(fields, body, credential.SharedSecret, m.maxSkew, m.now()); err != nil {
			m.reject(ctx, w, fields.SystemID, fields.UserID, err)
			return
		}

		ctx = context.WithValue(ctx, SystemIDKey, fields.SystemID)
		ctx = context.WithValue(ctx, UserIDKey, fields.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// reject は認証失敗を記録し、均一な401レスポンスを返す。
func (m *HMACAuth) reject(ctx context.Context, w http.ResponseWriter, systemID, userID string, err error) {
	slog.WarnContext(ctx, "authentication failed",
		"operation", "hmac_auth",
		"system_id", systemID,
		"user_id", userID,
		"kind", authFailureKind(err),
	)
	httputil.Error(w, http.StatusUnauthorized, "AUTH_FAILED", "authentication failed")
}

// authFailureKind は内部ログ用の失敗種別を返す。
func authFailureKind(err error) string {
	switch {
	case errors.Is(err, signature.ErrMalformedHeader):
		return "malformed_header"
	case errors.Is(err, domain.ErrUnknownSystem):
		return "unknown_system"
	case errors.Is(err, signature.ErrExpiredTimestamp):
		return "expired_timestamp"
	case errors.Is(err, signature.ErrInvalidSignature):
		return "invalid_signature"
	default:
		return "internal"
	}
}

// AuthSystemID はコンテキストから認証済みsystem_idを取り出す。
func AuthSystemID(ctx context.Context) string {
	if v, ok := ctx.Value(SystemIDKey).(string); ok {
		return v
	}
	return ""
}

// AuthUserID はコンテキストから認証済みuser_idを取り出す。
func AuthUserID(ctx context.Context) string {
	if v, ok := ctx.Value(UserIDKey).(string); ok {
		return v
	}
	return ""
}
