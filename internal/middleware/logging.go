package middleware

import (
	"context"
	"log/slog"
	"time"
)

// WriteAuditLog はリクエスト処理の監査ログを出力する。
func WriteAuditLog(ctx context.Context, operation string, result string, latency time.Duration) {
	slog.InfoContext(ctx, "request completed",
		"operation", operation,
		"system_id", AuthSystemID(ctx),
		"user_id", AuthUserID(ctx),
		"result", result,
		"latency_ms", latency.Milliseconds(),
		"timestamp", time.Now().UTC().Format(time.RFC3339),
	)
}
