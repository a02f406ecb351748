package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"data-anonymization-service/internal/middleware"
	"data-anonymization-service/pkg/httputil"
)

// NewRouter はルーターを生成する。
// /v1 配下のエンドポイントはHMAC認証を必須とする。
func NewRouter(anonymization *AnonymizationHandler, decryption *DecryptionHandler, auth *middleware.HMACAuth) http.Handler {
	r := chi.NewRouter()

	// ミドルウェア
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	// ヘルスチェック（認証不要）
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	// ルート定義
	r.Route("/v1", func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Post("/anonymize", anonymization.Handle)
		r.Post("/decrypt", decryption.Handle)
	})

	return r
}
