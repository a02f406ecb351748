// Package handler はHTTPハンドラを提供する。
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"data-anonymization-service/internal/domain"
	"data-anonymization-service/internal/middleware"
	"data-anonymization-service/internal/usecase"
	"data-anonymization-service/pkg/httputil"
)

// AnonymizationRequest は匿名化リクエストの形式。
type AnonymizationRequest struct {
	SessionID          string                     `json:"session_id"`
	Payload            interface{}                `json:"payload"`
	AnonymizationRules []domain.AnonymizationRule `json:"anonymization_rules"`
}

// AnonymizationResponse は匿名化レスポンスの形式。
// MappingsToStoreは呼び出し元が保持し、復元時にそのまま渡す。
type AnonymizationResponse struct {
	SessionID         string              `json:"session_id"`
	AnonymizedPayload interface{}         `json:"anonymized_payload"`
	MappingsToStore   domain.MappingTable `json:"mappings_to_store"`
	Warnings          []string            `json:"warnings,omitempty"`
}

// AnonymizationHandler は匿名化エンドポイントのハンドラ。
type AnonymizationHandler struct {
	opts usecase.AnonymizerOptions
}

// NewAnonymizationHandler は新しいAnonymizationHandlerを生成する。
func NewAnonymizationHandler(opts usecase.AnonymizerOptions) *AnonymizationHandler {
	return &AnonymizationHandler{opts: opts}
}

// Handle は匿名化リクエストを処理する。
func (h *AnonymizationHandler) Handle(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	var req AnonymizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteAuditLog(ctx, "anonymize", "FAILED", time.Since(start))
		httputil.Error(w, http.StatusBadRequest, "MALFORMED_PAYLOAD", "invalid request format")
		return
	}

	if req.SessionID == "" {
		middleware.WriteAuditLog(ctx, "anonymize", "FAILED", time.Since(start))
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "session_id is required")
		return
	}
	if req.Payload == nil {
		middleware.WriteAuditLog(ctx, "anonymize", "FAILED", time.Since(start))
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "payload is required")
		return
	}
	if len(req.AnonymizationRules) == 0 {
		middleware.WriteAuditLog(ctx, "anonymize", "FAILED", time.Since(start))
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "anonymization_rules is required")
		return
	}

	// 対応表は1回の呼び出しに閉じるため、呼び出しごとにエンジンを生成する
	anonymizer := usecase.NewAnonymizer(req.AnonymizationRules, h.opts)
	anonymized, err := anonymizer.Anonymize(req.Payload)
	if err != nil {
		middleware.WriteAuditLog(ctx, "anonymize", "FAILED", time.Since(start))
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	middleware.WriteAuditLog(ctx, "anonymize", "SUCCESS", time.Since(start))
	httputil.JSON(w, http.StatusOK, AnonymizationResponse{
		SessionID:         req.SessionID,
		AnonymizedPayload: anonymized,
		MappingsToStore:   anonymizer.Mappings(),
		Warnings:          anonymizer.Warnings(),
	})
}
