package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"data-anonymization-service/internal/domain"
	"data-anonymization-service/internal/middleware"
	"data-anonymization-service/internal/usecase"
	"data-anonymization-service/pkg/httputil"
)

// DecryptionRequest は復元リクエストの形式。
// DataWithAnonymizedCodesは自由テキストまたは構造化JSONを受け付ける。
type DecryptionRequest struct {
	DataWithAnonymizedCodes interface{}         `json:"data_with_anonymized_codes"`
	Mappings                domain.MappingTable `json:"mappings"`
}

// DecryptionResponse は復元レスポンスの形式。
type DecryptionResponse struct {
	DecryptedData interface{} `json:"decrypted_data"`
}

// DecryptionHandler は復元エンドポイントのハンドラ。
type DecryptionHandler struct{}

// NewDecryptionHandler は新しいDecryptionHandlerを生成する。
func NewDecryptionHandler() *DecryptionHandler {
	return &DecryptionHandler{}
}

// Handle は復元リクエストを処理する。
func (h *DecryptionHandler) Handle(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	var req DecryptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteAuditLog(ctx, "decrypt", "FAILED", time.Since(start))
		httputil.Error(w, http.StatusBadRequest, "MALFORMED_PAYLOAD", "invalid request format")
		return
	}

	if req.DataWithAnonymizedCodes == nil {
		middleware.WriteAuditLog(ctx, "decrypt", "FAILED", time.Since(start))
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "data_with_anonymized_codes is required")
		return
	}

	decryptor, err := usecase.NewDecryptor(req.Mappings)
	if err != nil {
		middleware.WriteAuditLog(ctx, "decrypt", "FAILED", time.Since(start))
		if errors.Is(err, domain.ErrMappingTableEmpty) {
			httputil.Error(w, http.StatusBadRequest, "MAPPING_TABLE_EMPTY", "mappings is empty")
			return
		}
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	restored := decryptor.Decrypt(req.DataWithAnonymizedCodes)

	middleware.WriteAuditLog(ctx, "decrypt", "SUCCESS", time.Since(start))
	httputil.JSON(w, http.StatusOK, DecryptionResponse{
		DecryptedData: restored,
	})
}
